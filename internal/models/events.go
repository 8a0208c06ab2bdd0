package models

import (
	"encoding/json"
	"time"
)

// Event names accepted from clients. Names are part of the wire contract.
const (
	EventJoinRoom         = "joinRoom"
	EventSendMessage      = "sendMessage"
	EventStartVideoCall   = "startVideoCall"
	EventAcceptVideoCall  = "acceptVideoCall"
	EventDeclineVideoCall = "declineVideoCall"
	EventEndVideoCall     = "endVideoCall"
	EventIceCandidate     = "iceCandidate"
	EventPing             = "ping"
)

// Event names emitted to clients.
const (
	EventRoomJoined        = "roomJoined"
	EventChatHistory       = "chatHistory"
	EventUserJoinedRoom    = "userJoinedRoom"
	EventReceiveMessage    = "receiveMessage"
	EventMessageSent       = "messageSent"
	EventMessageError      = "messageError"
	EventJoinRoomError     = "joinRoomError"
	EventIncomingVideoCall = "incomingVideoCall"
	EventVideoCallAccepted = "videoCallAccepted"
	EventVideoCallDeclined = "videoCallDeclined"
	EventVideoCallEnded    = "videoCallEnded"
	EventUserOffline       = "userOffline"
	EventPong              = "pong"
)

// Event is the envelope every socket frame carries, in both directions.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// InboundFrame is a raw frame read off a connection; Data is decoded per
// event by the hub dispatcher.
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRoomPayload binds a connection to a user identity and a room channel.
type JoinRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// SendMessagePayload carries one chat message from a client.
type SendMessagePayload struct {
	Sender     string `json:"sender" validate:"required"`
	Receiver   string `json:"receiver" validate:"required"`
	Message    string `json:"message" validate:"required"`
	SenderName string `json:"senderName"`
}

// StartVideoCallPayload opens call negotiation; Offer is an opaque SDP blob.
type StartVideoCallPayload struct {
	To       string          `json:"to" validate:"required"`
	From     string          `json:"from" validate:"required"`
	FromName string          `json:"fromName"`
	Offer    json.RawMessage `json:"offer" validate:"required"`
	RoomID   string          `json:"roomId"`
}

// AcceptVideoCallPayload answers a ringing call; Answer is opaque.
type AcceptVideoCallPayload struct {
	To     string          `json:"to" validate:"required"`
	From   string          `json:"from" validate:"required"`
	Answer json.RawMessage `json:"answer" validate:"required"`
	RoomID string          `json:"roomId"`
}

// CallControlPayload is shared by declineVideoCall and endVideoCall.
type CallControlPayload struct {
	To     string `json:"to" validate:"required"`
	From   string `json:"from" validate:"required"`
	RoomID string `json:"roomId"`
}

// IceCandidatePayload forwards an opaque ICE candidate to a peer.
type IceCandidatePayload struct {
	Candidate json.RawMessage `json:"candidate" validate:"required"`
	To        string          `json:"to" validate:"required"`
	RoomID    string          `json:"roomId"`
}

// Outbound payload shapes.

type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type UserJoinedRoomPayload struct {
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type JoinRoomErrorPayload struct {
	Error   string `json:"error"`
	RoomID  string `json:"roomId"`
	Details string `json:"details,omitempty"`
}

type MessageSentPayload struct {
	MessageID uint `json:"messageId"`
	Success   bool `json:"success"`
}

type MessageErrorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type IncomingVideoCallPayload struct {
	From     string          `json:"from"`
	FromName string          `json:"fromName"`
	Offer    json.RawMessage `json:"offer"`
	RoomID   string          `json:"roomId"`
}

type VideoCallAcceptedPayload struct {
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

type VideoCallPeerPayload struct {
	From string `json:"from"`
}

type IceCandidateOutPayload struct {
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
}

type UserOfflinePayload struct {
	UserID string `json:"userId"`
}
