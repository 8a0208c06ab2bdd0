package chathub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"skillhub/backend/internal/chaterr"
	"skillhub/backend/internal/models"
	"skillhub/backend/internal/presence"
	"skillhub/backend/internal/storage"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// InboundEvent is one decoded frame waiting for dispatch, together with
// the connection it arrived on.
type InboundEvent struct {
	Client Client
	Event  string
	Data   json.RawMessage
}

// Hub owns every live connection and the room channels they joined. Its
// Run loop is the single dispatcher for connect, disconnect and inbound
// events; the maps are additionally lock-guarded because the call
// coordinator's ring timer delivers events from its own goroutine.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client            // connID -> client
	rooms   map[string]map[string]Client // roomKey -> connID -> client
	joined  map[string]map[string]bool   // connID -> roomKey set

	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan InboundEvent

	Presence *presence.Registry
	Relay    *Relay
	// Calls is assigned after NewHub; the coordinator needs the hub as
	// its sender. Call events arriving before it is wired are dropped.
	Calls *CallCoordinator
	Store storage.Store

	// HistoryPageSize bounds the chatHistory page sent on join.
	HistoryPageSize int
}

func NewHub(store storage.Store, reg *presence.Registry, relay *Relay, historyPageSize int) *Hub {
	return &Hub{
		clients:         make(map[string]Client),
		rooms:           make(map[string]map[string]Client),
		joined:          make(map[string]map[string]bool),
		RegisterCh:      make(chan Client),
		UnregisterCh:    make(chan Client),
		IncomingCh:      make(chan InboundEvent),
		Presence:        reg,
		Relay:           relay,
		Store:           store,
		HistoryPageSize: historyPageSize,
	}
}

// Run is the hub's main dispatcher. It subscribes to the store's room
// broadcast channel and then serves lifecycle and inbound events until
// the process exits.
func (h *Hub) Run() {
	broadcasts, err := h.Store.SubscribeRooms()
	if err != nil {
		log.Printf("ERROR: Failed to subscribe to room broadcasts: %v", err)
		broadcasts = nil
	}

	for {
		select {
		case client := <-h.RegisterCh:
			h.mu.Lock()
			h.clients[client.GetConnID()] = client
			h.mu.Unlock()

		case client := <-h.UnregisterCh:
			h.handleDisconnect(client)

		case ev := <-h.IncomingCh:
			h.handleEvent(ev)

		case b, ok := <-broadcasts:
			if !ok {
				log.Println("Room broadcast channel closed; live fan-out stopped")
				broadcasts = nil
				continue
			}
			h.deliverToRoom(b.RoomKey, models.Event{
				Event: models.EventReceiveMessage,
				Data:  b.Message,
			})
		}
	}
}

func (h *Hub) handleEvent(ev InboundEvent) {
	switch ev.Event {
	case models.EventJoinRoom:
		h.handleJoinRoom(ev)
	case models.EventSendMessage:
		h.handleSendMessage(ev)
	case models.EventStartVideoCall, models.EventAcceptVideoCall, models.EventDeclineVideoCall,
		models.EventEndVideoCall, models.EventIceCandidate:
		if h.Calls == nil {
			log.Printf("Dropping %s from %s: no call coordinator wired", ev.Event, ev.Client.GetConnID())
			return
		}
		h.handleCallEvent(ev)
	case models.EventPing:
		h.trySend(ev.Client, models.Event{Event: models.EventPong})
	default:
		log.Printf("Unknown event %q from connection %s", ev.Event, ev.Client.GetConnID())
	}
}

// handleJoinRoom binds the connection to its user identity, joins the
// room channel, lazily creates the backing room and returns the history.
func (h *Hub) handleJoinRoom(ev InboundEvent) {
	var p models.JoinRoomPayload
	if err := decodePayload(ev.Data, &p); err != nil {
		h.trySend(ev.Client, models.Event{
			Event: models.EventJoinRoomError,
			Data:  models.JoinRoomErrorPayload{Error: "Failed to join room", RoomID: p.RoomID, Details: err.Error()},
		})
		return
	}

	userA, userB, err := models.ParseRoomKey(p.RoomID)
	if err == nil {
		err = models.ValidateUserID(p.UserID)
	}
	if err != nil {
		h.trySend(ev.Client, models.Event{
			Event: models.EventJoinRoomError,
			Data:  models.JoinRoomErrorPayload{Error: "Failed to join room", RoomID: p.RoomID, Details: err.Error()},
		})
		return
	}

	// Last connection wins; the superseded one is closed so every user
	// has exactly one addressable connection.
	if prev := h.Presence.Register(p.UserID, ev.Client.GetConnID()); prev != "" {
		h.closeConnection(prev)
	}
	ev.Client.SetUserID(p.UserID)
	h.joinRoom(p.RoomID, ev.Client)

	h.trySend(ev.Client, models.Event{
		Event: models.EventRoomJoined,
		Data:  models.RoomJoinedPayload{RoomID: p.RoomID, UserID: p.UserID},
	})

	if _, err := ResolveRoom(h.Store, userA, userB); err != nil {
		h.trySend(ev.Client, models.Event{
			Event: models.EventJoinRoomError,
			Data:  models.JoinRoomErrorPayload{Error: "Failed to join room", RoomID: p.RoomID, Details: err.Error()},
		})
		return
	}

	history, err := h.Relay.Latest(p.RoomID, h.HistoryPageSize)
	if err != nil {
		h.trySend(ev.Client, models.Event{
			Event: models.EventJoinRoomError,
			Data:  models.JoinRoomErrorPayload{Error: "Failed to join room", RoomID: p.RoomID, Details: err.Error()},
		})
		return
	}
	h.trySend(ev.Client, models.Event{Event: models.EventChatHistory, Data: history})

	h.notifyRoomOthers(p.RoomID, ev.Client.GetConnID(), models.Event{
		Event: models.EventUserJoinedRoom,
		Data:  models.UserJoinedRoomPayload{UserID: p.UserID, Timestamp: time.Now()},
	})
}

func (h *Hub) handleSendMessage(ev InboundEvent) {
	var p models.SendMessagePayload
	if err := decodePayload(ev.Data, &p); err != nil {
		h.trySend(ev.Client, models.Event{
			Event: models.EventMessageError,
			Data:  models.MessageErrorPayload{Error: "Missing required fields"},
		})
		return
	}

	msg, err := h.Relay.Send(p.Sender, p.Receiver, p.Message, p.SenderName)
	if errors.Is(err, chaterr.ErrInvalidMessage) {
		h.trySend(ev.Client, models.Event{
			Event: models.EventMessageError,
			Data:  models.MessageErrorPayload{Error: "Missing required fields"},
		})
		return
	}
	if err != nil {
		h.trySend(ev.Client, models.Event{
			Event: models.EventMessageError,
			Data:  models.MessageErrorPayload{Error: "Failed to save message", Details: err.Error()},
		})
		return
	}

	h.trySend(ev.Client, models.Event{
		Event: models.EventMessageSent,
		Data:  models.MessageSentPayload{MessageID: msg.ID, Success: true},
	})
}

func (h *Hub) handleCallEvent(ev InboundEvent) {
	switch ev.Event {
	case models.EventStartVideoCall:
		h.handleStartVideoCall(ev)
	case models.EventAcceptVideoCall:
		h.handleAcceptVideoCall(ev)
	case models.EventDeclineVideoCall:
		h.handleDeclineVideoCall(ev)
	case models.EventEndVideoCall:
		h.handleEndVideoCall(ev)
	case models.EventIceCandidate:
		h.handleIceCandidate(ev)
	}
}

func (h *Hub) handleStartVideoCall(ev InboundEvent) {
	var p models.StartVideoCallPayload
	if err := decodePayload(ev.Data, &p); err != nil {
		log.Printf("Dropping startVideoCall from %s: %v", ev.Client.GetConnID(), err)
		return
	}
	if err := h.Calls.Initiate(p.From, p.To, p.FromName, p.Offer, p.RoomID); errors.Is(err, chaterr.ErrPeerUnreachable) {
		h.trySend(ev.Client, models.Event{
			Event: models.EventUserOffline,
			Data:  models.UserOfflinePayload{UserID: p.To},
		})
	}
}

func (h *Hub) handleAcceptVideoCall(ev InboundEvent) {
	var p models.AcceptVideoCallPayload
	if err := decodePayload(ev.Data, &p); err != nil {
		log.Printf("Dropping acceptVideoCall from %s: %v", ev.Client.GetConnID(), err)
		return
	}
	if err := h.Calls.Accept(p.From, p.To, p.Answer); errors.Is(err, chaterr.ErrPeerUnreachable) {
		h.trySend(ev.Client, models.Event{
			Event: models.EventUserOffline,
			Data:  models.UserOfflinePayload{UserID: p.To},
		})
	}
}

func (h *Hub) handleDeclineVideoCall(ev InboundEvent) {
	var p models.CallControlPayload
	if err := decodePayload(ev.Data, &p); err != nil {
		log.Printf("Dropping declineVideoCall from %s: %v", ev.Client.GetConnID(), err)
		return
	}
	h.Calls.Decline(p.From, p.To)
}

func (h *Hub) handleEndVideoCall(ev InboundEvent) {
	var p models.CallControlPayload
	if err := decodePayload(ev.Data, &p); err != nil {
		log.Printf("Dropping endVideoCall from %s: %v", ev.Client.GetConnID(), err)
		return
	}
	h.Calls.Terminate(p.From, p.To)
}

func (h *Hub) handleIceCandidate(ev InboundEvent) {
	var p models.IceCandidatePayload
	if err := decodePayload(ev.Data, &p); err != nil {
		return // candidates are advisory, drop silently
	}
	// The sender identity comes from the connection's presence binding,
	// never from the payload.
	from, ok := h.Presence.User(ev.Client.GetConnID())
	if !ok {
		return
	}
	h.Calls.RelayIceCandidate(from, p.To, p.Candidate)
}

// handleDisconnect runs the full disconnect sequence: drop the
// connection, unbind presence, tell everyone the user went offline and
// end any call the user was part of. Each step is best effort.
func (h *Hub) handleDisconnect(client Client) {
	connID := client.GetConnID()

	h.mu.Lock()
	if _, ok := h.clients[connID]; !ok {
		// Already removed, e.g. force-closed after being superseded.
		h.mu.Unlock()
		return
	}
	h.removeLocked(client)
	client.Close()
	h.mu.Unlock()

	userID, ok := h.Presence.User(connID)
	if !ok {
		return // connection never announced itself
	}
	h.Presence.Unregister(connID)

	h.broadcastExcept(connID, models.Event{
		Event: models.EventUserOffline,
		Data:  models.UserOfflinePayload{UserID: userID},
	})
	if h.Calls != nil {
		h.Calls.TerminateFor(userID)
	}
}

// ClientCount reports how many connections the hub currently tracks.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToUser delivers one event to the user's current connection, if any.
// Implements PeerSender for the call coordinator.
func (h *Hub) SendToUser(userID string, event models.Event) bool {
	connID, ok := h.Presence.Connection(userID)
	if !ok {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[connID]
	if !ok {
		return false
	}
	return h.sendLocked(client, event)
}

func (h *Hub) joinRoom(roomKey string, client Client) {
	connID := client.GetConnID()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomKey] == nil {
		h.rooms[roomKey] = make(map[string]Client)
	}
	h.rooms[roomKey][connID] = client
	if h.joined[connID] == nil {
		h.joined[connID] = make(map[string]bool)
	}
	h.joined[connID][roomKey] = true
}

func (h *Hub) deliverToRoom(roomKey string, event models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.rooms[roomKey] {
		h.sendLocked(client, event)
	}
}

func (h *Hub) notifyRoomOthers(roomKey, exceptConnID string, event models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, client := range h.rooms[roomKey] {
		if connID == exceptConnID {
			continue
		}
		h.sendLocked(client, event)
	}
}

func (h *Hub) broadcastExcept(exceptConnID string, event models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, client := range h.clients {
		if connID == exceptConnID {
			continue
		}
		h.sendLocked(client, event)
	}
}

// closeConnection force-closes a superseded connection.
func (h *Hub) closeConnection(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	h.removeLocked(client)
	client.Close()
}

// removeLocked drops a client from the registry and every room channel.
// Callers hold h.mu.
func (h *Hub) removeLocked(client Client) {
	connID := client.GetConnID()
	delete(h.clients, connID)
	for roomKey := range h.joined[connID] {
		delete(h.rooms[roomKey], connID)
		if len(h.rooms[roomKey]) == 0 {
			delete(h.rooms, roomKey)
		}
	}
	delete(h.joined, connID)
}

// trySend queues an event on a client without blocking the dispatcher.
func (h *Hub) trySend(client Client, event models.Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.GetConnID()]; !ok {
		return false
	}
	return h.sendLocked(client, event)
}

// sendLocked performs the non-blocking channel send; callers hold h.mu in
// at least read mode, which guarantees the channel is not being closed
// concurrently.
func (h *Hub) sendLocked(client Client, event models.Event) bool {
	select {
	case client.GetSendChannel() <- event:
		return true
	default:
		log.Printf("Dropping %s event for connection %s: send buffer full", event.Event, client.GetConnID())
		return false
	}
}

// decodePayload unmarshals and validates one inbound payload.
func decodePayload(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return validate.Struct(out)
}
