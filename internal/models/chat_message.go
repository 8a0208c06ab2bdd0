package models

import "time"

// ChatMessage represents a persisted chat message.
// Messages are immutable once written; ordering within a room is fixed by
// the store-assigned CreatedAt (and ID as a tie-breaker).
type ChatMessage struct {
	ID uint `gorm:"primaryKey"`

	// RoomID references the owning ChatRoom.
	RoomID uint `gorm:"not null;index:idx_room_created"`
	// Sender is the user ID of the message author.
	Sender string `gorm:"type:text;not null"`
	// Receiver is the user ID of the other room participant.
	Receiver string `gorm:"type:text;not null"`
	// Body is the trimmed message text.
	Body string `gorm:"type:text;not null"`
	// SenderName is the display name the sender announced with the message.
	SenderName string `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"index:idx_room_created"`
}

// WireMessage is the JSON shape of a message on the socket protocol.
// Field names mirror the original client contract and must not change.
type WireMessage struct {
	ID         uint      `json:"_id"`
	ChatRoom   uint      `json:"chatRoom"`
	Sender     string    `json:"sender"`
	Receiver   string    `json:"receiver"`
	Message    string    `json:"message"`
	SenderName string    `json:"senderName"`
	CreatedAt  time.Time `json:"createdAt"`
	Timestamp  time.Time `json:"timestamp"`
}

// Wire converts a persisted message to its socket representation.
func (m ChatMessage) Wire() WireMessage {
	return WireMessage{
		ID:         m.ID,
		ChatRoom:   m.RoomID,
		Sender:     m.Sender,
		Receiver:   m.Receiver,
		Message:    m.Body,
		SenderName: m.SenderName,
		CreatedAt:  m.CreatedAt,
		Timestamp:  m.CreatedAt,
	}
}
