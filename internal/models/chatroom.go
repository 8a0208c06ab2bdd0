package models

import (
	"time"

	"github.com/lib/pq"
)

// ChatRoom represents a 1-on-1 conversation between two users.
// A pair of users has at most one room; the canonical RoomKey enforces
// that through a unique index.
type ChatRoom struct {
	// ID is the persistent room identifier assigned by the database.
	ID uint `gorm:"primaryKey" json:"_id"`
	// RoomKey is the canonical key derived from the sorted participant pair.
	RoomKey string `gorm:"uniqueIndex;not null" json:"roomId"`
	// Participants holds exactly two user IDs.
	Participants pq.StringArray `gorm:"type:text[];not null" json:"participants"`
	// CreatedAt is the timestamp when the room was first resolved.
	CreatedAt time.Time `json:"createdAt"`
}
