package chathub

import (
	"fmt"
	"log"
	"strings"

	"skillhub/backend/internal/chaterr"
	"skillhub/backend/internal/models"
	"skillhub/backend/internal/storage"

	"github.com/samber/lo"
)

// defaultSenderName is used when a client sends without announcing one.
const defaultSenderName = "Unknown"

// Relay validates, persists and fans out chat messages. Fan-out goes
// through the store's room broadcast channel; the hub delivers broadcasts
// to the connections joined to the room. Live delivery is best effort:
// the message is durable either way and shows up in the next history
// fetch.
type Relay struct {
	Store storage.Store
}

func NewRelay(store storage.Store) *Relay {
	return &Relay{Store: store}
}

// Send persists one message and publishes it to the room channel. It
// fails with chaterr.ErrInvalidMessage before touching the store when
// sender, receiver or body are empty after trimming.
func (r *Relay) Send(sender, receiver, body, senderName string) (*models.ChatMessage, error) {
	sender = strings.TrimSpace(sender)
	receiver = strings.TrimSpace(receiver)
	body = strings.TrimSpace(body)
	if sender == "" || receiver == "" || body == "" {
		return nil, fmt.Errorf("%w: missing sender, receiver or message", chaterr.ErrInvalidMessage)
	}
	if senderName == "" {
		senderName = defaultSenderName
	}

	room, err := ResolveRoom(r.Store, sender, receiver)
	if err != nil {
		return nil, err
	}
	// A room fetched by key must belong to exactly this pair.
	if !lo.Every(room.Participants, []string{sender, receiver}) {
		return nil, fmt.Errorf("%w: %s and %s are not the participants of room %s",
			chaterr.ErrInvalidMessage, sender, receiver, room.RoomKey)
	}

	msg, err := r.Store.AppendMessage(room.ID, sender, receiver, body, senderName)
	if err != nil {
		return nil, err
	}

	if err := r.Store.PublishMessage(room.RoomKey, msg.Wire()); err != nil {
		// The message is already durable; a dead broadcast only costs the
		// live notification.
		log.Printf("ERROR: Failed to publish message %d to room %s: %v", msg.ID, room.RoomKey, err)
	}
	return msg, nil
}

// History returns one page of a room's messages, oldest first. A room
// that does not exist yet simply has no history.
func (r *Relay) History(roomKey string, page, pageSize int) ([]models.WireMessage, error) {
	room, err := r.Store.FindRoomByKey(roomKey)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return []models.WireMessage{}, nil
	}

	messages, err := r.Store.ListMessages(room.ID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return lo.Map(messages, func(m models.ChatMessage, _ int) models.WireMessage {
		return m.Wire()
	}), nil
}

// Latest returns the newest pageSize messages of a room in chronological
// order. This is the window a client wants when it opens the room: the
// recent conversation, not the oldest page.
func (r *Relay) Latest(roomKey string, pageSize int) ([]models.WireMessage, error) {
	room, err := r.Store.FindRoomByKey(roomKey)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return []models.WireMessage{}, nil
	}

	messages, err := r.Store.ListLatestMessages(room.ID, pageSize)
	if err != nil {
		return nil, err
	}
	return lo.Map(lo.Reverse(messages), func(m models.ChatMessage, _ int) models.WireMessage {
		return m.Wire()
	}), nil
}
