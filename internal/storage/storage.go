package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"skillhub/backend/internal/chaterr"
	"skillhub/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// roomChannelPrefix namespaces the Redis pub/sub channel per room.
const roomChannelPrefix = "room:"

// RoomBroadcast is one fanned-out message as read from Redis pub/sub.
type RoomBroadcast struct {
	RoomKey string
	Message models.WireMessage
}

// Store is the persistence gateway consumed by the chat core.
type Store interface {
	FindRoomByKey(roomKey string) (*models.ChatRoom, error)
	FindRoomByParticipants(userA, userB string) (*models.ChatRoom, error)
	// CreateRoom fails with chaterr.ErrDuplicateRoom when a concurrent
	// create already won for the same pair; callers retry the lookup.
	CreateRoom(userA, userB string) (*models.ChatRoom, error)

	AppendMessage(roomID uint, sender, receiver, body, senderName string) (*models.ChatMessage, error)
	ListMessages(roomID uint, page, pageSize int) ([]models.ChatMessage, error)
	// ListLatestMessages returns the newest limit messages, newest first.
	ListLatestMessages(roomID uint, limit int) ([]models.ChatMessage, error)

	PublishMessage(roomKey string, msg models.WireMessage) error
	SubscribeRooms() (<-chan RoomBroadcast, error)
}

// Service implements Store on PostgreSQL (rooms, messages) and Redis
// (room broadcast channel).
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// FindRoomByKey looks a room up by its canonical key. A missing room is
// not an error; it returns (nil, nil).
func (s *Service) FindRoomByKey(roomKey string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.Where("room_key = ?", roomKey).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find room %s: %v", chaterr.ErrPersistence, roomKey, err)
	}
	return &room, nil
}

// FindRoomByParticipants resolves the room for an unordered user pair.
// Both lookup strategies funnel through the canonical key column, so they
// always agree on the same room.
func (s *Service) FindRoomByParticipants(userA, userB string) (*models.ChatRoom, error) {
	return s.FindRoomByKey(models.RoomKey(userA, userB))
}

// CreateRoom persists a new two-party room. The unique index on room_key
// turns a lost creation race into chaterr.ErrDuplicateRoom.
func (s *Service) CreateRoom(userA, userB string) (*models.ChatRoom, error) {
	room := models.ChatRoom{
		RoomKey:      models.RoomKey(userA, userB),
		Participants: []string{userA, userB},
		CreatedAt:    time.Now(),
	}
	err := s.DB.Create(&room).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, chaterr.ErrDuplicateRoom
	}
	if err != nil {
		log.Printf("ERROR: Failed to create room %s: %v", room.RoomKey, err)
		return nil, fmt.Errorf("%w: create room %s: %v", chaterr.ErrPersistence, room.RoomKey, err)
	}
	return &room, nil
}

// AppendMessage stores one message with a server-assigned timestamp.
func (s *Service) AppendMessage(roomID uint, sender, receiver, body, senderName string) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		RoomID:     roomID,
		Sender:     sender,
		Receiver:   receiver,
		Body:       body,
		SenderName: senderName,
	}
	if err := s.DB.Create(&msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %d: %v", roomID, err)
		return nil, fmt.Errorf("%w: append message: %v", chaterr.ErrPersistence, err)
	}
	return &msg, nil
}

// ListMessages returns one page of a room's history, oldest first. The
// position of a message never changes after it is written.
func (s *Service) ListMessages(roomID uint, page, pageSize int) ([]models.ChatMessage, error) {
	if page < 1 {
		page = 1
	}
	var history []models.ChatMessage
	err := s.DB.Where("room_id = ?", roomID).
		Order("created_at asc, id asc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&history).Error
	if err != nil {
		log.Printf("ERROR: Failed to get chat history for room %d: %v", roomID, err)
		return nil, fmt.Errorf("%w: list messages: %v", chaterr.ErrPersistence, err)
	}
	return history, nil
}

// ListLatestMessages returns the newest limit messages of a room, newest
// first. Callers that want chronological order reverse the slice.
func (s *Service) ListLatestMessages(roomID uint, limit int) ([]models.ChatMessage, error) {
	var history []models.ChatMessage
	err := s.DB.Where("room_id = ?", roomID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		log.Printf("ERROR: Failed to get latest messages for room %d: %v", roomID, err)
		return nil, fmt.Errorf("%w: list latest messages: %v", chaterr.ErrPersistence, err)
	}
	return history, nil
}

// PublishMessage fans a persisted message out on the room's Redis channel.
func (s *Service) PublishMessage(roomKey string, msg models.WireMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := s.Redis.Publish(s.Ctx, roomChannelPrefix+roomKey, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish to %s: %v", chaterr.ErrPersistence, roomKey, err)
	}
	return nil
}

// SubscribeRooms subscribes to every room channel and decodes broadcasts
// onto a plain Go channel. The channel closes when the subscription dies.
func (s *Service) SubscribeRooms() (<-chan RoomBroadcast, error) {
	pubsub := s.Redis.PSubscribe(s.Ctx, roomChannelPrefix+"*")
	if _, err := pubsub.Receive(s.Ctx); err != nil {
		return nil, fmt.Errorf("%w: subscribe rooms: %v", chaterr.ErrPersistence, err)
	}

	out := make(chan RoomBroadcast)
	go func() {
		defer close(out)
		for m := range pubsub.Channel() {
			var msg models.WireMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				log.Printf("ERROR: Failed to decode room broadcast: %v", err)
				continue
			}
			out <- RoomBroadcast{
				RoomKey: strings.TrimPrefix(m.Channel, roomChannelPrefix),
				Message: msg,
			}
		}
	}()
	return out, nil
}
