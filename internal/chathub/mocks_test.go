package chathub_test

import (
	"sync"

	"skillhub/backend/internal/models"
	"skillhub/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of the storage.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindRoomByKey(roomKey string) (*models.ChatRoom, error) {
	args := m.Called(roomKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStore) FindRoomByParticipants(userA, userB string) (*models.ChatRoom, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStore) CreateRoom(userA, userB string) (*models.ChatRoom, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStore) AppendMessage(roomID uint, sender, receiver, body, senderName string) (*models.ChatMessage, error) {
	args := m.Called(roomID, sender, receiver, body, senderName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *MockStore) ListMessages(roomID uint, page, pageSize int) ([]models.ChatMessage, error) {
	args := m.Called(roomID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStore) ListLatestMessages(roomID uint, limit int) ([]models.ChatMessage, error) {
	args := m.Called(roomID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStore) PublishMessage(roomKey string, msg models.WireMessage) error {
	args := m.Called(roomKey, msg)
	return args.Error(0)
}

func (m *MockStore) SubscribeRooms() (<-chan storage.RoomBroadcast, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(chan storage.RoomBroadcast), args.Error(1)
}

// mockClient is a test double for the chathub.Client interface.
type mockClient struct {
	connID string
	send   chan models.Event

	mu     sync.Mutex
	userID string
	closed bool
}

func newMockClient(connID string) *mockClient {
	return &mockClient{
		connID: connID,
		// Buffered so hub sends never hit the full-buffer drop path.
		send: make(chan models.Event, 32),
	}
}

func (c *mockClient) GetConnID() string { return c.connID }

func (c *mockClient) GetUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *mockClient) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

func (c *mockClient) GetSendChannel() chan<- models.Event { return c.send }

func (c *mockClient) Run() {}

func (c *mockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *mockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// received drains and returns everything queued for the client so far.
func (c *mockClient) received() []models.Event {
	var events []models.Event
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

// recordingSender captures events per user for call coordinator tests.
type recordingSender struct {
	mu     sync.Mutex
	events map[string][]models.Event
}

func newRecordingSender() *recordingSender {
	return &recordingSender{events: make(map[string][]models.Event)}
}

func (r *recordingSender) SendToUser(userID string, event models.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[userID] = append(r.events[userID], event)
	return true
}

func (r *recordingSender) sent(userID string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event(nil), r.events[userID]...)
}

func (r *recordingSender) lastEventName(userID string) string {
	events := r.sent(userID)
	if len(events) == 0 {
		return ""
	}
	return events[len(events)-1].Event
}
