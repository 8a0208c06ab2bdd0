package chathub_test

import (
	"fmt"
	"testing"
	"time"

	"skillhub/backend/internal/chaterr"
	"skillhub/backend/internal/chathub"
	"skillhub/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testRoom() *models.ChatRoom {
	return &models.ChatRoom{
		ID:           10,
		RoomKey:      "alice_bob",
		Participants: []string{"alice", "bob"},
		CreatedAt:    time.Now(),
	}
}

func TestRelay_Send_PersistsAndPublishes(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	room := testRoom()
	saved := &models.ChatMessage{ID: 42, RoomID: room.ID, Sender: "alice", Receiver: "bob", Body: "hi", SenderName: "Alice"}
	store.On("FindRoomByParticipants", "alice", "bob").Return(room, nil)
	store.On("AppendMessage", room.ID, "alice", "bob", "hi", "Alice").Return(saved, nil)
	store.On("PublishMessage", room.RoomKey, saved.Wire()).Return(nil)

	msg, err := relay.Send("alice", "bob", "  hi  ", "Alice")

	assert.NoError(t, err)
	assert.Equal(t, uint(42), msg.ID)
	store.AssertExpectations(t)
}

func TestRelay_Send_EmptyBodyNotPersisted(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	_, err := relay.Send("alice", "bob", "   ", "Alice")

	assert.ErrorIs(t, err, chaterr.ErrInvalidMessage)
	store.AssertNotCalled(t, "AppendMessage")
	store.AssertNotCalled(t, "CreateRoom")
}

func TestRelay_Send_MissingSenderOrReceiver(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	_, err := relay.Send("", "bob", "hi", "Alice")
	assert.ErrorIs(t, err, chaterr.ErrInvalidMessage)

	_, err = relay.Send("alice", " ", "hi", "Alice")
	assert.ErrorIs(t, err, chaterr.ErrInvalidMessage)
}

func TestRelay_Send_DefaultsSenderName(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	room := testRoom()
	saved := &models.ChatMessage{ID: 1, RoomID: room.ID, Sender: "alice", Receiver: "bob", Body: "hi", SenderName: "Unknown"}
	store.On("FindRoomByParticipants", "alice", "bob").Return(room, nil)
	store.On("AppendMessage", room.ID, "alice", "bob", "hi", "Unknown").Return(saved, nil)
	store.On("PublishMessage", mock.Anything, mock.Anything).Return(nil)

	_, err := relay.Send("alice", "bob", "hi", "")

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRelay_Send_SurvivesDeadBroadcast(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	room := testRoom()
	saved := &models.ChatMessage{ID: 5, RoomID: room.ID, Sender: "alice", Receiver: "bob", Body: "hi", SenderName: "Alice"}
	store.On("FindRoomByParticipants", "alice", "bob").Return(room, nil)
	store.On("AppendMessage", room.ID, "alice", "bob", "hi", "Alice").Return(saved, nil)
	store.On("PublishMessage", mock.Anything, mock.Anything).Return(fmt.Errorf("redis down"))

	// The message is durable; a dead live broadcast is not an error.
	msg, err := relay.Send("alice", "bob", "hi", "Alice")

	assert.NoError(t, err)
	assert.Equal(t, uint(5), msg.ID)
}

func TestRelay_Send_PersistenceFailureSurfaces(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	room := testRoom()
	store.On("FindRoomByParticipants", "alice", "bob").Return(room, nil)
	store.On("AppendMessage", room.ID, "alice", "bob", "hi", "Alice").
		Return(nil, fmt.Errorf("%w: db down", chaterr.ErrPersistence))

	_, err := relay.Send("alice", "bob", "hi", "Alice")

	assert.ErrorIs(t, err, chaterr.ErrPersistence)
	store.AssertNotCalled(t, "PublishMessage")
}

func TestRelay_History_MissingRoomIsEmpty(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)
	store.On("FindRoomByKey", "alice_bob").Return(nil, nil)

	history, err := relay.History("alice_bob", 1, 50)

	assert.NoError(t, err)
	assert.Empty(t, history)
	store.AssertNotCalled(t, "ListMessages")
}

func TestRelay_Latest_ReturnsNewestWindowAscending(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	room := testRoom()
	base := time.Now()
	// Newest first, as the store returns them.
	newest := []models.ChatMessage{
		{ID: 3, RoomID: room.ID, Sender: "bob", Receiver: "alice", Body: "third", CreatedAt: base.Add(2 * time.Second)},
		{ID: 2, RoomID: room.ID, Sender: "alice", Receiver: "bob", Body: "second", CreatedAt: base.Add(time.Second)},
		{ID: 1, RoomID: room.ID, Sender: "alice", Receiver: "bob", Body: "first", CreatedAt: base},
	}
	store.On("FindRoomByKey", room.RoomKey).Return(room, nil)
	store.On("ListLatestMessages", room.ID, 3).Return(newest, nil)

	history, err := relay.Latest(room.RoomKey, 3)

	assert.NoError(t, err)
	assert.Len(t, history, 3)
	assert.Equal(t, "first", history[0].Message)
	assert.Equal(t, "third", history[2].Message)
	assert.True(t, !history[2].CreatedAt.Before(history[0].CreatedAt))
}

func TestRelay_Latest_MissingRoomIsEmpty(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)
	store.On("FindRoomByKey", "alice_bob").Return(nil, nil)

	history, err := relay.Latest("alice_bob", 50)

	assert.NoError(t, err)
	assert.Empty(t, history)
	store.AssertNotCalled(t, "ListLatestMessages")
}

func TestRelay_History_ReturnsWireMessagesInOrder(t *testing.T) {
	store := new(MockStore)
	relay := chathub.NewRelay(store)

	room := testRoom()
	base := time.Now()
	stored := []models.ChatMessage{
		{ID: 1, RoomID: room.ID, Sender: "alice", Receiver: "bob", Body: "first", CreatedAt: base},
		{ID: 2, RoomID: room.ID, Sender: "bob", Receiver: "alice", Body: "second", CreatedAt: base.Add(time.Second)},
	}
	store.On("FindRoomByKey", room.RoomKey).Return(room, nil)
	store.On("ListMessages", room.ID, 2, 25).Return(stored, nil)

	history, err := relay.History(room.RoomKey, 2, 25)

	assert.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Message)
	assert.Equal(t, "second", history[1].Message)
	assert.True(t, !history[1].CreatedAt.Before(history[0].CreatedAt))
}
