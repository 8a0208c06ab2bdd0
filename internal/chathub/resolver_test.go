package chathub_test

import (
	"testing"

	"skillhub/backend/internal/chaterr"
	"skillhub/backend/internal/chathub"
	"skillhub/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestResolveRoom_ReturnsExistingRoom(t *testing.T) {
	store := new(MockStore)
	room := &models.ChatRoom{ID: 1, RoomKey: "alice_bob", Participants: []string{"alice", "bob"}}
	store.On("FindRoomByParticipants", "alice", "bob").Return(room, nil)

	got, err := chathub.ResolveRoom(store, "alice", "bob")

	assert.NoError(t, err)
	assert.Equal(t, room, got)
	store.AssertNotCalled(t, "CreateRoom")
}

func TestResolveRoom_CreatesWhenAbsent(t *testing.T) {
	store := new(MockStore)
	room := &models.ChatRoom{ID: 2, RoomKey: "alice_bob"}
	store.On("FindRoomByParticipants", "alice", "bob").Return(nil, nil)
	store.On("CreateRoom", "alice", "bob").Return(room, nil)

	got, err := chathub.ResolveRoom(store, "alice", "bob")

	assert.NoError(t, err)
	assert.Equal(t, room, got)
}

func TestResolveRoom_LostRaceFallsBackToWinner(t *testing.T) {
	store := new(MockStore)
	winner := &models.ChatRoom{ID: 3, RoomKey: "alice_bob"}
	store.On("FindRoomByParticipants", "alice", "bob").Return(nil, nil).Once()
	store.On("CreateRoom", "alice", "bob").Return(nil, chaterr.ErrDuplicateRoom).Once()
	store.On("FindRoomByParticipants", "alice", "bob").Return(winner, nil).Once()

	got, err := chathub.ResolveRoom(store, "alice", "bob")

	assert.NoError(t, err)
	assert.Equal(t, winner, got)
	store.AssertExpectations(t)
}

func TestResolveRoom_RejectsInvalidIdentity(t *testing.T) {
	store := new(MockStore)

	_, err := chathub.ResolveRoom(store, "has_separator", "bob")
	assert.ErrorIs(t, err, chaterr.ErrInvalidMessage)

	_, err = chathub.ResolveRoom(store, "alice", "")
	assert.ErrorIs(t, err, chaterr.ErrInvalidMessage)

	store.AssertNotCalled(t, "FindRoomByParticipants")
	store.AssertNotCalled(t, "CreateRoom")
}
