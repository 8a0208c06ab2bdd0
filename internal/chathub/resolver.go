package chathub

import (
	"errors"
	"fmt"

	"skillhub/backend/internal/chaterr"
	"skillhub/backend/internal/models"
	"skillhub/backend/internal/storage"
)

// resolveRoomAttempts bounds the create/re-read loop. One retry is enough
// in practice; a second lost race means the store is misbehaving.
const resolveRoomAttempts = 3

// ResolveRoom returns the one room for an unordered user pair, creating it
// on first contact. Safe under concurrent invocation from both
// participants: a lost creation race is detected through the store's
// duplicate-key failure and resolved by re-reading the winner's room.
func ResolveRoom(store storage.Store, userA, userB string) (*models.ChatRoom, error) {
	if err := models.ValidateUserID(userA); err != nil {
		return nil, fmt.Errorf("%w: %v", chaterr.ErrInvalidMessage, err)
	}
	if err := models.ValidateUserID(userB); err != nil {
		return nil, fmt.Errorf("%w: %v", chaterr.ErrInvalidMessage, err)
	}

	for attempt := 0; attempt < resolveRoomAttempts; attempt++ {
		room, err := store.FindRoomByParticipants(userA, userB)
		if err != nil {
			return nil, err
		}
		if room != nil {
			return room, nil
		}

		room, err = store.CreateRoom(userA, userB)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, chaterr.ErrDuplicateRoom) {
			return nil, err
		}
		// Lost the race; loop around and read the winner's room.
	}
	return nil, fmt.Errorf("%w: room %s kept disappearing", chaterr.ErrPersistence, models.RoomKey(userA, userB))
}
