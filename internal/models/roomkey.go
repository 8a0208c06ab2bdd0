package models

import (
	"fmt"
	"sort"
	"strings"
)

// RoomKeySeparator joins the sorted participant pair into the canonical
// room key. User IDs must never contain it; ValidateUserID enforces that.
const RoomKeySeparator = "_"

// RoomKey derives the canonical room key for an unordered pair of user IDs.
// RoomKey(a, b) == RoomKey(b, a) for any a, b.
func RoomKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, RoomKeySeparator)
}

// ParseRoomKey splits a canonical room key back into its two participants.
func ParseRoomKey(roomKey string) (string, string, error) {
	parts := strings.Split(roomKey, RoomKeySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed room key %q", roomKey)
	}
	if parts[0] > parts[1] {
		return "", "", fmt.Errorf("room key %q is not canonical", roomKey)
	}
	return parts[0], parts[1], nil
}

// ValidateUserID rejects IDs that are empty after trimming or would break
// the canonical key encoding.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("empty user id")
	}
	if strings.Contains(userID, RoomKeySeparator) {
		return fmt.Errorf("user id %q contains reserved separator %q", userID, RoomKeySeparator)
	}
	return nil
}
