// Package chaterr defines the error taxonomy shared by the chat core.
package chaterr

import "fmt"

var (
	// ErrInvalidMessage marks a message missing sender, receiver or body.
	ErrInvalidMessage = fmt.Errorf("invalid message")
	// ErrPeerUnreachable marks a target user with no live connection.
	ErrPeerUnreachable = fmt.Errorf("peer unreachable")
	// ErrDuplicateRoom marks a lost room-creation race. The resolver
	// retries the lookup; this never reaches a client.
	ErrDuplicateRoom = fmt.Errorf("duplicate room")
	// ErrPersistence marks a store failure; wrap with %w for context.
	ErrPersistence = fmt.Errorf("persistence failure")
)
