package chathub

import "skillhub/backend/internal/models"

// Client is the interface for one live connection. It abstracts the
// underlying transport so the hub can address every connection uniformly.
type Client interface {
	// GetConnID returns the connection identity allocated at upgrade time.
	GetConnID() string

	// GetUserID returns the user identity bound to this connection, or ""
	// while the connection has not announced itself via joinRoom.
	GetUserID() string
	// SetUserID binds the user identity. Called by the hub on joinRoom.
	SetUserID(string)

	// GetSendChannel returns the channel the hub writes outbound events to.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the client down and releases its send channel.
	Close()
}
