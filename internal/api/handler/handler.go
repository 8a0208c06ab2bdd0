package handler

import (
	"skillhub/backend/internal/chathub"
	"skillhub/backend/internal/presence"
)

// Handler carries the hub and its collaborators into the gin routes.
type Handler struct {
	Hub       *chathub.Hub
	Relay     *chathub.Relay
	Presence  *presence.Registry
	JWTSecret []byte

	// AllowedOrigin restricts the WS upgrade; empty allows any origin.
	AllowedOrigin string
	PageSize      int
}

func NewHandler(hub *chathub.Hub, relay *chathub.Relay, reg *presence.Registry, jwtSecret, allowedOrigin string, pageSize int) *Handler {
	return &Handler{
		Hub:           hub,
		Relay:         relay,
		Presence:      reg,
		JWTSecret:     []byte(jwtSecret),
		AllowedOrigin: allowedOrigin,
		PageSize:      pageSize,
	}
}
