package handler

import (
	"net/http"
	"strconv"
	"time"

	"skillhub/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

// maxHistoryLimit bounds an explicitly requested history page. The
// default page size stays much smaller; clients that want more must ask.
const maxHistoryLimit = 500

// CreateOrGetChatRoom resolves the room between the authenticated user
// and the user named in the path, creating it on first contact.
func (h *Handler) CreateOrGetChatRoom(c *gin.Context) {
	currentUserID := c.GetString(contextUserKey)
	otherUserID := c.Param("userId")

	room, err := chathub.ResolveRoom(h.Relay.Store, currentUserID, otherUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating chat room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatRoom": room})
}

// GetRoomMessages returns one page of a room's history, oldest first.
// A room that does not exist yet yields an empty page, not an error.
func (h *Handler) GetRoomMessages(c *gin.Context) {
	roomKey := c.Param("roomId")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.PageSize)))
	if err != nil || limit < 1 {
		limit = h.PageSize
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	messages, err := h.Relay.History(roomKey, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// Health reports liveness plus the connected-user count.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "OK",
		"connectedUsers": h.Presence.Count(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
