package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PresenceSource answers online queries.
type PresenceSource interface {
	IsOnline(userID string) bool
	ConnectionsFor(userID string) []string
	OnlineUsers() []string
}

// PresenceHandler exposes connection presence over HTTP.
type PresenceHandler struct {
	presence PresenceSource
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(presence PresenceSource) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// UserPresenceResponse is the body of GET /api/presence/:userId.
type UserPresenceResponse struct {
	UserID      string `json:"userId"`
	Online      bool   `json:"online"`
	Connections int    `json:"connections"`
}

// PresenceListResponse is the body of GET /api/presence.
type PresenceListResponse struct {
	Users []string `json:"users"`
	Total int      `json:"total"`
}

// Get handles GET /api/presence/:userId. The userId "me" means the caller.
func (h *PresenceHandler) Get(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "me" {
		if id := getIdentity(c); id != nil {
			userID = id.ID
		}
	}
	if userID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "User ID is required")
		return
	}

	c.JSON(http.StatusOK, UserPresenceResponse{
		UserID:      userID,
		Online:      h.presence.IsOnline(userID),
		Connections: len(h.presence.ConnectionsFor(userID)),
	})
}

// List handles GET /api/presence.
func (h *PresenceHandler) List(c *gin.Context) {
	users := h.presence.OnlineUsers()
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, PresenceListResponse{Users: users, Total: len(users)})
}

// RegisterRoutes registers the presence routes on a Gin router group.
func (h *PresenceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/presence", h.List)
	rg.GET("/presence/:userId", h.Get)
}
