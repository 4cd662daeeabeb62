package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebSocketHandler mounts the realtime WebSocket endpoint.
type WebSocketHandler struct {
	ws http.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler http.Handler) *WebSocketHandler {
	return &WebSocketHandler{ws: wsHandler}
}

// Connect handles GET /ws. Authentication happens inside the WebSocket
// handler so rejections carry the handshake error codes.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	h.ws.ServeHTTP(c.Writer, c.Request)
}

// RegisterRoutes registers the WebSocket route.
func (h *WebSocketHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws", h.Connect)
}
