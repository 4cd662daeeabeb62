package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	started time.Time
	bus     string
	now     func() time.Time
}

// NewHealthHandler creates a HealthHandler. hasBus selects the reported bus mode.
func NewHealthHandler(hasBus bool) *HealthHandler {
	bus := "local"
	if hasBus {
		bus = "redis"
	}
	return &HealthHandler{started: time.Now(), bus: bus, now: time.Now}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Bus       string  `json:"bus"`
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    now.Sub(h.started).Seconds(),
		Bus:       h.bus,
	})
}
