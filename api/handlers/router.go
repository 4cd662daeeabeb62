package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/ws"
)

// RouterConfig holds the collaborators mounted on the HTTP router.
type RouterConfig struct {
	CORSOrigin string
	Logger     *zap.Logger
	Validator  ws.Authenticator
	Health     *HealthHandler
	Presence   *PresenceHandler
	WebSocket  *WebSocketHandler
}

// NewRouter builds the gin engine serving /health, /ws and /api.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.CORSOrigin))

	r.GET("/health", cfg.Health.Health)
	cfg.WebSocket.RegisterRoutes(r)

	api := r.Group("/api")
	api.Use(RequireSession(cfg.Validator))
	{
		cfg.Presence.RegisterRoutes(api)
	}

	return r
}
