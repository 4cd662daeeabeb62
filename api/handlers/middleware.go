package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/auth"
	"github.com/event-radar/backend/internal/model"
	"github.com/event-radar/backend/internal/ws"
)

// CORS allows the configured browser origin to call the API with credentials.
func CORS(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With, "+auth.TokenHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequireSession validates the request the same way a WebSocket handshake is
// validated and stores the identity on the context.
func RequireSession(validator ws.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := validator.Validate(c.Request.Context(), auth.HandshakeFromRequest(c.Request))
		if err != nil {
			if errors.Is(err, model.ErrAuthRejected) {
				sendError(c, http.StatusUnauthorized, model.CodeUnauthorized, "Authentication required")
				return
			}
			sendError(c, http.StatusInternalServerError, model.CodeInternalAuthError, "Authentication failed")
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequestLogger logs each request after it completes. WebSocket upgrades are
// logged when the connection is handed off.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIp", c.ClientIP()))
	}
}
