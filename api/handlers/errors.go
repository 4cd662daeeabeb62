// Package handlers provides the HTTP surface of the realtime service.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/event-radar/backend/internal/model"
)

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "identity"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// getIdentity returns the identity set by RequireSession, or nil.
func getIdentity(c *gin.Context) *model.Identity {
	if v, exists := c.Get(identityKey); exists {
		if id, ok := v.(*model.Identity); ok {
			return id
		}
	}
	return nil
}
