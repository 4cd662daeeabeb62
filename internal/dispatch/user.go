package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
	"github.com/event-radar/backend/internal/ws"
)

// handlePresence broadcasts the sender's status to every connection.
func (d *Dispatcher) handlePresence(c *ws.Client, f *ws.Frame) {
	userID := c.UserID()
	if userID == "" {
		return
	}

	var payload model.PresencePayload
	if err := decode(f, &payload); err != nil || !payload.Status.Valid() {
		d.reject(c, f, model.CodeValidation, "Invalid presence status")
		return
	}

	d.logger.Debug("presence update", zap.String("userId", userID), zap.String("status", string(payload.Status)))
	d.hub.BroadcastAll(ws.EventPresenceUpdate, userID, payload)
}

// handleLocationUpdate persists the sender's coordinates and acks the result.
// Nothing is broadcast.
func (d *Dispatcher) handleLocationUpdate(c *ws.Client, f *ws.Frame) {
	userID := c.UserID()
	if userID == "" {
		c.Ack(f, false)
		return
	}

	var payload model.LocationPayload
	if err := decode(f, &payload); err != nil || payload.Validate() != nil {
		d.reject(c, f, model.CodeValidation, "latitude and longitude must be valid coordinates")
		return
	}

	now := d.now()
	patch := model.UserPatch{
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		LastActiveAt: &now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.users.UpdateUser(ctx, userID, patch); err != nil {
		d.logger.Warn("location update failed", zap.String("userId", userID), zap.Error(err))
		c.Ack(f, false)
		return
	}
	c.Ack(f, true)
}
