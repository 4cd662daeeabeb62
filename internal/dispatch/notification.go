package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
	"github.com/event-radar/backend/internal/pubsub"
	"github.com/event-radar/backend/internal/ws"
)

// eventsChannel carries event-created notifications.
const eventsChannel = "events"

// handleSubscribe joins the rooms for the requested channels and makes sure
// this process is subscribed on the bus. A non-list payload is ignored.
func (d *Dispatcher) handleSubscribe(c *ws.Client, f *ws.Frame) {
	var payload model.SubscribePayload
	if decode(f, &payload) != nil {
		return
	}
	channels, ok := payload.ChannelList()
	if !ok {
		return
	}

	for _, ch := range channels {
		d.hub.Join(c.ID(), pubsub.RoomFor(ch))

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.bridge.Subscribe(ctx, ch)
		cancel()
		if err != nil {
			d.logger.Error("failed to subscribe to channel", zap.String("channel", ch), zap.Error(err))
			c.Emit(ws.EventError, model.CodeSubscribeFailed, "Failed to subscribe")
		}
	}
	c.Ack(f, true)
}

func (d *Dispatcher) handleNotificationAck(c *ws.Client, f *ws.Frame) {
	var id string
	_ = json.Unmarshal(f.Data, &id)
	d.logger.Debug("notification ack received", zap.String("id", id), zap.String("connId", c.ID()))
}

// handleEventCreated announces a new event on the events channel. The
// creator is recorded so their own connections are skipped on delivery.
func (d *Dispatcher) handleEventCreated(c *ws.Client, f *ws.Frame) {
	userID := c.UserID()
	if userID == "" {
		d.reject(c, f, model.CodePublishFailed, "unauthorized")
		return
	}

	var payload model.EventCreatedPayload
	if err := decode(f, &payload); err != nil || payload.Validate() != nil {
		d.reject(c, f, model.CodeValidation, "Event title is required")
		return
	}

	msg, err := d.newEventNotification(userID, payload)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err = d.bridge.Publish(ctx, eventsChannel, msg)
		cancel()
	}
	if err != nil {
		d.logger.Error("failed to publish event-created notification", zap.String("userId", userID), zap.Error(err))
		d.reject(c, f, model.CodePublishFailed, "Failed to publish notification")
		return
	}
	c.Ack(f, true)
}

func (d *Dispatcher) newEventNotification(creatorID string, event model.EventCreatedPayload) (*model.NotificationMessage, error) {
	data, err := json.Marshal(model.EventCreatedData{Event: event, CreatorID: creatorID})
	if err != nil {
		return nil, fmt.Errorf("%w: encode data: %v", model.ErrPublishFailed, err)
	}
	return &model.NotificationMessage{
		ID:        uuid.NewString(),
		Type:      model.NotificationTypeEventCreated,
		Title:     "New Event: " + event.Title,
		Body:      event.Description,
		CreatedAt: d.now().UTC(),
		Data:      data,
	}, nil
}
