// Package dispatch handles the inbound event surface of realtime connections.
package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
	"github.com/event-radar/backend/internal/presence"
	"github.com/event-radar/backend/internal/pubsub"
	"github.com/event-radar/backend/internal/ws"
)

const (
	welcomeMessage = "Connected to realtime service"
	defaultTimeout = 5 * time.Second
)

// UserStore persists the user fields the realtime service touches.
type UserStore interface {
	UpdateUser(ctx context.Context, userID string, patch model.UserPatch) error
}

type handlerFunc func(c *ws.Client, f *ws.Frame)

// Dispatcher implements ws.EventHandler.
type Dispatcher struct {
	hub             *ws.Hub
	registry        *presence.Registry
	bridge          *pubsub.Bridge
	users           UserStore
	defaultChannels []string
	timeout         time.Duration
	now             func() time.Time
	logger          *zap.Logger

	handlers map[string]handlerFunc

	// tasks tracks fire-and-forget work so shutdown can drain it.
	tasks sync.WaitGroup
}

// New creates a Dispatcher. defaultChannels are joined by every connection.
func New(hub *ws.Hub, registry *presence.Registry, bridge *pubsub.Bridge, users UserStore, defaultChannels []string, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		hub:             hub,
		registry:        registry,
		bridge:          bridge,
		users:           users,
		defaultChannels: defaultChannels,
		timeout:         defaultTimeout,
		now:             time.Now,
		logger:          logger.Named("dispatch"),
	}

	d.handlers = map[string]handlerFunc{
		ws.EventPresence:              d.handlePresence,
		ws.EventLocationUpdate:        d.handleLocationUpdate,
		ws.EventNotificationSubscribe: d.handleSubscribe,
		ws.EventNotificationAck:       d.handleNotificationAck,
		ws.EventCreated:               d.handleEventCreated,
		ws.EventChatJoin:              d.handleChatJoin,
		ws.EventChatLeave:             d.handleChatLeave,
		ws.EventChatMessage:           d.handleChatMessage,
	}
	return d
}

// OnConnect registers the connection, welcomes it, and joins the default
// channels. Bus subscriptions for those channels happen in the background.
func (d *Dispatcher) OnConnect(c *ws.Client) {
	userID := c.UserID()
	if userID == "" {
		d.logger.Warn("connection without identity", zap.String("connId", c.ID()))
		return
	}

	if err := d.registry.Register(userID, c.ID()); err != nil {
		d.logger.Error("failed to register connection",
			zap.String("connId", c.ID()), zap.String("userId", userID), zap.Error(err))
		return
	}

	c.Emit(ws.EventWelcome, welcomeMessage)

	for _, ch := range d.defaultChannels {
		d.hub.Join(c.ID(), pubsub.RoomFor(ch))
	}

	d.goTask(func() {
		for _, ch := range d.defaultChannels {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			err := d.bridge.Subscribe(ctx, ch)
			cancel()
			if err != nil {
				d.logger.Error("failed to auto-subscribe", zap.String("channel", ch), zap.Error(err))
				continue
			}
			d.logger.Debug("auto-subscribed", zap.String("connId", c.ID()), zap.String("channel", ch))
		}
	})
}

// OnDisconnect unregisters the connection. When it was the user's last one,
// every connection learns the user went offline. lastActiveAt is persisted
// in the background; failures are only logged.
func (d *Dispatcher) OnDisconnect(c *ws.Client) {
	userID := c.UserID()
	if userID == "" {
		return
	}

	if d.registry.Unregister(c.ID(), userID) {
		d.hub.BroadcastAll(ws.EventPresenceUpdate, userID, model.PresencePayload{Status: model.PresenceOffline})
	}

	at := d.now()
	d.goTask(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.users.UpdateUser(ctx, userID, model.UserPatch{LastActiveAt: &at}); err != nil {
			d.logger.Warn("failed to update lastActiveAt on disconnect", zap.String("userId", userID), zap.Error(err))
		}
	})
}

// OnEvent routes a frame to its handler. A panicking handler is contained
// to the frame that caused it.
func (d *Dispatcher) OnEvent(c *ws.Client, f *ws.Frame) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in event handler",
				zap.String("event", f.Event), zap.String("connId", c.ID()), zap.Any("panic", r))
			c.Emit(ws.EventError, model.CodeInternalError, "Internal error")
			c.Ack(f, false)
		}
	}()

	handler, ok := d.handlers[f.Event]
	if !ok {
		c.Emit(ws.EventError, model.CodeUnknownEvent, "Unknown event: "+f.Event)
		c.Ack(f, false)
		return
	}
	handler(c, f)
}

// Wait blocks until background tasks finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) goTask(fn func()) {
	d.tasks.Add(1)
	go func() {
		defer d.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("panic in background task", zap.Any("panic", r))
			}
		}()
		fn()
	}()
}

func decode(f *ws.Frame, v any) error {
	if len(f.Data) == 0 {
		return model.ErrValidation
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return model.ErrValidation
	}
	return nil
}

func (d *Dispatcher) reject(c *ws.Client, f *ws.Frame, code, message string) {
	c.Emit(ws.EventError, code, message)
	c.Ack(f, false)
}
