package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/model"
)

const (
	roomPrefix  = "notification:"
	lockStripes = 16

	// EventNotificationNew is the event delivered to local connections.
	EventNotificationNew = "notification:new"
)

// Router delivers an event to the local members of a room, skipping
// connections owned by userID.
type Router interface {
	BroadcastExceptUser(room, userID string, event string, args ...any) int
}

// RoomFor returns the local room that mirrors a bus channel.
func RoomFor(channel string) string {
	return roomPrefix + channel
}

// Bridge makes Publish and Subscribe behave the same with or without a bus.
// With a bus, the bus stream is the only delivery path, including back to
// this process. Without one, Publish delivers to local rooms directly.
type Bridge struct {
	bus    Bus
	router Router
	logger *zap.Logger

	mu         sync.Mutex
	subscribed map[string]struct{}

	// stripes serialize subscribe/unsubscribe per channel.
	stripes [lockStripes]sync.Mutex
}

// NewBridge creates a Bridge. bus may be nil for single-process deployments;
// pass an untyped nil, not a nil pointer.
func NewBridge(bus Bus, router Router, logger *zap.Logger) *Bridge {
	b := &Bridge{
		bus:        bus,
		router:     router,
		logger:     logger.Named("pubsub"),
		subscribed: make(map[string]struct{}),
	}
	if bus != nil {
		bus.OnMessage(b.handleBusMessage)
	}
	return b
}

// HasBus reports whether a bus is configured.
func (b *Bridge) HasBus() bool {
	return b.bus != nil
}

func (b *Bridge) stripe(channel string) *sync.Mutex {
	return &b.stripes[xxhash.Sum64String(channel)%lockStripes]
}

func (b *Bridge) isSubscribed(channel string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.subscribed[channel]
	return ok
}

// Subscribe ensures this process receives bus messages for channel.
// Repeated calls have no further effect.
func (b *Bridge) Subscribe(ctx context.Context, channel string) error {
	lock := b.stripe(channel)
	lock.Lock()
	defer lock.Unlock()

	if b.isSubscribed(channel) {
		return nil
	}

	if b.bus != nil {
		if err := b.bus.Subscribe(ctx, channel); err != nil {
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
	}

	b.mu.Lock()
	b.subscribed[channel] = struct{}{}
	b.mu.Unlock()

	b.logger.Debug("subscribed", zap.String("channel", channel), zap.Bool("bus", b.bus != nil))
	return nil
}

// Unsubscribe stops receiving bus messages for channel; a no-op when not
// subscribed.
func (b *Bridge) Unsubscribe(ctx context.Context, channel string) error {
	lock := b.stripe(channel)
	lock.Lock()
	defer lock.Unlock()

	if !b.isSubscribed(channel) {
		return nil
	}

	if b.bus != nil {
		if err := b.bus.Unsubscribe(ctx, channel); err != nil {
			return fmt.Errorf("unsubscribe %s: %w", channel, err)
		}
	}

	b.mu.Lock()
	delete(b.subscribed, channel)
	b.mu.Unlock()
	return nil
}

// Subscribed returns the sorted set of subscribed channels.
func (b *Bridge) Subscribed() []string {
	b.mu.Lock()
	channels := make([]string, 0, len(b.subscribed))
	for ch := range b.subscribed {
		channels = append(channels, ch)
	}
	b.mu.Unlock()

	sort.Strings(channels)
	return channels
}

// Publish sends msg on channel. Failures wrap model.ErrPublishFailed and
// are not retried.
func (b *Bridge) Publish(ctx context.Context, channel string, msg *model.NotificationMessage) error {
	if b.bus == nil {
		b.deliver(channel, msg)
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", model.ErrPublishFailed, err)
	}
	if err := b.bus.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPublishFailed, err)
	}
	return nil
}

func (b *Bridge) deliver(channel string, msg *model.NotificationMessage) {
	n := b.router.BroadcastExceptUser(RoomFor(channel), msg.CreatorID(), EventNotificationNew, msg)
	b.logger.Debug("delivered notification",
		zap.String("channel", channel),
		zap.String("id", msg.ID),
		zap.Int("recipients", n))
}

// handleBusMessage runs on the bus receive goroutine. Bad payloads are
// dropped so later messages keep flowing.
func (b *Bridge) handleBusMessage(channel string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic handling bus message", zap.String("channel", channel), zap.Any("panic", r))
		}
	}()

	var msg model.NotificationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("dropping undecodable bus message", zap.String("channel", channel), zap.Error(err))
		return
	}
	b.deliver(channel, &msg)
}
