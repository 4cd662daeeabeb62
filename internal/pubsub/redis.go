package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/event-radar/backend/internal/config"
)

// ErrBusClosed is returned by operations on a closed RedisBus.
var ErrBusClosed = errors.New("bus closed")

// RedisBus is a Bus over Redis PUBLISH/SUBSCRIBE. The client and the single
// subscriber connection are created on first use and shared by all channels.
// go-redis reconnects the subscriber and restores its subscriptions after a
// connection drop.
type RedisBus struct {
	cfg    config.RedisConfig
	logger *zap.Logger

	mu      sync.Mutex
	client  *redis.Client
	sub     *redis.PubSub
	handler func(channel string, payload []byte)
	closed  bool
	done    chan struct{}
}

// NewRedisBus creates a RedisBus. No connection is made until first use.
func NewRedisBus(cfg config.RedisConfig, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		cfg:    cfg,
		logger: logger.Named("redis"),
	}
}

// OnMessage sets the handler for messages on subscribed channels.
func (b *RedisBus) OnMessage(handler func(channel string, payload []byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = handler
}

func (b *RedisBus) clientLocked() (*redis.Client, error) {
	if b.closed {
		return nil, ErrBusClosed
	}
	if b.client != nil {
		return b.client, nil
	}

	opts, err := redis.ParseURL(b.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if b.cfg.Password != "" {
		opts.Password = b.cfg.Password
	}
	if b.cfg.DB != 0 {
		opts.DB = b.cfg.DB
	}
	opts.DialTimeout = 5 * time.Second
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 200 * time.Millisecond
	opts.MaxRetryBackoff = 2 * time.Second
	opts.OnConnect = func(ctx context.Context, cn *redis.Conn) error {
		b.logger.Info("connected", zap.String("addr", opts.Addr))
		return nil
	}

	b.client = redis.NewClient(opts)
	return b.client, nil
}

// Publish sends payload on channel.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	client, err := b.clientLocked()
	b.mu.Unlock()
	if err != nil {
		return err
	}

	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Error("publish failed", zap.String("channel", channel), zap.Error(err))
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe adds channel to the shared subscriber connection.
func (b *RedisBus) Subscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	client, err := b.clientLocked()
	if err != nil {
		return err
	}

	if b.sub == nil {
		sub := client.Subscribe(ctx, channel)
		// Wait for the confirmation so errors surface here and not in the loop.
		if _, err := sub.Receive(ctx); err != nil {
			sub.Close()
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
		b.sub = sub
		b.done = make(chan struct{})
		go b.receiveLoop(sub, b.done)
		return nil
	}

	if err := b.sub.Subscribe(ctx, channel); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe removes channel from the subscriber connection.
func (b *RedisBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if b.sub == nil {
		return nil
	}
	if err := b.sub.Unsubscribe(ctx, channel); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBus) receiveLoop(sub *redis.PubSub, done chan struct{}) {
	defer close(done)
	for msg := range sub.Channel() {
		b.dispatch(msg)
	}
	b.logger.Info("subscriber stopped")
}

func (b *RedisBus) dispatch(msg *redis.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic in message handler", zap.String("channel", msg.Channel), zap.Any("panic", r))
		}
	}()

	b.mu.Lock()
	handler := b.handler
	b.mu.Unlock()

	if handler != nil {
		handler(msg.Channel, []byte(msg.Payload))
	}
}

// Ping checks connectivity, creating the client if needed.
func (b *RedisBus) Ping(ctx context.Context) error {
	b.mu.Lock()
	client, err := b.clientLocked()
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return client.Ping(ctx).Err()
}

// Close tears down the subscriber and the client.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sub, client, done := b.sub, b.client, b.done
	b.sub, b.client = nil, nil
	b.mu.Unlock()

	var errs []error
	if sub != nil {
		errs = append(errs, sub.Close())
		<-done
	}
	if client != nil {
		errs = append(errs, client.Close())
		b.logger.Info("connection closed")
	}
	return errors.Join(errs...)
}
