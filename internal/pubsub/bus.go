// Package pubsub bridges local room broadcast to a cross-process message bus.
package pubsub

import "context"

// Bus is a process-wide publish/subscribe transport. Messages arriving on
// any subscribed channel are handed to the OnMessage handler.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) error
	Unsubscribe(ctx context.Context, channel string) error
	OnMessage(handler func(channel string, payload []byte))
	Close() error
}
