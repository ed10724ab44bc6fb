// Package redis publishes new-match events as JSON on a Redis pub/sub
// channel.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/zulandar/jobyard/internal/notify"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "jobyard.matches"

// publisher abstracts the go-redis client methods we use, enabling test mocks.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

// Notifier implements notify.Notifier over Redis pub/sub.
type Notifier struct {
	client  publisher
	channel string
}

// Opts holds parameters for creating a Redis Notifier.
type Opts struct {
	Addr    string
	Channel string
	// For testing: inject a mock client.
	Client publisher
}

// New creates a Redis Notifier. The connection is established lazily.
func New(opts Opts) (*Notifier, error) {
	if opts.Client == nil && opts.Addr == "" {
		return nil, fmt.Errorf("redis: addr is required")
	}
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	client := opts.Client
	if client == nil {
		client = goredis.NewClient(&goredis.Options{Addr: opts.Addr})
	}
	return &Notifier{client: client, channel: opts.Channel}, nil
}

// Notify implements notify.Notifier.
func (n *Notifier) Notify(ctx context.Context, e notify.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis: encode event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish to %s: %w", n.channel, err)
	}
	return nil
}

// Close releases the client connection pool.
func (n *Notifier) Close() error {
	return n.client.Close()
}
