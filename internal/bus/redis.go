// ABOUTME: Redis pub/sub implementation of the relay bus.
// ABOUTME: One listener goroutine per topic; reconnects are handled by the client.

package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over Redis pub/sub. Each Subscribe call owns a
// dedicated goroutine consuming that topic's channel for the life of the
// process; Close tears all of them down.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger

	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeWg sync.WaitGroup
}

// RedisOptions holds the connection settings for the shared Redis.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// NewRedisBus connects to Redis and verifies the connection with a ping.
func NewRedisBus(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*RedisBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return &RedisBus{
		client: client,
		logger: logger.With("component", "bus"),
	}, nil
}

// Client exposes the underlying connection for components that share it,
// such as the session directory.
func (b *RedisBus) Client() *redis.Client {
	return b.client
}

// Publish sends a payload on a topic. The error is returned for logging
// only; callers on the chat path must not fail or block on it.
func (b *RedisBus) Publish(ctx context.Context, topic, payload string) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts a listener for the topic. The handler is invoked serially
// for each message; the client transparently resubscribes after connection
// loss, during which messages are simply missed.
func (b *RedisBus) Subscribe(topic string, handler func(payload string)) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	sub := b.client.Subscribe(context.Background(), topic)
	b.subs = append(b.subs, sub)
	b.closeWg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.closeWg.Done()
		for msg := range sub.Channel() {
			handler(msg.Payload)
		}
		b.logger.Debug("listener stopped", "topic", topic)
	}()

	b.logger.Info("subscribed", "topic", topic)
}

// Close shuts down all listeners and the client connection.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	b.closeWg.Wait()
	return b.client.Close()
}
