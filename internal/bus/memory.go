// ABOUTME: In-process implementation of the relay bus.
// ABOUTME: Used by tests and single-instance deployments with no Redis.

package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus. Messages published to a topic are
// dispatched to that topic's handlers on a single goroutine per topic, which
// preserves the serial-per-topic delivery contract.
type MemoryBus struct {
	mu     sync.Mutex
	topics map[string]*memoryTopic
	closed bool
}

type memoryTopic struct {
	mu       sync.Mutex
	handlers []func(payload string)
	queue    chan string
	done     chan struct{}
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{topics: make(map[string]*memoryTopic)}
}

// Publish enqueues the payload for the topic's dispatcher. Publishing to a
// topic nobody subscribed to is a no-op.
func (b *MemoryBus) Publish(ctx context.Context, topic, payload string) error {
	b.mu.Lock()
	t, ok := b.topics[topic]
	closed := b.closed
	b.mu.Unlock()
	if !ok || closed {
		return nil
	}
	select {
	case t.queue <- payload:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Subscribe registers a handler for a topic, starting its dispatcher on
// first use.
func (b *MemoryBus) Subscribe(topic string, handler func(payload string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	t, ok := b.topics[topic]
	if !ok {
		t = &memoryTopic{
			queue: make(chan string, 64),
			done:  make(chan struct{}),
		}
		b.topics[topic] = t
		go t.dispatch()
	}
	t.mu.Lock()
	t.handlers = append(t.handlers, handler)
	t.mu.Unlock()
}

func (t *memoryTopic) dispatch() {
	for {
		select {
		case payload := <-t.queue:
			t.mu.Lock()
			handlers := make([]func(string), len(t.handlers))
			copy(handlers, t.handlers)
			t.mu.Unlock()
			for _, h := range handlers {
				h(payload)
			}
		case <-t.done:
			return
		}
	}
}

// Close stops all topic dispatchers.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, t := range b.topics {
		close(t.done)
	}
	return nil
}
