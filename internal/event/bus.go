// Package event implements the in-process publish/subscribe bus that
// GridHealth plugins use to exchange fleet, telemetry and health
// events.
package event

import (
	"context"
	"sort"
	"sync"

	"github.com/Arwindpianist/gridhealth/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

// wildcard is the internal topic key for SubscribeAll handlers.
const wildcard = "*"

// Bus routes events between plugins in-process. Publish runs handlers
// in the caller's goroutine; PublishAsync fans each handler out to its
// own goroutine. A handler panic is logged and never reaches the
// publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]plugin.EventHandler // topic -> id -> handler
	lastID uint64
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[string]map[uint64]plugin.EventHandler),
		logger: logger,
	}
}

// Publish delivers the event to its topic's subscribers and to
// SubscribeAll handlers, in subscription order.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	for _, h := range b.snapshot(event.Topic) {
		b.dispatch(ctx, h, event)
	}
	return nil
}

// PublishAsync delivers the event without blocking the caller.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	for _, h := range b.snapshot(event.Topic) {
		go b.dispatch(ctx, h, event)
	}
}

// Subscribe registers handler for one topic and returns its
// unsubscribe function.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func()) {
	return b.add(topic, handler)
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) (unsubscribe func()) {
	return b.add(wildcard, handler)
}

func (b *Bus) add(topic string, handler plugin.EventHandler) func() {
	b.mu.Lock()
	b.lastID++
	id := b.lastID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]plugin.EventHandler)
	}
	b.subs[topic][id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs[topic], id)
		b.mu.Unlock()
	}
}

// snapshot collects the handlers a topic's event must reach, ordered
// by subscription id so delivery order is stable. The returned slice
// is safe to iterate without holding the lock.
func (b *Bus) snapshot(topic string) []plugin.EventHandler {
	b.mu.RLock()
	byID := make(map[uint64]plugin.EventHandler, len(b.subs[topic])+len(b.subs[wildcard]))
	for id, h := range b.subs[topic] {
		byID[id] = h
	}
	if topic != wildcard {
		for id, h := range b.subs[wildcard] {
			byID[id] = h
		}
	}
	b.mu.RUnlock()

	ids := make([]uint64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	handlers := make([]plugin.EventHandler, len(ids))
	for i, id := range ids {
		handlers[i] = byID[id]
	}
	return handlers
}

func (b *Bus) dispatch(ctx context.Context, handler plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.String("source", event.Source),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
}
