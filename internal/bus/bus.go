package bus

import (
	"log/slog"
	"sync"
)

// Kind identifies the type of change carried by an event
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Event is a row-level change notification. New carries the changed
// value (the last known value for deletes); Old carries the previous
// value for updates and deletes, and is zero for inserts.
type Event[T any] struct {
	Kind Kind
	New  T
	Old  T
}

// Filter decides whether a subscriber receives an event
type Filter[T any] func(Event[T]) bool

// subscriberBuffer is the per-subscription channel capacity. Events are
// dropped for a subscriber whose buffer is full rather than blocking
// the publisher.
const subscriberBuffer = 64

// Subscription is a live feed of change events. Close must be called
// when done; a dangling subscription is a resource leak.
type Subscription[T any] struct {
	bus    *Bus[T]
	ch     chan Event[T]
	filter Filter[T]

	closeOnce sync.Once
}

// Events returns the subscription's event channel. The channel is
// closed when the subscription or the bus shuts down.
func (s *Subscription[T]) Events() <-chan Event[T] {
	return s.ch
}

// Close tears down the subscription
func (s *Subscription[T]) Close() {
	s.bus.unsubscribe(s)
}

// Bus fans out change events for a single entity type to any number of
// filtered subscribers.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   map[*Subscription[T]]struct{}
	closed bool
	logger *slog.Logger
	name   string
}

// New creates a new Bus. The name is used for logging only.
func New[T any](name string, logger *slog.Logger) *Bus[T] {
	return &Bus[T]{
		subs:   make(map[*Subscription[T]]struct{}),
		logger: logger.With(slog.String("bus", name)),
		name:   name,
	}
}

// Subscribe registers a new subscription. A nil filter receives every
// event.
func (b *Bus[T]) Subscribe(filter Filter[T]) *Subscription[T] {
	sub := &Subscription[T]{
		bus:    b,
		ch:     make(chan Event[T], subscriberBuffer),
		filter: filter,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Publish delivers an event to every matching subscriber. Delivery is
// non-blocking: a subscriber with a full buffer misses the event.
func (b *Bus[T]) Publish(ev Event[T]) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for sub := range b.subs {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("change event dropped - subscriber buffer full",
				slog.String("kind", string(ev.Kind)))
		}
	}
}

// Close shuts down the bus and every open subscription
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		sub.closeLocked()
		delete(b.subs, sub)
	}
}

// SubscriberCount returns the number of open subscriptions
func (b *Bus[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus[T]) unsubscribe(sub *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		sub.closeLocked()
	}
}

func (s *Subscription[T]) closeLocked() {
	s.closeOnce.Do(func() {
		close(s.ch)
	})
}
