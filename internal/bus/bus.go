package bus

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Bus is an in-process publish/subscribe hub. Subscribers select events by
// topic prefix.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	next   uint64
	closed bool
}

// Subscription is a registered receiver. C is closed by Close or by Bus.Close.
type Subscription struct {
	C <-chan Event

	bus    *Bus
	id     uint64
	prefix string
	ch     chan Event
	once   sync.Once

	dropped atomic.Uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

// Publish delivers evt to every subscription whose prefix matches evt.Topic.
// Delivery never blocks: a subscriber with a full buffer misses the event
// and its Dropped count grows. It returns the number of subscribers that received it.
func (b *Bus) Publish(evt Event) int {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, sub := range b.subs {
		if !strings.HasPrefix(evt.Topic, sub.prefix) {
			continue
		}
		select {
		case sub.ch <- evt:
			delivered++
		default:
			sub.dropped.Add(1)
		}
	}
	return delivered
}

// Subscribe registers a receiver for topics starting with prefix.
// bufSize is the channel capacity.
func (b *Bus) Subscribe(prefix string, bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, bus: b, prefix: prefix, ch: ch}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		sub.once.Do(func() {})
		return sub
	}
	sub.id = b.next
	b.next++
	b.subs[sub.id] = sub
	return sub
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops every subscription and rejects new ones.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*Subscription)
	b.closed = true
	b.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
}

// Close unregisters the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

// Dropped returns how many events were missed because C was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}
