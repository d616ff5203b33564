// Package events carries media element notifications (canplay, play,
// pause, timeupdate, ended) to subscribers.
package events

import (
	"log/slog"
	"sync"
)

// Type names a media event.
type Type string

const (
	CanPlay    Type = "canplay"
	Play       Type = "play"
	Pause      Type = "pause"
	TimeUpdate Type = "timeupdate"
	Ended      Type = "ended"
)

// Event is a single notification from a media element.
type Event struct {
	Type Type
	// Progress is currentTime/duration for TimeUpdate events, in [0,1].
	Progress float64
}

// Handler receives events. Handlers run on the publishing goroutine and
// must not block.
type Handler func(Event)

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus is a synchronous publish/subscribe list. Handlers are called in
// subscription order. Safe for concurrent use.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[Type][]subscription
	nextID SubscriptionID
	closed bool
}

// NewBus creates an empty bus. logger may be nil.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[Type][]subscription),
	}
}

// Publish delivers e to every subscriber of e.Type. A panicking handler is
// recovered and logged; remaining handlers still run.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]subscription, len(b.subs[e.Type]))
	copy(subs, b.subs[e.Type])
	b.mu.RUnlock()

	for _, s := range subs {
		b.call(s.handler, e)
	}
}

func (b *Bus) call(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(e.Type)))
		}
	}()
	h(e)
}

// Subscribe registers h for events of type t. Subscribing to a closed bus
// returns 0 and never delivers.
func (b *Bus) Subscribe(t Type, h Handler) SubscriptionID {
	if h == nil {
		panic("events: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}
	b.nextID++
	b.subs[t] = append(b.subs[t], subscription{id: b.nextID, handler: h})
	return b.nextID
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, subs := range b.subs {
		for i, s := range subs {
			if s.id == id {
				b.subs[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}

// Close drops all subscriptions. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[Type][]subscription)
}
