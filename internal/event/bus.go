package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Observer receives published events. Implementations must not depend on
// delivery order relative to other observers, and slow work (network
// alerting, batching) belongs on the observer's own goroutines.
type Observer interface {
	OnEvent(ctx context.Context, evt Event) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, evt Event) error

// OnEvent implements Observer for ObserverFunc.
func (fn ObserverFunc) OnEvent(ctx context.Context, evt Event) error {
	return fn(ctx, evt)
}

type subscriber struct {
	observer Observer
}

// Subscription identifies one bus registration and can cancel it.
type Subscription struct {
	bus  *Bus
	sub  *subscriber
	once sync.Once
}

// Unsubscribe removes the observer from the bus. Safe to call concurrently
// with Publish; the observer receives no events from publishes that start
// afterwards.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() { s.bus.remove(s.sub) })
}

// Bus is an in-process publish/subscribe fan-out for domain events.
//
// The subscriber list is copy-on-write: Publish iterates an immutable
// snapshot, so subscribe/unsubscribe during a delivery never blocks the
// publisher or corrupts iteration. Observer failures are isolated and
// logged; they never propagate to the publisher or roll back the
// transition that triggered the event.
type Bus struct {
	mu     sync.Mutex
	subs   []*subscriber
	logger *slog.Logger
}

// NewBus creates a bus. A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers an observer and returns its subscription handle.
func (b *Bus) Subscribe(observer Observer) *Subscription {
	if observer == nil {
		return &Subscription{}
	}
	sub := &subscriber{observer: observer}

	b.mu.Lock()
	next := make([]*subscriber, len(b.subs), len(b.subs)+1)
	copy(next, b.subs)
	b.subs = append(next, sub)
	b.mu.Unlock()

	return &Subscription{bus: b, sub: sub}
}

// Publish delivers the event to every observer subscribed at call time, in
// subscription order. Each observer invocation runs in its own failure
// boundary: an error or panic is logged and delivery continues.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.Lock()
	snapshot := b.subs
	b.mu.Unlock()

	for _, sub := range snapshot {
		b.deliver(ctx, sub.observer, evt)
	}
}

func (b *Bus) deliver(ctx context.Context, observer Observer, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panicked",
				"event_type", string(evt.Type),
				"recipient_id", evt.RecipientID,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := observer.OnEvent(ctx, evt); err != nil {
		b.logger.Error("observer failed",
			"event_type", string(evt.Type),
			"recipient_id", evt.RecipientID,
			"error", err,
		)
	}
}

func (b *Bus) remove(sub *subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s != sub {
			next = append(next, s)
		}
	}
	b.subs = next
}
