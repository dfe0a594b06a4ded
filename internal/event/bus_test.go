package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
	err    error
	panics bool
}

func (o *recordingObserver) OnEvent(_ context.Context, evt Event) error {
	o.mu.Lock()
	o.events = append(o.events, evt)
	o.mu.Unlock()
	if o.panics {
		panic("observer exploded")
	}
	return o.err
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

func testEvent() Event {
	return Event{
		Type:        TypeBookingRequest,
		RecipientID: "manager-1",
		SenderID:    "alice",
		TitleKey:    "notification.booking_request.title",
		MessageKey:  "notification.booking_request.message",
		Metadata:    map[string]string{"BookingID": "booking-1"},
		Timestamp:   time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(slog.New(slog.DiscardHandler))
	first := &recordingObserver{}
	second := &recordingObserver{}
	bus.Subscribe(first)
	bus.Subscribe(second)

	bus.Publish(context.Background(), testEvent())

	if first.count() != 1 || second.count() != 1 {
		t.Fatalf("expected both observers to receive the event, got %d/%d", first.count(), second.count())
	}
}

func TestFailingObserverDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	bus := NewBus(slog.New(slog.DiscardHandler))
	failing := &recordingObserver{err: errors.New("boom")}
	panicking := &recordingObserver{panics: true}
	healthy := &recordingObserver{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	bus.Publish(context.Background(), testEvent())

	if healthy.count() != 1 {
		t.Fatalf("expected healthy observer to receive the event, got %d", healthy.count())
	}
}

func TestUnsubscribeStopsFutureDeliveries(t *testing.T) {
	t.Parallel()

	bus := NewBus(slog.New(slog.DiscardHandler))
	observer := &recordingObserver{}
	sub := bus.Subscribe(observer)

	bus.Publish(context.Background(), testEvent())
	sub.Unsubscribe()
	sub.Unsubscribe() // double unsubscribe is a no-op
	bus.Publish(context.Background(), testEvent())

	if observer.count() != 1 {
		t.Fatalf("expected exactly one delivery, got %d", observer.count())
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	t.Parallel()

	bus := NewBus(slog.New(slog.DiscardHandler))
	late := &recordingObserver{}
	var lateSub *Subscription

	// The first observer unsubscribes the second mid-delivery. The running
	// publish iterates its snapshot, but the next publish must skip it.
	bus.Subscribe(ObserverFunc(func(context.Context, Event) error {
		lateSub.Unsubscribe()
		return nil
	}))
	lateSub = bus.Subscribe(late)

	bus.Publish(context.Background(), testEvent())
	firstRound := late.count()
	bus.Publish(context.Background(), testEvent())

	if late.count() != firstRound {
		t.Fatalf("expected no deliveries after mid-publish unsubscribe, got %d then %d", firstRound, late.count())
	}
}

func TestConcurrentSubscribePublish(t *testing.T) {
	t.Parallel()

	bus := NewBus(slog.New(slog.DiscardHandler))
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := bus.Subscribe(&recordingObserver{})
			sub.Unsubscribe()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), testEvent())
		}()
	}
	wg.Wait()
}

func TestDedupeKey(t *testing.T) {
	t.Parallel()

	evt := testEvent()
	if got := evt.DedupeKey(); got != "booking.request:booking-1:manager-1" {
		t.Fatalf("unexpected dedupe key %q", got)
	}

	changed := Event{
		Type:        TypeStatusChanged,
		RecipientID: "alice",
		Metadata:    map[string]string{"MatchID": "match-1", "Status": "CANCELLED"},
	}
	if got := changed.DedupeKey(); got != "status.changed:match-1:alice:CANCELLED" {
		t.Fatalf("unexpected dedupe key %q", got)
	}
}
