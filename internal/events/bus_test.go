// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package events

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/models"
)

//nolint:gochecknoinits // silence logging for the whole test binary
func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// recordingSub collects delivered events; failing makes Send error.
type recordingSub struct {
	mu      sync.Mutex
	events  []models.PrintEvent
	failing bool
}

func (s *recordingSub) Send(ev models.PrintEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("send buffer full")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSub) received() []models.PrintEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PrintEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestBroadcastReachesOnlySameTheater(t *testing.T) {
	bus := NewBus()
	a := &recordingSub{}
	b := &recordingSub{}
	bus.Subscribe("theater-a", a)
	bus.Subscribe("theater-b", b)

	ev := models.NewPrintEvent(models.EventOrderPaid, "o-1", "theater-a")
	if got := bus.Broadcast("theater-a", ev); got != 1 {
		t.Fatalf("Broadcast() = %d, want 1", got)
	}

	if len(a.received()) != 1 {
		t.Errorf("theater-a subscriber got %d events, want 1", len(a.received()))
	}
	if len(b.received()) != 0 {
		t.Errorf("theater-b subscriber got %d events, want 0", len(b.received()))
	}
}

func TestBroadcastToAllSubscribersOfTheater(t *testing.T) {
	bus := NewBus()
	agent := &recordingSub{}
	console := &recordingSub{}
	bus.Subscribe("theater-a", agent)
	bus.Subscribe("theater-a", console)

	ev := models.NewPrintEvent(models.EventOrderCreated, "o-2", "theater-a")
	if got := bus.Broadcast("theater-a", ev); got != 2 {
		t.Fatalf("Broadcast() = %d, want 2", got)
	}
	if len(agent.received()) != 1 || len(console.received()) != 1 {
		t.Error("both theater-a subscribers should receive the event")
	}
}

func TestBroadcastWithNoSubscribers(t *testing.T) {
	bus := NewBus()
	ev := models.NewPrintEvent(models.EventOrderPaid, "o-3", "theater-a")
	if got := bus.Broadcast("theater-a", ev); got != 0 {
		t.Errorf("Broadcast() = %d, want 0", got)
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := NewBus()
	ev := models.NewPrintEvent(models.EventOrderPaid, "o-4", "theater-a")
	bus.Broadcast("theater-a", ev)

	late := &recordingSub{}
	bus.Subscribe("theater-a", late)
	if len(late.received()) != 0 {
		t.Error("subscriber registered after broadcast must not receive it")
	}

	bus.Broadcast("theater-a", models.NewPrintEvent(models.EventOrderPaid, "o-5", "theater-a"))
	got := late.received()
	if len(got) != 1 || got[0].OrderID != "o-5" {
		t.Errorf("late subscriber received %v, want only o-5", got)
	}
}

func TestFailedSendRemovesSubscriberWithoutAbortingOthers(t *testing.T) {
	bus := NewBus()
	bad := &recordingSub{failing: true}
	good := &recordingSub{}
	bus.Subscribe("theater-a", bad)
	bus.Subscribe("theater-a", good)

	ev := models.NewPrintEvent(models.EventOrderPaid, "o-6", "theater-a")
	if got := bus.Broadcast("theater-a", ev); got != 1 {
		t.Fatalf("Broadcast() = %d, want 1", got)
	}
	if len(good.received()) != 1 {
		t.Error("healthy subscriber should receive despite sibling failure")
	}
	if got := bus.SubscriberCount("theater-a"); got != 1 {
		t.Errorf("SubscriberCount() = %d, want 1 after failed subscriber removed", got)
	}

	// The removed subscriber gets nothing further even if it recovers.
	bad.mu.Lock()
	bad.failing = false
	bad.mu.Unlock()
	bus.Broadcast("theater-a", ev)
	if len(bad.received()) != 0 {
		t.Error("removed subscriber must not receive later events")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := &recordingSub{}
	ticket := bus.Subscribe("theater-a", sub)
	bus.Unsubscribe(ticket)
	bus.Unsubscribe(ticket) // double unsubscribe is a no-op

	bus.Broadcast("theater-a", models.NewPrintEvent(models.EventOrderPaid, "o-7", "theater-a"))
	if len(sub.received()) != 0 {
		t.Error("unsubscribed subscriber must not receive events")
	}
	if got := bus.SubscriberCount("theater-a"); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}

func TestSubscribeIdempotentPerTheater(t *testing.T) {
	bus := NewBus()
	sub := &recordingSub{}
	t1 := bus.Subscribe("theater-a", sub)
	t2 := bus.Subscribe("theater-a", sub)
	if t1 != t2 {
		t.Fatal("re-registering the same subscriber must return the original ticket")
	}
	if got := bus.SubscriberCount("theater-a"); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}

	bus.Broadcast("theater-a", models.NewPrintEvent(models.EventOrderPaid, "o-8", "theater-a"))
	if len(sub.received()) != 1 {
		t.Errorf("subscriber got %d deliveries, want 1", len(sub.received()))
	}

	// Same subscriber on a different theater is a separate registration.
	t3 := bus.Subscribe("theater-b", sub)
	if t3 == t1 {
		t.Error("registration on another theater must produce a new ticket")
	}
}

func TestBroadcastOrderingPerTheater(t *testing.T) {
	bus := NewBus()
	sub := &recordingSub{}
	bus.Subscribe("theater-a", sub)

	for _, id := range []string{"o-1", "o-2", "o-3"} {
		bus.Broadcast("theater-a", models.NewPrintEvent(models.EventOrderPaid, id, "theater-a"))
	}

	got := sub.received()
	if len(got) != 3 {
		t.Fatalf("received %d events, want 3", len(got))
	}
	for i, want := range []string{"o-1", "o-2", "o-3"} {
		if got[i].OrderID != want {
			t.Errorf("event %d = %s, want %s", i, got[i].OrderID, want)
		}
	}
}

func TestConcurrentSubscribeBroadcast(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &recordingSub{}
			ticket := bus.Subscribe("theater-a", sub)
			bus.Broadcast("theater-a", models.NewPrintEvent(models.EventOrderPaid, "o-c", "theater-a"))
			bus.Unsubscribe(ticket)
		}()
	}
	wg.Wait()
	if got := bus.SubscriberCount("theater-a"); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0 after all unsubscribed", got)
	}
}
