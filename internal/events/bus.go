// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package events implements the in-process print dispatch pipeline: a
// per-theater fan-out bus and the order lifecycle emitter that feeds it.
//
// The bus is deliberately not a queue. It holds no buffer and replays
// nothing: an event broadcast while a theater has no subscribers is gone.
// Print agents own reconnection and the server owns emitting; durability
// is not a property either side gets from this package.
package events

import (
	"sort"
	"sync"

	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/metrics"
	"github.com/yqpay/theaterpos/internal/models"
)

// Subscriber receives print events for one theater. Send must not block:
// implementations buffer internally and return an error when the buffer
// is full or the consumer is gone, which unsubscribes them.
type Subscriber interface {
	Send(models.PrintEvent) error
}

// Ticket identifies one registration and is what Unsubscribe takes.
type Ticket struct {
	theaterID string
	id        uint64
}

// Bus is the per-theater fan-out registry. All methods are safe for
// concurrent use. A single mutex serializes broadcasts, which is what
// gives each theater FIFO delivery ordering.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]Subscriber
	nextID uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]Subscriber)}
}

// Subscribe registers sub for theaterID and returns its ticket.
// Registering the same subscriber for the same theater twice returns
// the original ticket instead of double-delivering.
func (b *Bus) Subscribe(theaterID string, sub Subscriber) Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.subs[theaterID]
	if !ok {
		m = make(map[uint64]Subscriber)
		b.subs[theaterID] = m
	}
	for id, existing := range m {
		if existing == sub {
			return Ticket{theaterID: theaterID, id: id}
		}
	}

	b.nextID++
	id := b.nextID
	m[id] = sub

	metrics.SetBusSubscribers(theaterID, len(m))
	logging.Debug().
		Str("theater_id", theaterID).
		Uint64("subscriber_id", id).
		Int("subscribers", len(m)).
		Msg("subscriber registered")

	return Ticket{theaterID: theaterID, id: id}
}

// Unsubscribe removes the registration identified by t. Unsubscribing a
// ticket that was already removed is a no-op.
func (b *Bus) Unsubscribe(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(t.theaterID, t.id)
}

// removeLocked deletes one registration; caller holds b.mu.
func (b *Bus) removeLocked(theaterID string, id uint64) {
	m, ok := b.subs[theaterID]
	if !ok {
		return
	}
	if _, ok := m[id]; !ok {
		return
	}
	delete(m, id)
	if len(m) == 0 {
		delete(b.subs, theaterID)
	}
	metrics.SetBusSubscribers(theaterID, len(m))
	logging.Debug().
		Str("theater_id", theaterID).
		Uint64("subscriber_id", id).
		Msg("subscriber removed")
}

// Broadcast delivers ev to every current subscriber of theaterID and
// returns the number of successful deliveries. A subscriber whose Send
// fails is removed; the failure never aborts delivery to the others.
// Subscribers registered after Broadcast returns never see ev.
func (b *Bus) Broadcast(theaterID string, ev models.PrintEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.subs[theaterID]
	if len(m) == 0 {
		metrics.RecordBusBroadcast(theaterID, ev.Event, 0)
		return 0
	}

	// Deliver in registration order so two broadcasts hit the same
	// subscribers in the same sequence.
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	delivered := 0
	var failed []uint64
	for _, id := range ids {
		if err := m[id].Send(ev); err != nil {
			logging.Warn().
				Err(err).
				Str("theater_id", theaterID).
				Uint64("subscriber_id", id).
				Str("order_id", ev.OrderID).
				Msg("dropping subscriber after failed send")
			failed = append(failed, id)
			continue
		}
		delivered++
	}

	for _, id := range failed {
		b.removeLocked(theaterID, id)
		metrics.RecordBusSendFailure(theaterID)
	}

	metrics.RecordBusBroadcast(theaterID, ev.Event, delivered)
	return delivered
}

// SubscriberCount reports the current number of subscribers for a theater.
func (b *Bus) SubscriberCount(theaterID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[theaterID])
}
