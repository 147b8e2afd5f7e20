// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package events

import (
	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/metrics"
	"github.com/yqpay/theaterpos/internal/models"
)

// Emitter classifies order lifecycle moments into print events and
// broadcasts them. It never returns errors: print dispatch is best-effort
// and must not fail the order mutation that triggered it.
type Emitter struct {
	bus *Bus
}

// NewEmitter creates an emitter publishing to bus.
func NewEmitter(bus *Bus) *Emitter {
	return &Emitter{bus: bus}
}

// OrderCreated fires after an order is persisted. It emits a created
// event only when the order settled at the counter (EligibleOnCreate);
// everything else waits for payment verification.
func (e *Emitter) OrderCreated(order *models.Order) {
	if !EligibleOnCreate(order.Payment.Method, order.Payment.Status) {
		logging.Debug().
			Str("theater_id", order.TheaterID).
			Str("order_id", order.ID).
			Str("method", order.Payment.Method).
			Str("status", order.Payment.Status).
			Msg("created order not print-eligible, awaiting payment")
		return
	}
	e.publish(models.NewPrintEvent(models.EventOrderCreated, order.ID, order.TheaterID))
}

// OrderPaid fires after payment verification settles an order. Paid
// events always publish.
func (e *Emitter) OrderPaid(order *models.Order) {
	e.publish(models.NewPrintEvent(models.EventOrderPaid, order.ID, order.TheaterID))
}

func (e *Emitter) publish(ev models.PrintEvent) {
	delivered := e.bus.Broadcast(ev.TheaterID, ev)
	if delivered == 0 {
		// No agent online. Informational: the order flow is unaffected.
		logging.Info().
			Str("theater_id", ev.TheaterID).
			Str("order_id", ev.OrderID).
			Str("event", ev.Event).
			Msg("print event had no subscribers")
		return
	}
	logging.Info().
		Str("theater_id", ev.TheaterID).
		Str("order_id", ev.OrderID).
		Str("event", ev.Event).
		Int("delivered", delivered).
		Msg("print event dispatched")
	metrics.RecordPrintEvent(ev.TheaterID, ev.Event)
}
