// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yqpay/theaterpos/internal/events"
	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/models"
	"github.com/yqpay/theaterpos/internal/printer"
	"github.com/yqpay/theaterpos/internal/receipt"
)

// dedupeTTL bounds how long an order ID suppresses repeat prints. A
// created event followed later by a paid event for the same online
// order is outside this window in practice; duplicate deliveries from
// reconnects are inside it.
const dedupeTTL = 10 * time.Minute

// Dispatcher turns one stream event into one printed receipt: fetch the
// order, re-check that it should print, render, drive the printer.
type Dispatcher struct {
	client    *Client
	theaterID string
	driver    printer.Driver
	render    func(*models.Order) ([]byte, error)

	mu      sync.Mutex
	printed map[string]time.Time
}

// NewDispatcher builds a dispatcher for one theater's events. USB jobs
// carry raw ESC/POS bytes; the OS spooler gets the plain-text layout.
func NewDispatcher(client *Client, theaterID string, driver printer.Driver) *Dispatcher {
	render := receipt.RenderESCPOS
	if driver.Name() == "system" {
		render = func(o *models.Order) ([]byte, error) {
			return []byte(receipt.Render(o)), nil
		}
	}
	return &Dispatcher{
		client:    client,
		theaterID: theaterID,
		driver:    driver,
		render:    render,
		printed:   make(map[string]time.Time),
	}
}

// Handle processes one stream event. Failures are logged and the event
// abandoned; the next event must not be blocked by this one. A panic in
// rendering or the driver is contained the same way.
func (d *Dispatcher) Handle(ctx context.Context, ev models.PrintEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.unmark(ev.OrderID)
			logging.Error().
				Interface("panic", r).
				Str("orderId", ev.OrderID).
				Msg("print dispatch panicked, event abandoned")
		}
	}()

	if !d.markPrinted(ev.OrderID) {
		logging.Debug().Str("orderId", ev.OrderID).Msg("duplicate print event suppressed")
		return
	}

	order, err := d.client.FetchOrder(ctx, d.theaterID, ev.OrderID)
	if err != nil {
		d.unmark(ev.OrderID) // let a redelivery retry the fetch
		if errors.Is(err, ErrUnauthorized) {
			logging.Warn().Str("orderId", ev.OrderID).Msg("order fetch unauthorized, will re-login")
		} else {
			logging.Error().Err(err).Str("orderId", ev.OrderID).Msg("order fetch failed, event abandoned")
		}
		return
	}

	// The created event is emitted for counter sales only, but the
	// order is re-checked here: a stale or replayed event must not
	// print an online order that has not been paid.
	if ev.Event == models.EventOrderCreated &&
		!events.EligibleOnCreate(order.Payment.Method, order.Payment.Status) {
		// Leave no mark behind: a paid event for this order may follow
		// within the dedupe window and must still print.
		d.unmark(ev.OrderID)
		logging.Info().
			Str("orderId", ev.OrderID).
			Str("method", order.Payment.Method).
			Str("status", order.Payment.Status).
			Msg("order not print-eligible on re-check, skipping")
		return
	}

	job, err := d.render(order)
	if err != nil {
		d.unmark(ev.OrderID)
		logging.Error().Err(err).Str("orderId", ev.OrderID).Msg("receipt encoding failed, event abandoned")
		return
	}

	if err := d.driver.Print(ctx, job); err != nil {
		d.unmark(ev.OrderID)
		logging.Error().
			Err(err).
			Str("orderId", ev.OrderID).
			Str("driver", d.driver.Name()).
			Msg("print failed, event abandoned")
		return
	}

	logging.Info().
		Str("orderId", ev.OrderID).
		Str("orderNumber", order.OrderNumber).
		Str("event", ev.Event).
		Msg("receipt printed")
}

// markPrinted records the order as printed and reports whether it was
// new. Entries older than the TTL are pruned on the way through.
func (d *Dispatcher) markPrinted(orderID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for id, at := range d.printed {
		if now.Sub(at) > dedupeTTL {
			delete(d.printed, id)
		}
	}
	if at, seen := d.printed[orderID]; seen && now.Sub(at) <= dedupeTTL {
		return false
	}
	d.printed[orderID] = now
	return true
}

func (d *Dispatcher) unmark(orderID string) {
	d.mu.Lock()
	delete(d.printed, orderID)
	d.mu.Unlock()
}
