// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package events

import (
	"testing"

	"github.com/yqpay/theaterpos/internal/models"
)

func TestEligibleOnCreate(t *testing.T) {
	tests := []struct {
		method string
		status string
		want   bool
	}{
		{"cash", "completed", true},
		{"cash", "paid", true},
		{"cod", "completed", true},
		{"cod", "paid", true},
		{"cash", "pending", false},
		{"cod", "pending", false},
		{"upi", "completed", false},
		{"upi", "paid", false},
		{"card", "completed", false},
		{"upi", "pending", false},
		{"", "", false},
		{"cash", "", false},
		{"", "completed", false},
		// mixed case from older frontends
		{"Cash", "Completed", true},
		{"COD", "PAID", true},
		{"UPI", "Completed", false},
	}
	for _, tt := range tests {
		if got := EligibleOnCreate(tt.method, tt.status); got != tt.want {
			t.Errorf("EligibleOnCreate(%q, %q) = %v, want %v", tt.method, tt.status, got, tt.want)
		}
	}
}

func testOrder(method, status string) *models.Order {
	return &models.Order{
		ID:          "ord-1",
		TheaterID:   "theater-a",
		OrderNumber: "1042",
		Payment:     models.Payment{Method: method, Status: status},
	}
}

func TestOrderCreatedEmitsOnlyWhenEligible(t *testing.T) {
	bus := NewBus()
	sub := &recordingSub{}
	bus.Subscribe("theater-a", sub)
	em := NewEmitter(bus)

	// Cash counter sale: created event fires.
	em.OrderCreated(testOrder("cash", "completed"))
	got := sub.received()
	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0].Event != models.EventOrderCreated || got[0].Type != models.EventTypePOSOrder {
		t.Errorf("unexpected event %+v", got[0])
	}

	// UPI order still pending: nothing fires on create.
	em.OrderCreated(testOrder("upi", "pending"))
	if len(sub.received()) != 1 {
		t.Error("pending online order must not emit a created event")
	}
}

func TestOrderPaidAlwaysEmits(t *testing.T) {
	bus := NewBus()
	sub := &recordingSub{}
	bus.Subscribe("theater-a", sub)
	em := NewEmitter(bus)

	em.OrderPaid(testOrder("upi", "completed"))
	got := sub.received()
	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0].Event != models.EventOrderPaid {
		t.Errorf("event = %q, want %q", got[0].Event, models.EventOrderPaid)
	}
	if got[0].OrderID != "ord-1" || got[0].TheaterID != "theater-a" {
		t.Errorf("event carries wrong pointer: %+v", got[0])
	}
}

func TestEmitWithNoSubscribersDoesNotPanic(t *testing.T) {
	em := NewEmitter(NewBus())
	em.OrderCreated(testOrder("cash", "completed"))
	em.OrderPaid(testOrder("upi", "completed"))
}
