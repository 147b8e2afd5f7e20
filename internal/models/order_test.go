// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package models

import (
	"testing"
)

func TestEffectiveSizeFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		item OrderItem
		want string
	}{
		{"originalQuantity wins", OrderItem{OriginalQuantity: "Large", Size: "L", SizeLabel: "big"}, "Large"},
		{"size second", OrderItem{Size: "L", ProductSize: "Regular"}, "L"},
		{"productSize third", OrderItem{ProductSize: "Regular", SizeLabel: "R"}, "Regular"},
		{"sizeLabel fourth", OrderItem{SizeLabel: "R", Variant: &Variant{Option: "Medium"}}, "R"},
		{"variant option fifth", OrderItem{Variant: &Variant{Option: "Medium"}, Variants: []Variant{{Option: "Small"}}}, "Medium"},
		{"variants head last", OrderItem{Variants: []Variant{{Option: "Small"}, {Option: "Tiny"}}}, "Small"},
		{"nothing set", OrderItem{}, ""},
		{"empty variant skipped", OrderItem{Variant: &Variant{}, Variants: []Variant{{Option: "Small"}}}, "Small"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.EffectiveSize(); got != tt.want {
				t.Errorf("EffectiveSize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectiveName(t *testing.T) {
	if got := (OrderItem{ProductName: "Cola", Name: "cola-legacy"}).EffectiveName(); got != "Cola" {
		t.Errorf("EffectiveName() = %q, want Cola", got)
	}
	if got := (OrderItem{Name: "Popcorn"}).EffectiveName(); got != "Popcorn" {
		t.Errorf("EffectiveName() = %q, want Popcorn", got)
	}
}

func TestEffectiveUnitPrice(t *testing.T) {
	tests := []struct {
		name string
		item OrderItem
		want float64
	}{
		{"unitPrice wins", OrderItem{UnitPrice: 150, Price: 120}, 150},
		{"price fallback", OrderItem{Price: 120}, 120},
		{"zero default", OrderItem{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.EffectiveUnitPrice(); got != tt.want {
				t.Errorf("EffectiveUnitPrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveQuantityDefaultsToOne(t *testing.T) {
	if got := (OrderItem{}).EffectiveQuantity(); got != 1 {
		t.Errorf("EffectiveQuantity() = %d, want 1", got)
	}
	if got := (OrderItem{Quantity: 3}).EffectiveQuantity(); got != 3 {
		t.Errorf("EffectiveQuantity() = %d, want 3", got)
	}
}

func TestEffectiveTotal(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  float64
	}{
		{"pricing total wins", Order{Pricing: &Pricing{Total: 450}, TotalAmount: 400}, 450},
		{"totalAmount fallback", Order{TotalAmount: 400}, 400},
		{"zero pricing falls through", Order{Pricing: &Pricing{}, TotalAmount: 400}, 400},
		{"all absent", Order{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.order.EffectiveTotal(); got != tt.want {
				t.Errorf("EffectiveTotal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaymentFinal(t *testing.T) {
	final := []string{PaymentStatusCompleted, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded}
	for _, s := range final {
		if !PaymentFinal(s) {
			t.Errorf("PaymentFinal(%q) = false, want true", s)
		}
	}
	for _, s := range []string{PaymentStatusPending, "", "unknown"} {
		if PaymentFinal(s) {
			t.Errorf("PaymentFinal(%q) = true, want false", s)
		}
	}
}
