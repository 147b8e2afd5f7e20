// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package models defines the domain types shared between the POS server
// and the print agent: orders, print events, printer configuration, users
// and the API response envelope.
package models

import (
	"time"
)

// Payment method and status values. Historical orders may carry other
// strings; comparisons are always against these canonical lowercase forms.
const (
	PaymentMethodCash = "cash"
	PaymentMethodCOD  = "cod"
	PaymentMethodUPI  = "upi"
	PaymentMethodCard = "card"

	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Order is a concession or ticket order belonging to exactly one theater.
// The JSON field names match the wire format POS counters and payment
// callbacks produce; several fields exist only as legacy fallbacks and
// the Effective* accessors encode the resolution order.
type Order struct {
	ID          string      `json:"id"`
	TheaterID   string      `json:"theaterId" validate:"required"`
	OrderNumber string      `json:"orderNumber" validate:"required"`
	Items       []OrderItem `json:"items"`
	Pricing     *Pricing    `json:"pricing,omitempty"`
	TotalAmount float64     `json:"totalAmount,omitempty"`
	Payment     Payment     `json:"payment"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Pricing is the itemized money block newer orders carry.
type Pricing struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax,omitempty"`
	Total    float64 `json:"total"`
}

// Payment carries the method and settlement status of an order.
type Payment struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

// OrderItem is a single line of an order. Size and unit price appear
// under different keys depending on which frontend created the order.
type OrderItem struct {
	ProductName string  `json:"productName,omitempty"`
	Name        string  `json:"name,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice,omitempty"`
	Price       float64 `json:"price,omitempty"`

	// Size label fallbacks, oldest format last.
	OriginalQuantity string    `json:"originalQuantity,omitempty"`
	Size             string    `json:"size,omitempty"`
	ProductSize      string    `json:"productSize,omitempty"`
	SizeLabel        string    `json:"sizeLabel,omitempty"`
	Variant          *Variant  `json:"variant,omitempty"`
	Variants         []Variant `json:"variants,omitempty"`
}

// Variant is the legacy size/option wrapper some item payloads use.
type Variant struct {
	Option string `json:"option"`
}

// EffectiveName resolves the display name: productName, then the legacy
// name field.
func (i OrderItem) EffectiveName() string {
	if i.ProductName != "" {
		return i.ProductName
	}
	return i.Name
}

// EffectiveUnitPrice resolves the per-unit price: unitPrice, then the
// legacy price field, then zero.
func (i OrderItem) EffectiveUnitPrice() float64 {
	if i.UnitPrice != 0 {
		return i.UnitPrice
	}
	if i.Price != 0 {
		return i.Price
	}
	return 0
}

// EffectiveQuantity resolves the line quantity, defaulting to 1 when the
// payload omits it.
func (i OrderItem) EffectiveQuantity() int {
	if i.Quantity > 0 {
		return i.Quantity
	}
	return 1
}

// EffectiveSize resolves the size label through the historical fallback
// chain; empty means the line has no size suffix.
func (i OrderItem) EffectiveSize() string {
	switch {
	case i.OriginalQuantity != "":
		return i.OriginalQuantity
	case i.Size != "":
		return i.Size
	case i.ProductSize != "":
		return i.ProductSize
	case i.SizeLabel != "":
		return i.SizeLabel
	case i.Variant != nil && i.Variant.Option != "":
		return i.Variant.Option
	case len(i.Variants) > 0 && i.Variants[0].Option != "":
		return i.Variants[0].Option
	}
	return ""
}

// EffectiveTotal resolves the order total: pricing.total, then the legacy
// totalAmount field, then zero.
func (o *Order) EffectiveTotal() float64 {
	if o.Pricing != nil && o.Pricing.Total != 0 {
		return o.Pricing.Total
	}
	if o.TotalAmount != 0 {
		return o.TotalAmount
	}
	return 0
}

// PaymentFinal reports whether the payment status is terminal. A terminal
// status never transitions back to pending.
func PaymentFinal(status string) bool {
	switch status {
	case PaymentStatusCompleted, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}
