// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package receipt renders orders into printable receipts: a canonical
// plain-text layout for OS spoolers and an ESC/POS byte stream for
// thermal printers. Rendering is a pure function of the order body, so
// two agents handed the same order produce identical paper.
package receipt

import (
	"fmt"
	"strings"

	"github.com/yqpay/theaterpos/internal/models"
)

const (
	header = "YQ PAY - THEATER POS"
	rule   = "---------------------------"

	// Fixed layout, not the host locale: receipts must not differ
	// between agent machines.
	dateLayout = "02/01/2006, 15:04:05"
)

// Render produces the canonical plain-text receipt for an order.
func Render(order *models.Order) string {
	var b strings.Builder

	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(rule)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Order: %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "Date : %s\n", order.CreatedAt.Format(dateLayout))
	b.WriteByte('\n')

	for _, item := range order.Items {
		b.WriteString(itemLine(item))
		b.WriteByte('\n')
	}

	b.WriteString(rule)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "TOTAL: ₹%.2f\n", order.EffectiveTotal())
	b.WriteByte('\n')
	b.WriteString("Thank you!\n")

	return b.String()
}

// itemLine formats one order line: name, optional size suffix, quantity
// and unit price. Two spaces separate the quantity from the price.
func itemLine(item models.OrderItem) string {
	name := item.EffectiveName()
	if size := item.EffectiveSize(); size != "" {
		name += " (" + size + ")"
	}
	return fmt.Sprintf("%s x%d  ₹%.2f", name, item.EffectiveQuantity(), item.EffectiveUnitPrice())
}
