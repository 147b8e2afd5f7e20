// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package events

import (
	"strings"

	"github.com/yqpay/theaterpos/internal/models"
)

// EligibleOnCreate decides whether a freshly created order prints
// immediately: counter sales settled on the spot (cash or cod with a
// settled status). Online-paid orders print later, from the paid event,
// so the kitchen never sees an order the gateway may still reject.
//
// The emitter and the print agent both call this; the two sides must
// never disagree about what a created event means.
func EligibleOnCreate(method, status string) bool {
	switch strings.ToLower(method) {
	case models.PaymentMethodCash, models.PaymentMethodCOD:
	default:
		return false
	}
	switch strings.ToLower(status) {
	case models.PaymentStatusCompleted, models.PaymentStatusPaid:
		return true
	}
	return false
}
