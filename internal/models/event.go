// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package models

// Print event types as they appear on the wire.
const (
	EventTypePOSOrder  = "pos_order"
	EventTypeConnected = "connected"
	EventTypeKeepalive = "keepalive"

	EventOrderCreated = "created"
	EventOrderPaid    = "paid"
)

// PrintEvent is the notification pushed to print agents. It carries a
// pointer to the order, never the order body: agents re-fetch the current
// state before printing, so a stale event cannot print stale data.
type PrintEvent struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	OrderID   string `json:"orderId"`
	TheaterID string `json:"theaterId"`
}

// NewPrintEvent builds a pos_order event for the given lifecycle moment.
func NewPrintEvent(event, orderID, theaterID string) PrintEvent {
	return PrintEvent{
		Type:      EventTypePOSOrder,
		Event:     event,
		OrderID:   orderID,
		TheaterID: theaterID,
	}
}

// ConnectedFrame is the first frame written on a new stream connection so
// clients can distinguish an established stream from a hung proxy.
type ConnectedFrame struct {
	Type      string `json:"type"`
	TheaterID string `json:"theaterId"`
}
