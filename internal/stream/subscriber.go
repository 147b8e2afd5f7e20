// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package stream is the subscriber gateway: it exposes the event bus to
// print agents over server-sent events. SSE rather than WebSocket because
// EventSource clients cannot set request headers, which is also why the
// bearer token is accepted as a query parameter here.
package stream

import (
	"errors"

	"github.com/yqpay/theaterpos/internal/models"
)

// ErrBufferFull is returned by Send when the connection's buffer is
// exhausted; the bus reacts by unsubscribing the connection.
var ErrBufferFull = errors.New("subscriber buffer full")

// subscriberBuffer is per-connection. A healthy agent drains instantly;
// a stalled one fills it and gets dropped rather than blocking broadcasts.
const subscriberBuffer = 64

// connSubscriber bridges the bus to one SSE connection through a
// buffered channel.
type connSubscriber struct {
	ch chan models.PrintEvent
}

func newConnSubscriber() *connSubscriber {
	return &connSubscriber{ch: make(chan models.PrintEvent, subscriberBuffer)}
}

// Send enqueues without blocking.
func (s *connSubscriber) Send(ev models.PrintEvent) error {
	select {
	case s.ch <- ev:
		return nil
	default:
		return ErrBufferFull
	}
}
