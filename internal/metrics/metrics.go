// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package metrics exposes Prometheus instrumentation for the POS server:
// event bus fan-out, stream connections, API traffic and order flow.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event bus metrics.

	BusBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_bus_broadcasts_total",
			Help: "Total print event broadcasts by theater and lifecycle event",
		},
		[]string{"theater_id", "event"},
	)

	BusDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_bus_deliveries_total",
			Help: "Total successful per-subscriber deliveries",
		},
		[]string{"theater_id"},
	)

	BusSendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_bus_send_failures_total",
			Help: "Subscribers dropped after a failed send",
		},
		[]string{"theater_id"},
	)

	BusSubscribers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pos_bus_subscribers",
			Help: "Current subscribers registered per theater",
		},
		[]string{"theater_id"},
	)

	// Stream (SSE gateway) metrics.

	StreamConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pos_stream_connections",
			Help: "Open print event stream connections per theater",
		},
		[]string{"theater_id"},
	)

	StreamKeepalives = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pos_stream_keepalives_total",
			Help: "Keepalive comments written across all stream connections",
		},
	)

	// Order flow metrics.

	OrdersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_orders_created_total",
			Help: "Orders created by theater and payment method",
		},
		[]string{"theater_id", "method"},
	)

	PaymentsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_payments_verified_total",
			Help: "Payment verifications by theater and resulting status",
		},
		[]string{"theater_id", "status"},
	)

	PrintEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_print_events_total",
			Help: "Print events that reached at least one subscriber",
		},
		[]string{"theater_id", "event"},
	)

	// API metrics.

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pos_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_api_requests_total",
			Help: "API requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_auth_failures_total",
			Help: "Rejected authentication attempts by reason",
		},
		[]string{"reason"},
	)
)

// RecordBusBroadcast records one broadcast and its delivery count.
func RecordBusBroadcast(theaterID, event string, delivered int) {
	BusBroadcasts.WithLabelValues(theaterID, event).Inc()
	if delivered > 0 {
		BusDeliveries.WithLabelValues(theaterID).Add(float64(delivered))
	}
}

// RecordBusSendFailure records a subscriber dropped after a failed send.
func RecordBusSendFailure(theaterID string) {
	BusSendFailures.WithLabelValues(theaterID).Inc()
}

// SetBusSubscribers updates the subscriber gauge for a theater.
func SetBusSubscribers(theaterID string, n int) {
	BusSubscribers.WithLabelValues(theaterID).Set(float64(n))
}

// RecordStreamOpen tracks a stream connection opening.
func RecordStreamOpen(theaterID string) {
	StreamConnections.WithLabelValues(theaterID).Inc()
}

// RecordStreamClose tracks a stream connection closing.
func RecordStreamClose(theaterID string) {
	StreamConnections.WithLabelValues(theaterID).Dec()
}

// RecordStreamKeepalive counts one keepalive comment.
func RecordStreamKeepalive() {
	StreamKeepalives.Inc()
}

// RecordOrderCreated counts a stored order.
func RecordOrderCreated(theaterID, method string) {
	OrdersCreated.WithLabelValues(theaterID, method).Inc()
}

// RecordPaymentVerified counts a settled payment verification.
func RecordPaymentVerified(theaterID, status string) {
	PaymentsVerified.WithLabelValues(theaterID, status).Inc()
}

// RecordPrintEvent counts a print event that reached a subscriber.
func RecordPrintEvent(theaterID, event string) {
	PrintEvents.WithLabelValues(theaterID, event).Inc()
}

// RecordAPIRequest records one handled API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthFailure counts a rejected authentication attempt.
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}
