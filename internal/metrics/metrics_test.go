// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordBusBroadcast(t *testing.T) {
	before := testutil.ToFloat64(BusDeliveries.WithLabelValues("th-metrics"))
	RecordBusBroadcast("th-metrics", "paid", 2)
	RecordBusBroadcast("th-metrics", "paid", 0)

	if got := testutil.ToFloat64(BusBroadcasts.WithLabelValues("th-metrics", "paid")); got != 2 {
		t.Errorf("broadcasts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(BusDeliveries.WithLabelValues("th-metrics")) - before; got != 2 {
		t.Errorf("deliveries delta = %v, want 2 (zero-delivery broadcast adds nothing)", got)
	}
}

func TestSubscriberGauge(t *testing.T) {
	SetBusSubscribers("th-gauge", 3)
	if got := testutil.ToFloat64(BusSubscribers.WithLabelValues("th-gauge")); got != 3 {
		t.Errorf("gauge = %v, want 3", got)
	}
	SetBusSubscribers("th-gauge", 0)
	if got := testutil.ToFloat64(BusSubscribers.WithLabelValues("th-gauge")); got != 0 {
		t.Errorf("gauge = %v, want 0", got)
	}
}

func TestStreamConnectionGauge(t *testing.T) {
	RecordStreamOpen("th-stream")
	RecordStreamOpen("th-stream")
	RecordStreamClose("th-stream")
	if got := testutil.ToFloat64(StreamConnections.WithLabelValues("th-stream")); got != 1 {
		t.Errorf("connections = %v, want 1", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	RecordAPIRequest("GET", "/api/health", 200, 5*time.Millisecond)
	if got := testutil.ToFloat64(APIRequests.WithLabelValues("GET", "/api/health", "200")); got < 1 {
		t.Errorf("api requests = %v, want >= 1", got)
	}
}
