// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/yqpay/theaterpos/internal/models"
)

func TestServeBacksOffWhenStreamRejectsToken(t *testing.T) {
	// Login always succeeds but the stream always answers 403, the shape
	// of an agent.json entry pinned to a theater the account does not
	// cover. The agent must re-login on a schedule, not in a tight loop.
	var logins, streams atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": models.LoginResponse{
				Token: "test-token",
				User:  models.PublicUser{Username: "kiosk", Role: "theater", TheaterID: "theater-a"},
			},
		})
	})
	mux.HandleFunc("/api/pos-stream/", func(w http.ResponseWriter, r *http.Request) {
		streams.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewService(srv.URL, Entry{
		Label: "kiosk", Username: "kiosk", Password: "pw", TheaterID: "theater-b",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	// One connect attempt fits in the window; the one second backoff
	// keeps the next out of it. Without the backoff this runs into the
	// thousands.
	if n := streams.Load(); n > 2 {
		t.Errorf("stream attempts = %d, want at most 2 in 300ms", n)
	}
	if n := logins.Load(); n > 3 {
		t.Errorf("logins = %d, want at most 3 in 300ms", n)
	}
}
