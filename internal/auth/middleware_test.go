// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yqpay/theaterpos/internal/models"
)

func issueToken(t *testing.T, m *JWTManager, role, theaterID string) string {
	t.Helper()
	token, err := m.GenerateToken(&models.User{Username: "u", Role: role, TheaterID: theaterID})
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	return token
}

func TestExtractToken(t *testing.T) {
	header := httptest.NewRequest(http.MethodGet, "/x", nil)
	header.Header.Set("Authorization", "Bearer tok-1")
	if got := ExtractToken(header); got != "tok-1" {
		t.Errorf("header token = %q, want tok-1", got)
	}

	query := httptest.NewRequest(http.MethodGet, "/x?token=tok-2", nil)
	if got := ExtractToken(query); got != "tok-2" {
		t.Errorf("query token = %q, want tok-2", got)
	}

	malformed := httptest.NewRequest(http.MethodGet, "/x?token=tok-3", nil)
	malformed.Header.Set("Authorization", "Basic dXNlcg==")
	if got := ExtractToken(malformed); got != "" {
		t.Errorf("malformed header token = %q, want empty (no query fallback)", got)
	}

	if got := ExtractToken(httptest.NewRequest(http.MethodGet, "/x", nil)); got != "" {
		t.Errorf("absent token = %q, want empty", got)
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	jm := newTestManager(t)
	mw := NewMiddleware(jm, 100, time.Minute)
	defer mw.rateLimiter.Stop()

	var gotClaims *Claims
	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// Valid token via query parameter.
	req := httptest.NewRequest(http.MethodGet, "/x?token="+issueToken(t, jm, "theater", "theater-a"), nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.TheaterID != "theater-a" {
		t.Errorf("claims in context = %+v, want theater-a scope", gotClaims)
	}

	// Missing token.
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}

	// Bad token.
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/x?token=garbage", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestRequireTheater(t *testing.T) {
	jm := newTestManager(t)
	mw := NewMiddleware(jm, 100, time.Minute)
	defer mw.rateLimiter.Stop()

	router := chi.NewRouter()
	router.Get("/t/{theaterID}", mw.RequireTheater(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(path, token string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	theaterTok := issueToken(t, jm, "theater", "theater-a")
	if got := call("/t/theater-a", theaterTok); got != http.StatusOK {
		t.Errorf("own theater status = %d, want 200", got)
	}
	if got := call("/t/theater-b", theaterTok); got != http.StatusForbidden {
		t.Errorf("foreign theater status = %d, want 403", got)
	}

	adminTok := issueToken(t, jm, "admin", "")
	if got := call("/t/theater-b", adminTok); got != http.StatusOK {
		t.Errorf("admin status = %d, want 200", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request within window must be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("another IP must have its own budget")
	}
}
