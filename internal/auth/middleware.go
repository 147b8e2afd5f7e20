// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/metrics"
)

type contextKey string

// ClaimsContextKey holds the validated *Claims in the request context.
const ClaimsContextKey contextKey = "claims"

// Middleware enforces token authentication and per-IP rate limiting.
type Middleware struct {
	jwtManager  *JWTManager
	rateLimiter *RateLimiter
}

// NewMiddleware creates authentication middleware backed by jwtManager.
func NewMiddleware(jwtManager *JWTManager, reqsPerWindow int, window time.Duration) *Middleware {
	m := &Middleware{
		jwtManager:  jwtManager,
		rateLimiter: NewRateLimiter(reqsPerWindow, window),
	}
	go m.rateLimiter.startCleanup(5 * time.Minute)
	return m
}

// Stop ends the rate limiter's background cleanup.
func (m *Middleware) Stop() {
	m.rateLimiter.Stop()
}

// ClaimsFromContext returns the claims the Authenticate middleware stored.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// Authenticate validates the bearer token and stores its claims in the
// request context. The token may arrive in the Authorization header or,
// for EventSource clients that cannot set headers, in the "token" query
// parameter.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			metrics.RecordAuthFailure("missing_token")
			http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			metrics.RecordAuthFailure("invalid_token")
			logging.Debug().Err(err).Msg("token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireTheater authenticates and then checks that the token's scope
// covers the {theaterID} URL parameter.
func (m *Middleware) RequireTheater(next http.HandlerFunc) http.HandlerFunc {
	return m.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		theaterID := chi.URLParam(r, "theaterID")
		if theaterID == "" || !claims.CoversTheater(theaterID) {
			metrics.RecordAuthFailure("theater_scope")
			http.Error(w, "Forbidden: theater not covered by token", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// RateLimit enforces the per-IP limiter.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.rateLimiter.Allow(clientIP(r)) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// ExtractToken pulls the bearer token from the Authorization header or
// the "token" query parameter, in that order. Empty means absent.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}

// RateLimiter implements per-IP rate limiting with periodic cleanup of
// idle entries.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows reqsPerWindow requests per window per IP.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(window / time.Duration(max(reqsPerWindow, 1))),
		burst:     reqsPerWindow,
		stopClean: make(chan struct{}),
	}
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	threshold := time.Now().Add(-time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}
