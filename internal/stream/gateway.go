// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package stream

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/yqpay/theaterpos/internal/auth"
	"github.com/yqpay/theaterpos/internal/events"
	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/metrics"
	"github.com/yqpay/theaterpos/internal/models"
)

// Keepalive cadence. Agents treat silence longer than twice this as a
// dead connection, so it must stay comfortably under proxy idle timeouts.
const defaultKeepalive = 25 * time.Second

// Gateway serves GET /api/pos-stream/{theaterID} as an SSE stream of
// print events for one theater.
type Gateway struct {
	bus       *events.Bus
	jwt       *auth.JWTManager
	keepalive time.Duration
}

// NewGateway creates a gateway on bus, authenticating with jwt.
func NewGateway(bus *events.Bus, jwt *auth.JWTManager) *Gateway {
	return &Gateway{bus: bus, jwt: jwt, keepalive: defaultKeepalive}
}

// SetKeepalive overrides the keepalive comment interval. It must be
// called before the gateway serves its first stream.
func (g *Gateway) SetKeepalive(d time.Duration) {
	if d > 0 {
		g.keepalive = d
	}
}

// HandleStream is the SSE endpoint. The connection stays open until the
// client disconnects or a write fails; either way the subscriber is
// removed from the bus on the way out.
func (g *Gateway) HandleStream(w http.ResponseWriter, r *http.Request) {
	theaterID := chi.URLParam(r, "theaterID")
	if theaterID == "" {
		http.Error(w, "missing theater id", http.StatusBadRequest)
		return
	}

	token := auth.ExtractToken(r)
	if token == "" {
		metrics.RecordAuthFailure("missing_token")
		http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
		return
	}
	claims, err := g.jwt.ValidateToken(token)
	if err != nil {
		metrics.RecordAuthFailure("invalid_token")
		http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
		return
	}
	if !claims.CoversTheater(theaterID) {
		metrics.RecordAuthFailure("theater_scope")
		http.Error(w, "Forbidden: theater not covered by token", http.StatusForbidden)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Disable nginx proxy buffering; a buffered event stream is no stream.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Reconnect hint, then the connected frame so the agent can tell an
	// established stream from a hung proxy.
	fmt.Fprintf(w, "retry: 3000\n\n")
	if err := writeFrame(w, models.ConnectedFrame{Type: models.EventTypeConnected, TheaterID: theaterID}); err != nil {
		return
	}
	flusher.Flush()

	sub := newConnSubscriber()
	ticket := g.bus.Subscribe(theaterID, sub)
	defer g.bus.Unsubscribe(ticket)

	metrics.RecordStreamOpen(theaterID)
	defer metrics.RecordStreamClose(theaterID)

	logging.Info().
		Str("theater_id", theaterID).
		Str("username", claims.Username).
		Msg("print event stream connected")
	defer logging.Info().
		Str("theater_id", theaterID).
		Str("username", claims.Username).
		Msg("print event stream closed")

	keepalive := time.NewTicker(g.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case ev := <-sub.ch:
			if err := writeFrame(w, ev); err != nil {
				logging.Debug().Err(err).Str("theater_id", theaterID).Msg("stream write failed")
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
			metrics.RecordStreamKeepalive()
		}
	}
}

// writeFrame writes one SSE data frame.
func writeFrame(w http.ResponseWriter, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", body); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
