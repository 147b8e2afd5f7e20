// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package agent

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/models"
)

// watchdogTimeout is twice the server keepalive interval with headroom:
// the server writes a keepalive comment every 25s, so a minute of
// silence means the connection is dead even if TCP has not noticed.
const watchdogTimeout = 60 * time.Second

// openStream connects to the theater's SSE endpoint. The returned
// response body stays open for the life of the subscription, so the
// request client must not carry an overall timeout.
func (c *Client) openStream(ctx context.Context, theaterID string) (*http.Response, error) {
	url := fmt.Sprintf("%s/api/pos-stream/%s", c.backendURL, theaterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token())
	req.Header.Set("Accept", "text/event-stream")

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, ErrUnauthorized
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("stream status %d", resp.StatusCode)
	}
}

// readStream consumes SSE lines until the connection breaks or ctx is
// cancelled. Every received line feeds the watchdog; print events are
// handed to the callback. Returns the error that ended the stream.
func readStream(ctx context.Context, resp *http.Response, handle func(models.PrintEvent)) error {
	defer resp.Body.Close()

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Closing the body is what actually unblocks the scanner when the
	// watchdog fires or the caller's context ends.
	go func() {
		<-streamCtx.Done()
		resp.Body.Close()
	}()

	// Watchdog: cancel the read when the server goes silent. Any line,
	// including keepalive comments, pushes the deadline out.
	activity := make(chan struct{}, 1)
	go func() {
		timer := time.NewTimer(watchdogTimeout)
		defer timer.Stop()
		for {
			select {
			case <-streamCtx.Done():
				return
			case <-activity:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(watchdogTimeout)
			case <-timer.C:
				logging.Warn().Msg("stream silent past watchdog, reconnecting")
				cancel()
				return
			}
		}
	}()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		select {
		case activity <- struct{}{}:
		default:
		}
		if ev, ok := parseEventLine(scanner.Bytes()); ok {
			handle(ev)
		}
	}

	if err := streamCtx.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream watchdog expired")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read: %w", err)
	}
	return fmt.Errorf("stream closed by server")
}

// parseEventLine extracts a print event from one SSE line. Comment
// lines, retry hints, the connected frame, keepalive objects and
// malformed payloads are all skipped.
func parseEventLine(line []byte) (models.PrintEvent, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] == ':' {
		return models.PrintEvent{}, false
	}
	payload, ok := bytes.CutPrefix(line, []byte("data:"))
	if !ok {
		return models.PrintEvent{}, false // retry:, event:, id: fields
	}
	payload = bytes.TrimSpace(payload)

	var ev models.PrintEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		logging.Warn().Err(err).Str("payload", string(payload)).Msg("dropping malformed stream event")
		return models.PrintEvent{}, false
	}
	if ev.Type != models.EventTypePOSOrder {
		return models.PrintEvent{}, false // connected, keepalive
	}
	if ev.OrderID == "" || (ev.Event != models.EventOrderCreated && ev.Event != models.EventOrderPaid) {
		logging.Warn().
			Str("event", ev.Event).
			Str("orderId", ev.OrderID).
			Msg("dropping incomplete stream event")
		return models.PrintEvent{}, false
	}
	return ev, true
}
