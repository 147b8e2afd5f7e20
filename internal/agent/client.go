// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/models"
)

const fetchTimeout = 10 * time.Second

// ErrUnauthorized marks a 401 from the backend: the token expired or
// was revoked, so the caller must log in again.
var ErrUnauthorized = errors.New("backend rejected token")

// Client talks to the POS backend on behalf of one agent entry. The
// token is refreshed on 401; fetches run behind a circuit breaker so a
// struggling backend is not hammered for every queued event.
type Client struct {
	backendURL string
	username   string
	password   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*models.Order]

	mu    sync.RWMutex
	token string
}

// NewClient builds a backend client. backendURL has no trailing slash
// requirement; it is normalized here.
func NewClient(backendURL, username, password string) *Client {
	c := &Client{
		backendURL: strings.TrimRight(backendURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: fetchTimeout},
	}
	c.breaker = gobreaker.NewCircuitBreaker[*models.Order](gobreaker.Settings{
		Name:    "order-fetch",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return c
}

// Token returns the current bearer token, empty before the first login.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login authenticates against the backend, retrying with exponential
// backoff until it succeeds or ctx is cancelled. Returns the theater
// scope the backend assigned to this account.
func (c *Client) Login(ctx context.Context) (string, error) {
	var theaterID string

	op := func() error {
		tid, err := c.loginOnce(ctx)
		if err != nil {
			logging.Warn().Err(err).Str("username", c.username).Msg("login failed, retrying")
			return err
		}
		theaterID = tid
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // keep trying until the context ends

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return theaterID, nil
}

func (c *Client) loginOnce(ctx context.Context) (string, error) {
	body, err := json.Marshal(models.LoginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login status %d", resp.StatusCode)
	}

	var env struct {
		Data models.LoginResponse `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if env.Data.Token == "" {
		// Tolerate backends that return the login payload unwrapped.
		var flat models.LoginResponse
		if err := json.Unmarshal(raw, &flat); err != nil || flat.Token == "" {
			return "", fmt.Errorf("login response had no token")
		}
		env.Data = flat
	}

	c.mu.Lock()
	c.token = env.Data.Token
	c.mu.Unlock()

	logging.Info().
		Str("username", c.username).
		Str("theaterId", env.Data.User.TheaterID).
		Msg("agent logged in")
	return env.Data.User.TheaterID, nil
}

// FetchOrder retrieves one order through the circuit breaker, retrying
// once on transient failure. A 401 surfaces as ErrUnauthorized so the
// caller can re-login.
func (c *Client) FetchOrder(ctx context.Context, theaterID, orderID string) (*models.Order, error) {
	order, err := c.breaker.Execute(func() (*models.Order, error) {
		o, err := c.fetchOrderOnce(ctx, theaterID, orderID)
		if err != nil && !errors.Is(err, ErrUnauthorized) && ctx.Err() == nil {
			logging.Debug().Err(err).Str("orderId", orderID).Msg("order fetch retry")
			return c.fetchOrderOnce(ctx, theaterID, orderID)
		}
		return o, err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (c *Client) fetchOrderOnce(ctx context.Context, theaterID, orderID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/orders/theater/%s/%s", c.backendURL, theaterID, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order fetch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("order fetch status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read order response: %w", err)
	}
	return decodeOrderPayload(raw)
}

// decodeOrderPayload accepts the three shapes backends have shipped:
// {"data": {...}}, {"order": {...}} and the bare order object.
func decodeOrderPayload(raw []byte) (*models.Order, error) {
	var wrapped struct {
		Data  json.RawMessage `json:"data"`
		Order json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	for _, candidate := range [][]byte{wrapped.Data, wrapped.Order, raw} {
		if len(candidate) == 0 {
			continue
		}
		var order models.Order
		if err := json.Unmarshal(candidate, &order); err != nil {
			continue
		}
		// The data field can itself be {"order": {...}}.
		if order.ID == "" && order.OrderNumber == "" {
			var inner models.OrderData
			if err := json.Unmarshal(candidate, &inner); err == nil && inner.Order != nil {
				return inner.Order, nil
			}
			continue
		}
		return &order, nil
	}
	return nil, fmt.Errorf("order response had no recognizable order")
}

// FetchPrinterConfig reads this theater's printer settings.
func (c *Client) FetchPrinterConfig(ctx context.Context, theaterID string) (models.PrinterConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	url := c.backendURL + "/api/settings/pos-printer"
	if theaterID != "" {
		url += "?theaterId=" + theaterID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.PrinterConfig{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.PrinterConfig{}, fmt.Errorf("printer config fetch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return models.PrinterConfig{}, ErrUnauthorized
	default:
		return models.PrinterConfig{}, fmt.Errorf("printer config status %d", resp.StatusCode)
	}

	var env struct {
		Data models.PrinterConfigData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return models.PrinterConfig{}, fmt.Errorf("decode printer config: %w", err)
	}
	cfg := env.Data.Config
	if cfg.Driver == "" {
		cfg = models.DefaultPrinterConfig()
	}
	return cfg, nil
}
