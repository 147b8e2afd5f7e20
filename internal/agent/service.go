// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package agent

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/models"
	"github.com/yqpay/theaterpos/internal/printer"
)

// Service runs one agent entry as a supervised service: log in,
// subscribe to the theater stream, dispatch print events, reconnect
// forever. It only returns when its context is cancelled.
type Service struct {
	entry  Entry
	client *Client
}

// NewService builds the service for one agent.json entry.
func NewService(backendURL string, entry Entry) *Service {
	return &Service{
		entry:  entry,
		client: NewClient(backendURL, entry.Username, entry.Password),
	}
}

// String identifies the service in supervisor logs.
func (s *Service) String() string {
	return "print-agent:" + s.entry.Label
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	theaterID, err := s.resolveTheater(ctx)
	if err != nil {
		return err
	}

	log := logging.With().
		Str("component", "print-agent").
		Str("label", s.entry.Label).
		Str("theaterId", theaterID).
		Logger()

	driver, err := s.loadDriver(ctx, theaterID)
	if err != nil {
		log.Warn().Err(err).Msg("printer config unavailable, using defaults")
		if driver, err = printer.NewDriver(models.DefaultPrinterConfig()); err != nil {
			return err
		}
	}
	dispatcher := NewDispatcher(s.client, theaterID, driver)

	// Reconnect loop. The backoff resets after a connection that
	// actually delivered traffic; ticker-style resets on every attempt
	// would turn a hard outage into a tight loop.
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := s.client.openStream(ctx, theaterID)
		if err != nil {
			wait := b.NextBackOff()
			if errors.Is(err, ErrUnauthorized) {
				// A 403 can also mean the entry pins a theater the
				// account does not cover; backing off keeps a
				// misconfigured agent from hammering the backend.
				log.Warn().Dur("retryIn", wait).Msg("stream rejected token, logging in again")
				if _, err := s.client.Login(ctx); err != nil {
					return err // only fails when ctx is done
				}
				if !sleepCtx(ctx, wait) {
					return ctx.Err()
				}
				continue
			}
			log.Warn().Err(err).Dur("retryIn", wait).Msg("stream connect failed")
			if !sleepCtx(ctx, wait) {
				return ctx.Err()
			}
			continue
		}

		log.Info().Msg("subscribed to order stream")
		b.Reset()

		err = readStream(ctx, resp, func(ev models.PrintEvent) {
			dispatcher.Handle(ctx, ev)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := b.NextBackOff()
		log.Warn().Err(err).Dur("retryIn", wait).Msg("stream ended, reconnecting")
		if !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}
}

// resolveTheater logs in and settles which theater this agent serves:
// the explicit config entry wins, otherwise the scope baked into the
// account's token.
func (s *Service) resolveTheater(ctx context.Context) (string, error) {
	tokenTheater, err := s.client.Login(ctx)
	if err != nil {
		return "", err
	}
	if s.entry.TheaterID != "" {
		return s.entry.TheaterID, nil
	}
	if tokenTheater == "" {
		return "", errors.New("agent entry needs theaterId: account has no theater scope")
	}
	return tokenTheater, nil
}

func (s *Service) loadDriver(ctx context.Context, theaterID string) (printer.Driver, error) {
	cfg, err := s.client.FetchPrinterConfig(ctx, theaterID)
	if err != nil {
		return nil, err
	}
	return printer.NewDriver(cfg)
}

// sleepCtx waits d or until ctx ends; reports whether the full wait
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
