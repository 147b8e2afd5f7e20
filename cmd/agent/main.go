// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package main is the entry point for the print agent.
//
// The agent reads agent.json (or $AGENT_CONFIG), logs each configured
// account into the backend and subscribes to that theater's order event
// stream. Every print event fetches the referenced order, renders an
// ESC/POS receipt and drives the configured printer. Each agent entry
// runs as its own supervised service: a crashing printer connection for
// one theater never stalls the others.
//
// Configuration example:
//
//	{
//	  "backendUrl": "https://pos.example.com",
//	  "agents": [
//	    {"label": "lobby", "username": "pvr-kiosk", "password": "...", "theaterId": "theater-a"}
//	  ]
//	}
//
// Environment:
//   - AGENT_CONFIG: path to the config file (default agent.json)
//   - LOG_LEVEL / LOG_FORMAT: logging overrides
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/yqpay/theaterpos/internal/agent"
	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/supervisor"
)

func main() {
	logging.Init(logging.Config{
		Level:  envOr("LOG_LEVEL", "info"),
		Format: envOr("LOG_FORMAT", "console"),
	})

	cfg, err := agent.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load agent configuration")
	}

	logging.Info().
		Str("backend", cfg.BackendURL).
		Int("agents", len(cfg.Agents)).
		Msg("Starting print agent")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree("theaterpos-agent", logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	for _, entry := range cfg.Agents {
		svc := agent.NewService(cfg.BackendURL, entry)
		tree.AddDispatchService(svc)
		logging.Info().Str("label", entry.Label).Msg("Agent service added")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	logging.Info().Msg("Print agent stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
