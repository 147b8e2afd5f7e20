// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package main is the entry point for the Theater POS backend.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, YAML, env)
//  2. Storage: embedded Badger store for orders, users and settings
//  3. Event pipeline: per-theater bus and the print-event emitter
//  4. Auth: JWT manager and request middleware
//  5. API: chi router with the SSE stream gateway mounted
//  6. Supervision: suture tree running the HTTP server
//
// Shutdown is graceful on SIGINT/SIGTERM: the listener stops accepting,
// open SSE streams are torn down by context cancellation and in-flight
// requests get the configured shutdown timeout.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/yqpay/theaterpos/internal/api"
	"github.com/yqpay/theaterpos/internal/auth"
	"github.com/yqpay/theaterpos/internal/config"
	"github.com/yqpay/theaterpos/internal/events"
	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/models"
	"github.com/yqpay/theaterpos/internal/store"
	"github.com/yqpay/theaterpos/internal/stream"
	"github.com/yqpay/theaterpos/internal/supervisor"
	"github.com/yqpay/theaterpos/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("db_path", cfg.Database.Path).
		Int("seed_users", len(cfg.Users)).
		Msg("Starting Theater POS server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Store close error")
		}
	}()

	orders := store.NewOrderStore(db)
	users := store.NewUserStore(db)
	settings := store.NewSettingsStore(db)

	if err := seedUsers(ctx, users, cfg.Users); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed users")
	}

	bus := events.NewBus()
	emitter := events.NewEmitter(bus)

	jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	authMW := auth.NewMiddleware(jwtManager, cfg.Auth.RequestRateLimit, cfg.Auth.RateWindow)
	defer authMW.Stop()

	gateway := stream.NewGateway(bus, jwtManager)
	gateway.SetKeepalive(cfg.Stream.KeepaliveInterval)

	srv := api.NewServer(orders, users, settings, emitter, jwtManager, authMW, gateway)
	httpServer := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     srv.Routes(cfg.Server.CORSOrigins),
		ReadTimeout: cfg.Server.ReadTimeout,
		// Zero by default: a writer deadline severs long-lived SSE streams.
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	tree := supervisor.NewTree("theaterpos", logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", httpServer.Addr).Msg("HTTP server service added")

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

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}

// seedUsers creates or refreshes the configured accounts so operators
// manage credentials purely through configuration.
func seedUsers(ctx context.Context, users *store.UserStore, seeds []config.SeedUser) error {
	for _, s := range seeds {
		u := &models.User{
			Username:  s.Username,
			Role:      s.Role,
			TheaterID: s.TheaterID,
		}
		if err := users.Put(ctx, u, s.Password); err != nil {
			return err
		}
		logging.Info().
			Str("username", s.Username).
			Str("role", s.Role).
			Str("theaterId", s.TheaterID).
			Msg("Seeded user")
	}
	return nil
}
