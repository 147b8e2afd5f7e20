// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package api is the POS backend's HTTP surface: authentication, order
// intake, payment verification, printer settings and the print event
// stream, all behind one chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yqpay/theaterpos/internal/auth"
	"github.com/yqpay/theaterpos/internal/events"
	"github.com/yqpay/theaterpos/internal/middleware"
	"github.com/yqpay/theaterpos/internal/store"
	"github.com/yqpay/theaterpos/internal/stream"
)

// Server bundles the handlers with their dependencies.
type Server struct {
	orders   *store.OrderStore
	users    *store.UserStore
	settings *store.SettingsStore
	emitter  *events.Emitter
	jwt      *auth.JWTManager
	authMW   *auth.Middleware
	gateway  *stream.Gateway
}

// NewServer wires the API against its stores and the event pipeline.
func NewServer(
	orders *store.OrderStore,
	users *store.UserStore,
	settings *store.SettingsStore,
	emitter *events.Emitter,
	jwt *auth.JWTManager,
	authMW *auth.Middleware,
	gateway *stream.Gateway,
) *Server {
	return &Server{
		orders:   orders,
		users:    users,
		settings: settings,
		emitter:  emitter,
		jwt:      jwt,
		authMW:   authMW,
		gateway:  gateway,
	}
}

// Routes builds the router. Print agents may sit on arbitrary customer
// networks, so the default CORS policy is permissive; deployments that
// front a browser UI narrow it through server.cors_origins.
func (s *Server) Routes(corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Get("/api/health", instrument("/api/health", s.handleHealth))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		// Login brute force protection.
		r.With(httprate.LimitByIP(10, time.Minute)).
			Post("/login", instrument("/api/auth/login", s.handleLogin))
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", instrument("/api/orders",
			s.authMW.RateLimit(s.authMW.Authenticate(s.handleCreateOrder))))
		r.Get("/theater/{theaterID}", instrument("/api/orders/theater",
			s.authMW.RateLimit(s.authMW.RequireTheater(s.handleListOrders))))
		r.Get("/theater/{theaterID}/{orderID}", instrument("/api/orders/theater/order",
			s.authMW.RateLimit(s.authMW.RequireTheater(s.handleGetOrder))))
		r.Post("/theater/{theaterID}/{orderID}/verify-payment", instrument("/api/orders/verify-payment",
			s.authMW.RateLimit(s.authMW.RequireTheater(s.handleVerifyPayment))))
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/pos-printer", instrument("/api/settings/pos-printer",
			s.authMW.Authenticate(s.handleGetPrinterConfig)))
		r.Put("/pos-printer", instrument("/api/settings/pos-printer",
			s.authMW.Authenticate(s.handlePutPrinterConfig)))
	})

	// SSE endpoint: no metrics wrapper buffering concerns (the wrapper
	// forwards Flush), but keep it outside the request-id chain; the
	// stream never writes a response header after connecting.
	r.Get("/api/pos-stream/{theaterID}", s.gateway.HandleStream)

	return r
}

// instrument chains the shared per-route middleware.
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return middleware.RequestID(middleware.PrometheusMetrics(route, h))
}
