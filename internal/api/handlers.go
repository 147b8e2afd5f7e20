// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/yqpay/theaterpos/internal/auth"
	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/metrics"
	"github.com/yqpay/theaterpos/internal/models"
	"github.com/yqpay/theaterpos/internal/store"
	"github.com/yqpay/theaterpos/internal/validation"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
		return
	}

	user, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			metrics.RecordAuthFailure("bad_credentials")
			respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "invalid username or password", nil)
			return
		}
		logging.Error().Err(err).Msg("login lookup failed")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed", nil)
		return
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		logging.Error().Err(err).Msg("token generation failed")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "login failed", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, models.LoginResponse{Token: token, User: user.Public()})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var order models.Order
	if !decodeBody(w, r, &order) {
		return
	}
	if verr := validation.ValidateStruct(&order); verr != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || !claims.CoversTheater(order.TheaterID) {
		respondError(w, r, http.StatusForbidden, "AUTHORIZATION_ERROR", "theater not covered by token", nil)
		return
	}

	if err := s.orders.CreateOrder(r.Context(), &order); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateOrderNumber):
			respondError(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
		case errors.Is(err, store.ErrInvalidOrder):
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		default:
			logging.Error().Err(err).Msg("order create failed")
			respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not store order", nil)
		}
		return
	}

	metrics.RecordOrderCreated(order.TheaterID, order.Payment.Method)

	// Print dispatch is best-effort and must never fail the request.
	s.emitter.OrderCreated(&order)

	respondJSON(w, r, http.StatusCreated, &order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	theaterID := chi.URLParam(r, "theaterID")
	orderID := chi.URLParam(r, "orderID")

	order, err := s.orders.GetOrder(r.Context(), theaterID, orderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		logging.Error().Err(err).Msg("order fetch failed")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not load order", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	theaterID := chi.URLParam(r, "theaterID")

	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > 1000 {
			respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be 1 to 1000", nil)
			return
		}
		limit = n
	}

	orders, err := s.orders.ListOrders(r.Context(), theaterID, limit)
	if err != nil {
		logging.Error().Err(err).Msg("order list failed")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not list orders", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"orders": orders, "count": len(orders)})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	theaterID := chi.URLParam(r, "theaterID")
	orderID := chi.URLParam(r, "orderID")

	var req models.VerifyPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
		return
	}

	order, err := s.orders.UpdatePayment(r.Context(), theaterID, orderID, req.Method, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound):
			respondError(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		case errors.Is(err, store.ErrPaymentFinal):
			respondError(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
		default:
			logging.Error().Err(err).Msg("payment update failed")
			respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not update payment", nil)
		}
		return
	}

	metrics.RecordPaymentVerified(theaterID, req.Status)

	// A settled payment triggers the paid print event; dispatch failures
	// never fail the verification.
	if req.Status == models.PaymentStatusCompleted || req.Status == models.PaymentStatusPaid {
		s.emitter.OrderPaid(order)
	}

	respondJSON(w, r, http.StatusOK, order)
}

// printerTheater resolves which theater's printer settings a request
// addresses: the token's scope, or an explicit theaterId query parameter
// for admin tokens.
func printerTheater(r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return "", false
	}
	if q := r.URL.Query().Get("theaterId"); q != "" {
		if !claims.CoversTheater(q) {
			return "", false
		}
		return q, true
	}
	if claims.TheaterID == "" {
		return "", false
	}
	return claims.TheaterID, true
}

func (s *Server) handleGetPrinterConfig(w http.ResponseWriter, r *http.Request) {
	theaterID, ok := printerTheater(r)
	if !ok {
		respondError(w, r, http.StatusForbidden, "AUTHORIZATION_ERROR", "no theater scope for printer settings", nil)
		return
	}

	cfg, err := s.settings.GetPrinterConfig(r.Context(), theaterID)
	if err != nil {
		logging.Error().Err(err).Msg("printer config fetch failed")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not load printer config", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, models.PrinterConfigData{Config: cfg})
}

func (s *Server) handlePutPrinterConfig(w http.ResponseWriter, r *http.Request) {
	theaterID, ok := printerTheater(r)
	if !ok {
		respondError(w, r, http.StatusForbidden, "AUTHORIZATION_ERROR", "no theater scope for printer settings", nil)
		return
	}

	var cfg models.PrinterConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	if verr := validation.ValidateStruct(&cfg); verr != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), verr.Details())
		return
	}

	if err := s.settings.PutPrinterConfig(r.Context(), theaterID, cfg); err != nil {
		logging.Error().Err(err).Msg("printer config save failed")
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not save printer config", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, models.PrinterConfigData{Config: cfg})
}
