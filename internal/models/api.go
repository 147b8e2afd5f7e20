// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package models

import (
	"time"
)

// APIResponse is the envelope every JSON endpoint responds with.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata is per-response observability information.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
//
// Codes in use: VALIDATION_ERROR, AUTHENTICATION_ERROR, AUTHORIZATION_ERROR,
// NOT_FOUND, CONFLICT, RATE_LIMIT_EXCEEDED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LoginRequest is the POST /api/auth/login body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the login payload agents and the admin console consume.
type LoginResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// VerifyPaymentRequest is the payment verification body. Status must be a
// known settlement state; pending is not a verification outcome.
type VerifyPaymentRequest struct {
	Method string `json:"method" validate:"required"`
	Status string `json:"status" validate:"required,oneof=completed paid failed refunded"`
}

// OrderData wraps a single order, matching the {"data":{...}} shape the
// print agent unwraps when it re-fetches an order.
type OrderData struct {
	Order *Order `json:"order,omitempty"`
}

// PrinterConfigData wraps the printer settings payload.
type PrinterConfigData struct {
	Config PrinterConfig `json:"config"`
}
