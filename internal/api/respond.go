// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/yqpay/theaterpos/internal/logging"
	"github.com/yqpay/theaterpos/internal/middleware"
	"github.com/yqpay/theaterpos/internal/models"
)

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
	}
	writeBody(w, status, &resp)
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	resp := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Error: &models.APIError{Code: code, Message: message, Details: details},
	}
	writeBody(w, status, &resp)
}

func writeBody(w http.ResponseWriter, status int, resp *models.APIResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("marshal response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("write response")
	}
}

// decodeBody unmarshals the request body into v, answering with a
// VALIDATION_ERROR on malformed JSON. Returns false when the request was
// already answered.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "malformed JSON body", nil)
		return false
	}
	return true
}
