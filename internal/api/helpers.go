// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/lequangdung2005/melodex/internal/logging"
	"github.com/lequangdung2005/melodex/internal/middleware"
	"github.com/lequangdung2005/melodex/internal/models"
)

// Machine-readable error codes carried in the response envelope.
const (
	codeValidationError = "VALIDATION_ERROR"
	codeNotFound        = "NOT_FOUND"
	codeAuthError       = "AUTHENTICATION_ERROR"
	codeForbidden       = "FORBIDDEN"
	codeInternalError   = "INTERNAL_ERROR"
)

// validate is a reusable validator instance for request bodies.
var validate = validator.New()

// respondJSON writes a success envelope. The start time becomes the
// query_time_ms metadata field; the request id is taken from the
// request context.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   middleware.GetRequestID(r.Context()),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	}

	body, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to marshal response")
		http.Error(w, `{"status":"error","error":{"code":"INTERNAL_ERROR","message":"encoding failed"}}`,
			http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Header().Set("ETag", generateETag(body))
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response body")
	}
}

// respondError writes an error envelope with the given code.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logging.Debug().
		Int("status", status).
		Str("code", code).
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Msg(message)

	resp := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	}

	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, `{"status":"error","error":{"code":"INTERNAL_ERROR","message":"encoding failed"}}`,
			http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// generateETag returns a weak ETag from an FNV-1a hash of the body.
func generateETag(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return fmt.Sprintf(`W/"%x"`, h.Sum64())
}

// decodeBody unmarshals and validates a JSON request body into dst,
// which must carry validate struct tags.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// getIntParam parses an optional positive integer query parameter.
// Absent parameters return the default; present ones must parse as an
// integer greater than zero.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero, got %d", name, v)
	}
	return v, nil
}

// parseNonNegative parses a query value that may be zero.
func parseNonNegative(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", name, v)
	}
	return v, nil
}
