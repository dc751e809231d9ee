// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey     contextKey = "request_id"
	correlationIDKey contextKey = "correlation_id"
)

// ContextWithRequestID returns a new context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from the context, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// ContextWithNewCorrelationID returns a new context carrying a freshly
// generated correlation ID, along with the ID itself.
func ContextWithNewCorrelationID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, correlationIDKey, id), id
}

// CorrelationIDFromContext extracts the correlation ID from the context.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok
}

// FromContext returns a logger enriched with request and correlation IDs
// found in the context.
func FromContext(ctx context.Context) zerolog.Logger {
	l := Logger()
	if id, ok := RequestIDFromContext(ctx); ok {
		l = l.With().Str("request_id", id).Logger()
	}
	if id, ok := CorrelationIDFromContext(ctx); ok {
		l = l.With().Str("correlation_id", id).Logger()
	}
	return l
}
