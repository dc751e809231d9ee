// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

// Package api implements the HTTP surface: a chi router with CORS,
// per-IP rate limiting, request-id propagation and Prometheus
// instrumentation, and handlers that translate between the JSON
// envelope and the recommendation, catalog and ingestion layers.
//
// Every response uses the models.APIResponse envelope. Domain errors
// map to machine-readable codes: recommend.ErrInvalidInput becomes
// VALIDATION_ERROR (400), recommend.ErrNotFound becomes NOT_FOUND
// (404), auth failures become AUTHENTICATION_ERROR (401) or
// FORBIDDEN (403).
package api
