// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

// Package middleware provides HTTP middleware shared by the API layer:
// request ID propagation for tracing and Prometheus request
// instrumentation.
package middleware
