// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

// Package metrics defines the Prometheus instrumentation for the
// service: HTTP request metrics, database query metrics, recommendation
// engine timings and cache efficiency, and event pipeline counters.
// Metrics are registered with the default registry via promauto and
// exposed on /metrics.
package metrics
