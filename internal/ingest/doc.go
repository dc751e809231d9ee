// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

// Package ingest processes listening events through an in-process
// Watermill pipeline. The HTTP layer publishes play and skip events to
// topics, handlers validate and persist them, and messages that exhaust
// retries are routed to a poison topic whose subscriber records them in
// the failed_events table. Database writes go through a circuit breaker
// so a wedged database fails fast instead of piling up retries.
package ingest
