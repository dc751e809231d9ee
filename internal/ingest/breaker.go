// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package ingest

import (
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/lequangdung2005/melodex/internal/metrics"
)

// BreakerConfig configures the circuit breaker guarding database writes.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
}

// newBreaker creates a circuit breaker that opens after a run of
// consecutive write failures and probes again after Timeout.
func newBreaker(cfg BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return gobreaker.NewCircuitBreaker[any](settings)
}
