// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lequangdung2005/melodex/internal/auth"
	"github.com/lequangdung2005/melodex/internal/config"
	"github.com/lequangdung2005/melodex/internal/ingest"
	"github.com/lequangdung2005/melodex/internal/models"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

// Recommender is the slice of the engine the handlers need.
type Recommender interface {
	ForUser(ctx context.Context, userID string, limit int) ([]recommend.Recommendation, error)
	Similar(ctx context.Context, songID string, limit int) ([]recommend.Recommendation, error)
	Trending(ctx context.Context, windowDays, limit int) (*recommend.TrendingResult, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
}

// Catalog is the slice of the database the handlers need.
type Catalog interface {
	UpsertSong(ctx context.Context, song *models.Song) error
	GetSong(ctx context.Context, songID string) (*models.Song, error)
	ListSongsPage(ctx context.Context, limit, offset int) ([]models.Song, error)
	AddFavorite(ctx context.Context, userID, songID string) error
	RemoveFavorite(ctx context.Context, userID, songID string) error
	ListFavorites(ctx context.Context, userID string) ([]models.Song, error)
	Ping(ctx context.Context) error
}

// Publisher accepts listening events into the ingestion pipeline.
type Publisher interface {
	PublishPlayEvent(ctx context.Context, event *ingest.PlayEventMessage) (string, error)
	PublishSkipEvent(ctx context.Context, event *ingest.SkipEventMessage) (string, error)
	BreakerState() string
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	engine  Recommender
	catalog Catalog
	events  Publisher
	auth    *auth.Authenticator
	config  *config.Config
	logger  zerolog.Logger
}

// NewHandler creates the handler set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(engine Recommender, catalog Catalog, events Publisher,
	authn *auth.Authenticator, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		catalog: catalog,
		events:  events,
		auth:    authn,
		config:  cfg,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// respondDomainError maps layer errors onto the envelope codes.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidInput):
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
	case errors.Is(err, recommend.ErrNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, auth.ErrNoCredentials):
		respondError(w, r, http.StatusUnauthorized, codeAuthError, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, r, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, codeInternalError, "request timed out")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, codeInternalError, "internal server error")
	}
}

// healthStatus is the /healthz payload.
type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Breaker  string `json:"breaker"`
}

// Health reports liveness of the database and the ingestion breaker.
// A failed database ping returns 503 so orchestrators restart or
// route around the instance.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := healthStatus{
		Status:   "ok",
		Database: "up",
		Breaker:  h.events.BreakerState(),
	}

	httpStatus := http.StatusOK
	if err := h.catalog.Ping(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("health check database ping failed")
		status.Status = "degraded"
		status.Database = "down"
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, r, httpStatus, status, start)
}
