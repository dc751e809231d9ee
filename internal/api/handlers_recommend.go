// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lequangdung2005/melodex/internal/recommend"
)

// recommendationsPayload wraps a ranked list with its size.
type recommendationsPayload struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Total           int                        `json:"total"`
}

// trendingPayload wraps a trending result with its size.
type trendingPayload struct {
	Songs      []recommend.TrendingSong `json:"songs"`
	Total      int                      `json:"total"`
	WindowDays int                      `json:"window_days"`
	AllTime    bool                     `json:"all_time"`
}

// GetUserRecommendations handles GET /api/v1/recommendations/user/{userID}.
func (h *Handler) GetUserRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := h.auth.ResolveUserID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	limit, err := getIntParam(r, "limit", 0)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	recs, err := h.engine.ForUser(r.Context(), userID, limit)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, recommendationsPayload{
		Recommendations: recs,
		Total:           len(recs),
	}, start)
}

// GetSimilarSongs handles GET /api/v1/recommendations/similar/{songID}.
func (h *Handler) GetSimilarSongs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", h.config.Recommend.SimilarDefaultLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	recs, err := h.engine.Similar(r.Context(), chi.URLParam(r, "songID"), limit)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, recommendationsPayload{
		Recommendations: recs,
		Total:           len(recs),
	}, start)
}

// GetTrending handles GET /api/v1/trending.
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", h.config.Recommend.TrendingDefaultLimit)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}
	windowDays, err := getIntParam(r, "window_days", h.config.Recommend.TrendingWindowDays)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	result, err := h.engine.Trending(r.Context(), windowDays, limit)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, trendingPayload{
		Songs:      result.Songs,
		Total:      len(result.Songs),
		WindowDays: result.WindowDays,
		AllTime:    result.AllTime,
	}, start)
}

// GetUserStats handles GET /api/v1/users/{userID}/stats.
func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := h.auth.ResolveUserID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	stats, err := h.engine.UserStats(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, stats, start)
}
