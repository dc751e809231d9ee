// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lequangdung2005/melodex/internal/models"
)

// songUpsertRequest is the body for POST /api/v1/songs. Play and skip
// counters are owned by the ingestion path and cannot be set here.
type songUpsertRequest struct {
	ID         string             `json:"id" validate:"required"`
	Title      string             `json:"title" validate:"required"`
	Artist     string             `json:"artist" validate:"required"`
	Album      *string            `json:"album,omitempty"`
	Genre      *string            `json:"genre,omitempty"`
	DurationMS int64              `json:"duration_ms" validate:"gte=0"`
	Features   map[string]float64 `json:"features,omitempty"`
}

// songsPayload wraps a catalog page.
type songsPayload struct {
	Songs  []models.Song `json:"songs"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListSongs handles GET /api/v1/songs with limit/offset pagination.
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", h.config.API.DefaultPageSize)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}
	if limit > h.config.API.MaxPageSize {
		limit = h.config.API.MaxPageSize
	}

	// Offset zero is valid, so it cannot go through getIntParam.
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = parseNonNegative("offset", raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
			return
		}
	}

	songs, err := h.catalog.ListSongsPage(r.Context(), limit, offset)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, songsPayload{
		Songs:  songs,
		Total:  len(songs),
		Limit:  limit,
		Offset: offset,
	}, start)
}

// GetSong handles GET /api/v1/songs/{songID}.
func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	song, err := h.catalog.GetSong(r.Context(), chi.URLParam(r, "songID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, song, start)
}

// UpsertSong handles POST /api/v1/songs, the library import path.
// Existing songs keep their play and skip counters.
func (h *Handler) UpsertSong(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req songUpsertRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	song := &models.Song{
		ID:         req.ID,
		Title:      req.Title,
		Artist:     req.Artist,
		Album:      req.Album,
		Genre:      req.Genre,
		DurationMS: req.DurationMS,
		Features:   req.Features,
	}
	if err := h.catalog.UpsertSong(r.Context(), song); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	h.logger.Info().Str("song_id", song.ID).Str("artist", song.Artist).Msg("song upserted")
	respondJSON(w, r, http.StatusCreated, song, start)
}
