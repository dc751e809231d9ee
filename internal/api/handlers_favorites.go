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

// favoriteRequest is the body for POST .../favorites.
type favoriteRequest struct {
	SongID string `json:"song_id" validate:"required"`
}

// favoritesPayload wraps a user's favorite songs.
type favoritesPayload struct {
	Songs []models.Song `json:"songs"`
	Total int           `json:"total"`
}

// ListFavorites handles GET /api/v1/users/{userID}/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := h.auth.ResolveUserID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	songs, err := h.catalog.ListFavorites(r.Context(), userID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, favoritesPayload{Songs: songs, Total: len(songs)}, start)
}

// AddFavorite handles POST /api/v1/users/{userID}/favorites. Adding a
// song twice is a no-op, not an error.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := h.auth.ResolveUserID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	var req favoriteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}

	if err := h.catalog.AddFavorite(r.Context(), userID, req.SongID); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, models.Favorite{
		UserID:    userID,
		SongID:    req.SongID,
		CreatedAt: time.Now().UTC(),
	}, start)
}

// RemoveFavorite handles DELETE /api/v1/users/{userID}/favorites/{songID}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := h.auth.ResolveUserID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	if err := h.catalog.RemoveFavorite(r.Context(), userID, chi.URLParam(r, "songID")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]string{
		"user_id": userID,
		"song_id": chi.URLParam(r, "songID"),
		"removed": "true",
	}, start)
}
