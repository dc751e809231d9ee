// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/lequangdung2005/melodex/internal/ingest"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

// eventAcceptedPayload acknowledges an event accepted into the
// pipeline. Persistence happens asynchronously.
type eventAcceptedPayload struct {
	EventID string `json:"event_id"`
}

// PostPlayEvent handles POST /api/v1/events/play. The event is
// validated synchronously and queued; the 202 response carries the
// assigned event id.
func (h *Handler) PostPlayEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var msg ingest.PlayEventMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError,
			fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	userID, err := h.auth.ResolveUserID(r.Context(), msg.UserID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	msg.UserID = userID

	// Unknown songs are rejected here rather than dead-lettered after
	// the fact. The async path still quarantines races where a song is
	// deleted between this check and persistence. An empty song id
	// falls through to publish validation.
	if msg.SongID != "" {
		if _, err := h.catalog.GetSong(r.Context(), msg.SongID); err != nil {
			h.respondDomainError(w, r, err)
			return
		}
	}

	eventID, err := h.events.PublishPlayEvent(r.Context(), &msg)
	if err != nil {
		h.respondEventError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusAccepted, eventAcceptedPayload{EventID: eventID}, start)
}

// PostSkipEvent handles POST /api/v1/events/skip.
func (h *Handler) PostSkipEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var msg ingest.SkipEventMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidationError,
			fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	userID, err := h.auth.ResolveUserID(r.Context(), msg.UserID)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	msg.UserID = userID

	if msg.SongID != "" {
		if _, err := h.catalog.GetSong(r.Context(), msg.SongID); err != nil {
			h.respondDomainError(w, r, err)
			return
		}
	}

	eventID, err := h.events.PublishSkipEvent(r.Context(), &msg)
	if err != nil {
		h.respondEventError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusAccepted, eventAcceptedPayload{EventID: eventID}, start)
}

// respondEventError distinguishes validation rejections from pipeline
// failures.
func (h *Handler) respondEventError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, recommend.ErrInvalidInput) {
		respondError(w, r, http.StatusBadRequest, codeValidationError, err.Error())
		return
	}
	h.logger.Error().Err(err).Msg("event publish failed")
	respondError(w, r, http.StatusServiceUnavailable, codeInternalError, "event pipeline unavailable")
}
