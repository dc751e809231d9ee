// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package ingest

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/lequangdung2005/melodex/internal/models"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

// Topics for the in-process event pipeline.
const (
	TopicPlayEvents = "events.play"
	TopicSkipEvents = "events.skip"
)

// validate is a reusable validator instance
var validate = validator.New()

// PlayEventMessage is the wire form of a play event. Completed is
// derived from the completion rate, not supplied by the client.
type PlayEventMessage struct {
	UserID         string    `json:"user_id" validate:"required"`
	SongID         string    `json:"song_id" validate:"required"`
	PlayedAt       time.Time `json:"played_at" validate:"required"`
	DurationMS     int64     `json:"duration_ms" validate:"gte=0"`
	CompletionRate float64   `json:"completion_rate" validate:"gte=0,lte=1"`
}

// SkipEventMessage is the wire form of a skip event.
type SkipEventMessage struct {
	UserID    string    `json:"user_id" validate:"required"`
	SongID    string    `json:"song_id" validate:"required"`
	SkippedAt time.Time `json:"skipped_at" validate:"required"`
	PositionMS int64    `json:"position_ms" validate:"gte=0"`
}

// ToModel converts the message to a storage event with the given id.
func (m *PlayEventMessage) ToModel(id string) *models.PlayEvent {
	return &models.PlayEvent{
		ID:             id,
		UserID:         m.UserID,
		SongID:         m.SongID,
		PlayedAt:       m.PlayedAt.UTC(),
		DurationMS:     m.DurationMS,
		CompletionRate: m.CompletionRate,
		Completed:      m.CompletionRate >= models.CompletionThreshold,
	}
}

// ToModel converts the message to a storage event with the given id.
func (m *SkipEventMessage) ToModel(id string) *models.SkipEvent {
	return &models.SkipEvent{
		ID:         id,
		UserID:     m.UserID,
		SongID:     m.SongID,
		SkippedAt:  m.SkippedAt.UTC(),
		PositionMS: m.PositionMS,
	}
}

func decodePlayEvent(payload []byte) (*PlayEventMessage, error) {
	var msg PlayEventMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: malformed play event: %v", recommend.ErrInvalidInput, err)
	}
	if err := validate.Struct(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", recommend.ErrInvalidInput, err)
	}
	return &msg, nil
}

func decodeSkipEvent(payload []byte) (*SkipEventMessage, error) {
	var msg SkipEventMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: malformed skip event: %v", recommend.ErrInvalidInput, err)
	}
	if err := validate.Struct(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", recommend.ErrInvalidInput, err)
	}
	return &msg, nil
}
