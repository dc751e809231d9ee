// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"context"
	"time"

	"github.com/lequangdung2005/melodex/internal/models"
)

// Recommendation is a ranked song with its score breakdown.
type Recommendation struct {
	// Song is the recommended song.
	Song models.Song `json:"song"`

	// Score is the combined recommendation score.
	Score float64 `json:"score"`

	// Scores is the raw per-component breakdown before weighting.
	// Keys: "content", "collaborative", "popularity".
	Scores map[string]float64 `json:"scores,omitempty"`

	// Reason is an interpretable explanation derived from the
	// dominant score component.
	Reason string `json:"reason,omitempty"`
}

// TrendingSong is a song with its play count inside a trending window.
type TrendingSong struct {
	Song models.Song `json:"song"`

	// PlayCount is the number of plays inside the window (or all-time
	// when the window was empty and the all-time fallback was used).
	PlayCount int64 `json:"play_count"`
}

// TrendingResult holds a trending query result.
type TrendingResult struct {
	Songs []TrendingSong `json:"songs"`

	// WindowDays is the lookback window used for counting.
	WindowDays int `json:"window_days"`

	// AllTime is true when no plays fell inside the window and the
	// result was computed over the full history instead.
	AllTime bool `json:"all_time"`
}

// DataProvider defines the interface for fetching catalog and history
// snapshots. This is implemented by the database layer.
type DataProvider interface {
	// ListSongs returns the full song catalog.
	ListSongs(ctx context.Context) ([]models.Song, error)

	// GetSong returns one song, or an error wrapping sql.ErrNoRows
	// semantics via the database layer's not-found error.
	GetSong(ctx context.Context, songID string) (*models.Song, error)

	// ListUserPlays returns all play events for one user, ordered by
	// played_at ascending.
	ListUserPlays(ctx context.Context, userID string) ([]models.PlayEvent, error)

	// ListPlays returns play events for all users since the given
	// time, ordered by user_id then played_at ascending. A zero time
	// returns the full history.
	ListPlays(ctx context.Context, since time.Time) ([]models.PlayEvent, error)

	// PlayCountsSince returns per-song play counts for plays at or
	// after the given time. A zero time counts the full history.
	PlayCountsSince(ctx context.Context, since time.Time) (map[string]int64, error)
}

// Score component names used in Recommendation.Scores.
const (
	ComponentContent       = "content"
	ComponentCollaborative = "collaborative"
	ComponentPopularity    = "popularity"
)
