// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package models

import (
	"time"
)

// Song represents a single track in the user's library catalog.
//
// Genre is a pointer because a track may be untagged; scoring treats a
// missing genre as a zero genre-match rather than an error. Features
// holds the audio analysis vector as named dimensions (for example
// "tempo", "energy", "danceability", "valence", "acousticness"); only
// dimensions actually present for the track appear in the map.
type Song struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Artist     string             `json:"artist"`
	Album      *string            `json:"album,omitempty"`
	Genre      *string            `json:"genre,omitempty"`
	DurationMS int64              `json:"duration_ms"`
	Features   map[string]float64 `json:"features,omitempty"`
	PlayCount  int64              `json:"play_count"`
	SkipCount  int64              `json:"skip_count"`
	CreatedAt  time.Time          `json:"created_at"`
}

// GenreValue returns the song's genre, or "" when untagged.
func (s *Song) GenreValue() string {
	if s.Genre == nil {
		return ""
	}
	return *s.Genre
}

// PlayEvent records one playback of a song by a user.
//
// Completed is derived from CompletionRate at ingest time: a play counts
// as completed when at least 80% of the track was heard. CompletionRate
// is in [0, 1].
type PlayEvent struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	SongID         string    `json:"song_id"`
	PlayedAt       time.Time `json:"played_at"`
	DurationMS     int64     `json:"duration_ms"`
	CompletionRate float64   `json:"completion_rate"`
	Completed      bool      `json:"completed"`
}

// SkipEvent records a user skipping a song before the completion
// threshold. PositionMS is how far into the track the skip happened.
type SkipEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SongID     string    `json:"song_id"`
	SkippedAt  time.Time `json:"skipped_at"`
	PositionMS int64     `json:"position_ms"`
}

// Favorite is an explicit user bookmark on a song. Favorites are a
// library feature and do not influence recommendation scoring.
type Favorite struct {
	UserID    string    `json:"user_id"`
	SongID    string    `json:"song_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletionThreshold is the minimum completion rate for a play to
// count as completed.
const CompletionThreshold = 0.8
