// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package models

// NameCount pairs a label (genre or artist name) with how many
// completed plays it accumulated.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UserStats aggregates one user's listening history.
//
// TotalPlays counts completed plays only. TotalListeningTimeMS sums the
// listened duration across all plays, completed or not, so partial
// listens still contribute the time actually spent. TopGenres and
// TopArtists hold at most five entries each, ranked by completed play
// count with first-seen order breaking ties.
type UserStats struct {
	UserID               string      `json:"user_id"`
	TotalPlays           int         `json:"total_plays"`
	TotalListeningTimeMS int64       `json:"total_listening_time_ms"`
	TopGenres            []NameCount `json:"top_genres"`
	TopArtists           []NameCount `json:"top_artists"`
}
