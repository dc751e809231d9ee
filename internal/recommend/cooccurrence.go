// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"time"

	"github.com/lequangdung2005/melodex/internal/models"
)

// pairKey identifies an unordered song pair.
type pairKey struct {
	a, b string
}

func makePairKey(x, y string) pairKey {
	if x < y {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

// coOccurrence holds session co-occurrence counts over the full play
// history. Two plays by the same user within the session window count
// as one co-occurrence of their (distinct) song pair.
type coOccurrence struct {
	pairs map[pairKey]int
}

// buildCoOccurrence counts song pairs across all users' play streams.
// The plays slice must be grouped by user and ordered by played_at
// ascending within each user.
func buildCoOccurrence(plays []models.PlayEvent, window time.Duration) *coOccurrence {
	co := &coOccurrence{pairs: make(map[pairKey]int)}

	for start := 0; start < len(plays); {
		end := start
		for end < len(plays) && plays[end].UserID == plays[start].UserID {
			end++
		}
		co.addUserStream(plays[start:end], window)
		start = end
	}

	return co
}

// addUserStream counts ALL pairs of plays within the window for a
// single user's time-ordered stream, not just adjacent ones. Repeat
// plays of the same song inside a window do not pair with themselves.
func (co *coOccurrence) addUserStream(plays []models.PlayEvent, window time.Duration) {
	for i := 0; i < len(plays); i++ {
		for j := i + 1; j < len(plays); j++ {
			if plays[j].PlayedAt.Sub(plays[i].PlayedAt) > window {
				break
			}
			if plays[i].SongID == plays[j].SongID {
				continue
			}
			co.pairs[makePairKey(plays[i].SongID, plays[j].SongID)]++
		}
	}
}

// pairCount returns how many times two songs co-occurred.
func (co *coOccurrence) pairCount(x, y string) int {
	return co.pairs[makePairKey(x, y)]
}

// collaborativeScore scores a candidate by how many of the user's
// recent songs it has co-occurred with, normalized by the recent set
// size. The score is the fraction of recent songs the candidate is
// paired with, so it stays in [0, 1].
func (co *coOccurrence) collaborativeScore(candidate string, recent []string) float64 {
	if len(recent) == 0 {
		return 0
	}

	paired := 0
	for _, songID := range recent {
		if songID == candidate {
			continue
		}
		if co.pairCount(candidate, songID) > 0 {
			paired++
		}
	}

	return float64(paired) / float64(max(1, len(recent)))
}

// recentSongs returns up to limit distinct song IDs from the user's
// plays, most recent first. The plays slice must be ordered by
// played_at ascending.
func recentSongs(plays []models.PlayEvent, limit int) []string {
	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)

	for i := len(plays) - 1; i >= 0 && len(out) < limit; i-- {
		id := plays[i].SongID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
