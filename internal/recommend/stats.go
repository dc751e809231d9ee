// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lequangdung2005/melodex/internal/metrics"
	"github.com/lequangdung2005/melodex/internal/models"
)

// topStatsEntries is how many genres and artists UserStats reports.
const topStatsEntries = 5

// UserStats aggregates a user's listening history.
//
// Total plays counts completed plays only, while total listening time
// sums the listened duration of every play so partial listens still
// count the time spent. Top genres and artists rank by completed play
// count with first-seen order breaking ties. A user with no history
// gets zeroed stats, not an error.
func (e *Engine) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id must not be empty", ErrInvalidInput)
	}
	defer func(start time.Time) {
		metrics.RecordRecommendation("stats", time.Since(start))
	}(time.Now())

	plays, err := e.provider.ListUserPlays(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user plays: %w", err)
	}

	songs, err := e.provider.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	songsByID := indexSongs(songs)

	stats := &models.UserStats{
		UserID:     userID,
		TopGenres:  []models.NameCount{},
		TopArtists: []models.NameCount{},
	}

	genreCounts := newOrderedCounter()
	artistCounts := newOrderedCounter()

	for _, play := range plays {
		stats.TotalListeningTimeMS += play.DurationMS

		if !play.Completed {
			continue
		}
		stats.TotalPlays++

		song, ok := songsByID[play.SongID]
		if !ok {
			continue
		}
		if g := song.GenreValue(); g != "" {
			genreCounts.add(g)
		}
		if song.Artist != "" {
			artistCounts.add(song.Artist)
		}
	}

	stats.TopGenres = genreCounts.topCounts(topStatsEntries)
	stats.TopArtists = artistCounts.topCounts(topStatsEntries)

	return stats, nil
}
