// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lequangdung2005/melodex/internal/metrics"
	"github.com/lequangdung2005/melodex/internal/models"
)

// Engine produces recommendations over snapshots fetched from the
// DataProvider. It is safe for concurrent use.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	provider DataProvider

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	// now is stubbed in tests.
	now func() time.Time
}

// cacheEntry holds a cached recommendation list.
type cacheEntry struct {
	recs      []Recommendation
	expiresAt time.Time
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, provider DataProvider, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		provider: provider,
		cache:    make(map[string]cacheEntry),
		now:      time.Now,
	}, nil
}

// ForUser generates personalized recommendations for a user.
//
// Songs the user played within the recency exclusion window are left
// out. Users with no completed plays get the cold start path: a
// neutral content score for every candidate, zero collaborative
// score, and ordering dominated by popularity.
func (e *Engine) ForUser(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id must not be empty", ErrInvalidInput)
	}
	limit, err := e.clampLimit(limit)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("user:%s:%d", userID, limit)
	if recs, ok := e.checkCache(cacheKey); ok {
		metrics.RecommendCacheHits.Inc()
		return recs, nil
	}
	metrics.RecommendCacheMisses.Inc()
	defer func(start time.Time) {
		metrics.RecordRecommendation("for_user", time.Since(start))
	}(time.Now())

	songs, err := e.provider.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	if len(songs) == 0 {
		return []Recommendation{}, nil
	}

	userPlays, err := e.provider.ListUserPlays(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user plays: %w", err)
	}

	songsByID := indexSongs(songs)
	profile := buildProfile(userPlays, songsByID, e.config.Profile)
	coldStart := profile.completedPlays < 1

	var co *coOccurrence
	var recent []string
	if !coldStart {
		allPlays, err := e.provider.ListPlays(ctx, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("list plays: %w", err)
		}
		co = buildCoOccurrence(allPlays, e.config.CoOccurrence.SessionWindow)
		recent = recentSongs(userPlays, e.config.CoOccurrence.RecentSongs)
	}

	excluded := e.recentlyPlayed(userPlays)
	maxPlayCount := maxCatalogPlayCount(songs)

	recs := make([]Recommendation, 0, len(songs))
	for i := range songs {
		song := &songs[i]
		if _, skip := excluded[song.ID]; skip {
			continue
		}

		content := e.config.ColdStartContent
		collab := 0.0
		if !coldStart {
			content = contentScore(song, profile, e.config.Profile)
			collab = co.collaborativeScore(song.ID, recent)
		}
		popularity := 0.0
		if maxPlayCount > 0 {
			popularity = float64(song.PlayCount) / float64(maxPlayCount)
		}

		w := e.config.Weights
		rec := Recommendation{
			Song:  *song,
			Score: w.Content*content + w.Collaborative*collab + w.Popularity*popularity,
			Scores: map[string]float64{
				ComponentContent:       content,
				ComponentCollaborative: collab,
				ComponentPopularity:    popularity,
			},
		}
		rec.Reason = e.reason(song, profile, coldStart, rec.Scores)
		recs = append(recs, rec)
	}

	sortRecommendations(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	e.storeCache(cacheKey, recs)

	e.logger.Debug().
		Str("user_id", userID).
		Bool("cold_start", coldStart).
		Int("returned", len(recs)).
		Msg("recommendations generated")

	return recs, nil
}

// Similar returns songs most alike the given song by content
// similarity alone. No recency exclusion or popularity weighting is
// applied.
func (e *Engine) Similar(ctx context.Context, songID string, limit int) ([]Recommendation, error) {
	if strings.TrimSpace(songID) == "" {
		return nil, fmt.Errorf("%w: song id must not be empty", ErrInvalidInput)
	}
	limit, err := e.clampLimit(limit)
	if err != nil {
		return nil, err
	}
	defer func(start time.Time) {
		metrics.RecordRecommendation("similar", time.Since(start))
	}(time.Now())

	seed, err := e.provider.GetSong(ctx, songID)
	if err != nil {
		return nil, fmt.Errorf("get song %s: %w", songID, err)
	}

	songs, err := e.provider.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}

	recs := make([]Recommendation, 0, len(songs))
	for i := range songs {
		song := &songs[i]
		if song.ID == seed.ID {
			continue
		}

		score := songSimilarity(seed, song, e.config.Profile)
		recs = append(recs, Recommendation{
			Song:   *song,
			Score:  score,
			Scores: map[string]float64{ComponentContent: score},
			Reason: fmt.Sprintf("Similar to %s", seed.Title),
		})
	}

	sortRecommendations(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	return recs, nil
}

// Trending returns the most played songs within the given window in
// days. When no plays fall inside the window the result falls back to
// all-time play counts and marks the response accordingly.
func (e *Engine) Trending(ctx context.Context, windowDays, limit int) (*TrendingResult, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("%w: window days must be at least 1, got %d", ErrInvalidInput, windowDays)
	}
	limit, err := e.clampLimit(limit)
	if err != nil {
		return nil, err
	}
	defer func(start time.Time) {
		metrics.RecordRecommendation("trending", time.Since(start))
	}(time.Now())

	since := e.now().Add(-time.Duration(windowDays) * 24 * time.Hour)
	counts, err := e.provider.PlayCountsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("play counts: %w", err)
	}

	songs, err := e.provider.ListSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}

	allTime := false
	var trending []TrendingSong
	if len(counts) == 0 {
		// Nothing played inside the window. Rank the whole catalog by
		// lifetime play count so a quiet library still surfaces songs.
		allTime = true
		trending = make([]TrendingSong, 0, len(songs))
		for _, song := range songs {
			trending = append(trending, TrendingSong{Song: song, PlayCount: song.PlayCount})
		}
	} else {
		songsByID := indexSongs(songs)
		trending = make([]TrendingSong, 0, len(counts))
		for songID, count := range counts {
			song, ok := songsByID[songID]
			if !ok {
				continue
			}
			trending = append(trending, TrendingSong{Song: song, PlayCount: count})
		}
	}

	sort.Slice(trending, func(i, j int) bool {
		if trending[i].PlayCount != trending[j].PlayCount {
			return trending[i].PlayCount > trending[j].PlayCount
		}
		return trending[i].Song.ID < trending[j].Song.ID
	})
	if len(trending) > limit {
		trending = trending[:limit]
	}

	return &TrendingResult{
		Songs:      trending,
		WindowDays: windowDays,
		AllTime:    allTime,
	}, nil
}

// InvalidateUser removes cached recommendations for a user. Ingestion
// calls this when new events for the user arrive.
func (e *Engine) InvalidateUser(userID string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	prefix := "user:" + userID + ":"
	for key := range e.cache {
		if strings.HasPrefix(key, prefix) {
			delete(e.cache, key)
		}
	}
	metrics.RecommendCacheInvalidations.Inc()
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// clampLimit applies the default and maximum limits.
func (e *Engine) clampLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidInput, limit)
	}
	if limit == 0 {
		return e.config.Limits.DefaultLimit, nil
	}
	if limit > e.config.Limits.MaxLimit {
		return e.config.Limits.MaxLimit, nil
	}
	return limit, nil
}

// recentlyPlayed returns the set of song IDs the user played within
// the recency exclusion window.
func (e *Engine) recentlyPlayed(plays []models.PlayEvent) map[string]struct{} {
	cutoff := e.now().Add(-e.config.RecencyExclusion)
	out := make(map[string]struct{})
	for i := len(plays) - 1; i >= 0; i-- {
		if plays[i].PlayedAt.Before(cutoff) {
			break
		}
		out[plays[i].SongID] = struct{}{}
	}
	return out
}

// reason derives an explanation from the dominant weighted component.
func (e *Engine) reason(song *models.Song, prof *tasteProfile, coldStart bool, scores map[string]float64) string {
	if coldStart {
		return "Discover something new"
	}

	w := e.config.Weights
	content := w.Content * scores[ComponentContent]
	collab := w.Collaborative * scores[ComponentCollaborative]
	popularity := w.Popularity * scores[ComponentPopularity]

	if content == 0 && collab == 0 && popularity == 0 {
		return "Discover something new"
	}

	switch {
	case content >= collab && content >= popularity:
		if _, ok := prof.artists[strings.ToLower(song.Artist)]; ok {
			return fmt.Sprintf("More from %s", song.Artist)
		}
		if g := song.GenreValue(); g != "" {
			if _, ok := prof.genres[strings.ToLower(g)]; ok {
				return fmt.Sprintf("Similar to your favorite %s songs", g)
			}
		}
		return "Matches the sound of songs you love"
	case collab >= popularity:
		return "Frequently played with your recent listening"
	default:
		return "Popular in your library"
	}
}

// checkCache returns a cached list if present and unexpired.
func (e *Engine) checkCache(key string) ([]Recommendation, bool) {
	if !e.config.Cache.Enabled {
		return nil, false
	}

	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok || e.now().After(entry.expiresAt) {
		return nil, false
	}

	recs := make([]Recommendation, len(entry.recs))
	copy(recs, entry.recs)
	return recs, true
}

// storeCache caches a recommendation list.
func (e *Engine) storeCache(key string, recs []Recommendation) {
	if !e.config.Cache.Enabled {
		return
	}

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}

	e.cache[key] = cacheEntry{
		recs:      recs,
		expiresAt: e.now().Add(e.config.Cache.TTL),
	}
}

// evictExpiredLocked removes expired entries. Caller holds cacheMu.
func (e *Engine) evictExpiredLocked() {
	now := e.now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}

// sortRecommendations orders by score descending, breaking ties by
// catalog play count descending then song ID ascending for stable,
// deterministic output.
func sortRecommendations(recs []Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		if recs[i].Song.PlayCount != recs[j].Song.PlayCount {
			return recs[i].Song.PlayCount > recs[j].Song.PlayCount
		}
		return recs[i].Song.ID < recs[j].Song.ID
	})
}

// indexSongs builds an ID lookup for a catalog snapshot.
func indexSongs(songs []models.Song) map[string]models.Song {
	byID := make(map[string]models.Song, len(songs))
	for _, s := range songs {
		byID[s.ID] = s
	}
	return byID
}

// maxCatalogPlayCount returns the highest play count in the catalog.
func maxCatalogPlayCount(songs []models.Song) int64 {
	var maxCount int64
	for i := range songs {
		if songs[i].PlayCount > maxCount {
			maxCount = songs[i].PlayCount
		}
	}
	return maxCount
}
