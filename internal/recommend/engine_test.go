// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/lequangdung2005/melodex/internal/logging"
	"github.com/lequangdung2005/melodex/internal/models"
)

// fakeProvider serves fixed snapshots for engine tests.
type fakeProvider struct {
	songs []models.Song
	plays []models.PlayEvent // grouped by user, ordered by played_at
}

func (f *fakeProvider) ListSongs(_ context.Context) ([]models.Song, error) {
	return append([]models.Song(nil), f.songs...), nil
}

func (f *fakeProvider) GetSong(_ context.Context, songID string) (*models.Song, error) {
	for i := range f.songs {
		if f.songs[i].ID == songID {
			s := f.songs[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("song %s: %w", songID, ErrNotFound)
}

func (f *fakeProvider) ListUserPlays(_ context.Context, userID string) ([]models.PlayEvent, error) {
	var out []models.PlayEvent
	for _, p := range f.plays {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProvider) ListPlays(_ context.Context, since time.Time) ([]models.PlayEvent, error) {
	var out []models.PlayEvent
	for _, p := range f.plays {
		if since.IsZero() || !p.PlayedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProvider) PlayCountsSince(_ context.Context, since time.Time) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, p := range f.plays {
		if since.IsZero() || !p.PlayedAt.Before(since) {
			counts[p.SongID]++
		}
	}
	return counts, nil
}

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testCatalog() []models.Song {
	return []models.Song{
		{ID: "s1", Title: "Blue in Green", Artist: "Miles Davis", Genre: strPtr("jazz"),
			Features: map[string]float64{"energy": 0.3, "tempo": 0.4}, PlayCount: 10},
		{ID: "s2", Title: "So What", Artist: "Miles Davis", Genre: strPtr("jazz"), PlayCount: 8},
		{ID: "s3", Title: "Smells Like Teen Spirit", Artist: "Nirvana", Genre: strPtr("grunge"), PlayCount: 20},
		{ID: "s4", Title: "Giant Steps", Artist: "John Coltrane", Genre: strPtr("jazz"), PlayCount: 5},
	}
}

func newTestEngine(t *testing.T, provider DataProvider) *Engine {
	t.Helper()
	eng, err := NewEngine(DefaultConfig(), provider, logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.now = func() time.Time { return testNow }
	return eng
}

func TestForUserRankingAndReasons(t *testing.T) {
	provider := &fakeProvider{
		songs: testCatalog(),
		plays: []models.PlayEvent{
			{UserID: "u1", SongID: "s1", PlayedAt: testNow.Add(-72 * time.Hour), DurationMS: 1000, CompletionRate: 1, Completed: true},
			{UserID: "u1", SongID: "s2", PlayedAt: testNow.Add(-71 * time.Hour), DurationMS: 1000, CompletionRate: 1, Completed: true},
			{UserID: "u1", SongID: "s1", PlayedAt: testNow.Add(-time.Hour), DurationMS: 1000, CompletionRate: 1, Completed: true},
		},
	}
	eng := newTestEngine(t, provider)

	recs, err := eng.ForUser(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}

	// s1 was played an hour ago and must be excluded.
	for _, r := range recs {
		if r.Song.ID == "s1" {
			t.Error("recently played s1 should be excluded")
		}
	}

	if len(recs) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(recs))
	}

	// s2: content 0.7 (genre + artist), collab 0.5 (paired with s1 of
	// the two recent songs), popularity 8/20.
	// final = 0.6*0.7 + 0.4*0.5 + 0.1*0.4 = 0.66
	if recs[0].Song.ID != "s2" {
		t.Errorf("top recommendation = %s, want s2", recs[0].Song.ID)
	}
	if !almostEqual(recs[0].Score, 0.66) {
		t.Errorf("s2 score = %f, want 0.66", recs[0].Score)
	}
	if recs[0].Reason != "More from Miles Davis" {
		t.Errorf("s2 reason = %q, want artist reason", recs[0].Reason)
	}

	// s4: genre-only content 0.4, popularity 5/20.
	// final = 0.6*0.4 + 0.1*0.25 = 0.265
	if recs[1].Song.ID != "s4" {
		t.Errorf("second recommendation = %s, want s4", recs[1].Song.ID)
	}
	if !almostEqual(recs[1].Score, 0.265) {
		t.Errorf("s4 score = %f, want 0.265", recs[1].Score)
	}
	if recs[1].Reason != "Similar to your favorite jazz songs" {
		t.Errorf("s4 reason = %q, want genre reason", recs[1].Reason)
	}

	// s3: popularity only. final = 0.1 * 20/20 = 0.1
	if recs[2].Song.ID != "s3" {
		t.Errorf("third recommendation = %s, want s3", recs[2].Song.ID)
	}
	if !almostEqual(recs[2].Score, 0.1) {
		t.Errorf("s3 score = %f, want 0.1", recs[2].Score)
	}
	if recs[2].Reason != "Popular in your library" {
		t.Errorf("s3 reason = %q, want popularity reason", recs[2].Reason)
	}
}

func TestForUserColdStart(t *testing.T) {
	provider := &fakeProvider{songs: testCatalog()}
	eng := newTestEngine(t, provider)

	recs, err := eng.ForUser(context.Background(), "newcomer", 10)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d recommendations, want 4", len(recs))
	}

	// Popularity dominates ordering under a neutral content score.
	if recs[0].Song.ID != "s3" {
		t.Errorf("top cold start recommendation = %s, want most-played s3", recs[0].Song.ID)
	}
	// content 0.5 neutral, collab 0, popularity 1 for s3:
	// final = 0.6*0.5 + 0.1*1.0 = 0.4
	if !almostEqual(recs[0].Score, 0.4) {
		t.Errorf("cold start top score = %f, want 0.4", recs[0].Score)
	}
	for _, r := range recs {
		if r.Reason != "Discover something new" {
			t.Errorf("cold start reason = %q, want discovery reason", r.Reason)
		}
		if !almostEqual(r.Scores[ComponentContent], 0.5) {
			t.Errorf("cold start content score = %f, want 0.5", r.Scores[ComponentContent])
		}
		if r.Scores[ComponentCollaborative] != 0 {
			t.Errorf("cold start collaborative score = %f, want 0", r.Scores[ComponentCollaborative])
		}
	}
}

func TestForUserEmptyCatalog(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{})

	recs, err := eng.ForUser(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("empty catalog should not be an error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d recommendations from empty catalog, want 0", len(recs))
	}
}

func TestForUserInvalidInput(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{songs: testCatalog()})

	if _, err := eng.ForUser(context.Background(), "  ", 10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank user id error = %v, want ErrInvalidInput", err)
	}
	if _, err := eng.ForUser(context.Background(), "u1", -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative limit error = %v, want ErrInvalidInput", err)
	}
}

func TestForUserLimitClamping(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{songs: testCatalog()})

	recs, err := eng.ForUser(context.Background(), "u1", 2)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d recommendations, want limit 2", len(recs))
	}
}

func TestForUserCacheAndInvalidation(t *testing.T) {
	provider := &fakeProvider{songs: testCatalog()}
	eng := newTestEngine(t, provider)
	ctx := context.Background()

	first, err := eng.ForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ForUser: %v", err)
	}

	// Mutate the catalog; the cached result should mask the change.
	provider.songs = provider.songs[:1]
	cached, err := eng.ForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ForUser cached: %v", err)
	}
	if len(cached) != len(first) {
		t.Errorf("cached result length = %d, want %d", len(cached), len(first))
	}

	eng.InvalidateUser("u1")
	fresh, err := eng.ForUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ForUser after invalidation: %v", err)
	}
	if len(fresh) != 1 {
		t.Errorf("post-invalidation result length = %d, want 1", len(fresh))
	}
}

func TestSimilar(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{songs: testCatalog()})

	recs, err := eng.Similar(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}

	for _, r := range recs {
		if r.Song.ID == "s1" {
			t.Error("seed song should not appear in its own similar list")
		}
	}

	// s2 shares artist and genre with s1: 0.4 + 0.3 = 0.7.
	if recs[0].Song.ID != "s2" {
		t.Errorf("most similar = %s, want s2", recs[0].Song.ID)
	}
	if !almostEqual(recs[0].Score, 0.7) {
		t.Errorf("s2 similarity = %f, want 0.7", recs[0].Score)
	}

	// s4 shares only genre: 0.4. s3 shares nothing: 0.
	if recs[1].Song.ID != "s4" || !almostEqual(recs[1].Score, 0.4) {
		t.Errorf("second similar = %s (%f), want s4 (0.4)", recs[1].Song.ID, recs[1].Score)
	}
	if recs[2].Song.ID != "s3" || recs[2].Score != 0 {
		t.Errorf("third similar = %s (%f), want s3 (0)", recs[2].Song.ID, recs[2].Score)
	}
}

func TestSimilarNotFound(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{songs: testCatalog()})

	_, err := eng.Similar(context.Background(), "missing", 10)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTrendingWindow(t *testing.T) {
	provider := &fakeProvider{
		songs: testCatalog(),
		plays: []models.PlayEvent{
			{UserID: "u1", SongID: "s1", PlayedAt: testNow.Add(-time.Hour)},
			{UserID: "u1", SongID: "s1", PlayedAt: testNow.Add(-2 * time.Hour)},
			{UserID: "u2", SongID: "s2", PlayedAt: testNow.Add(-3 * time.Hour)},
			{UserID: "u1", SongID: "s3", PlayedAt: testNow.Add(-30 * 24 * time.Hour)}, // outside 7d window
		},
	}
	eng := newTestEngine(t, provider)

	result, err := eng.Trending(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if result.AllTime {
		t.Error("window had plays; all-time fallback should not trigger")
	}
	if len(result.Songs) != 2 {
		t.Fatalf("got %d trending songs, want 2", len(result.Songs))
	}
	if result.Songs[0].Song.ID != "s1" || result.Songs[0].PlayCount != 2 {
		t.Errorf("top trending = %s (%d), want s1 (2)", result.Songs[0].Song.ID, result.Songs[0].PlayCount)
	}
	if result.Songs[1].Song.ID != "s2" || result.Songs[1].PlayCount != 1 {
		t.Errorf("second trending = %s (%d), want s2 (1)", result.Songs[1].Song.ID, result.Songs[1].PlayCount)
	}
}

func TestTrendingAllTimeFallback(t *testing.T) {
	// No recorded plays at all. The fallback ranks the whole catalog
	// by lifetime play count, including songs never played.
	songs := append(testCatalog(), models.Song{ID: "s5", Title: "Naima", Artist: "John Coltrane"})
	provider := &fakeProvider{songs: songs}
	eng := newTestEngine(t, provider)

	result, err := eng.Trending(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if !result.AllTime {
		t.Error("empty window should fall back to all-time play counts")
	}
	if len(result.Songs) != 5 {
		t.Fatalf("got %d trending songs, want the full catalog of 5", len(result.Songs))
	}
	wantOrder := []string{"s3", "s1", "s2", "s4", "s5"}
	for i, want := range wantOrder {
		if result.Songs[i].Song.ID != want {
			t.Errorf("rank %d = %s, want %s", i, result.Songs[i].Song.ID, want)
		}
	}
	if result.Songs[0].PlayCount != 20 {
		t.Errorf("top play count = %d, want 20", result.Songs[0].PlayCount)
	}
	if result.Songs[4].PlayCount != 0 {
		t.Errorf("unplayed song play count = %d, want 0", result.Songs[4].PlayCount)
	}
}

func TestTrendingAllTimeUsesOldPlays(t *testing.T) {
	// Plays exist but all outside the window; the fallback still ranks
	// by lifetime catalog counts, not the stale window query.
	provider := &fakeProvider{
		songs: testCatalog(),
		plays: []models.PlayEvent{
			{UserID: "u1", SongID: "s2", PlayedAt: testNow.Add(-60 * 24 * time.Hour)},
		},
	}
	eng := newTestEngine(t, provider)

	result, err := eng.Trending(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if !result.AllTime {
		t.Error("empty window should fall back to all-time play counts")
	}
	if len(result.Songs) != 4 {
		t.Fatalf("got %d trending songs, want 4", len(result.Songs))
	}
	if result.Songs[0].Song.ID != "s3" || result.Songs[0].PlayCount != 20 {
		t.Errorf("top trending = %s (%d), want s3 (20)", result.Songs[0].Song.ID, result.Songs[0].PlayCount)
	}
}

func TestTrendingInvalidWindow(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{songs: testCatalog()})

	if _, err := eng.Trending(context.Background(), 0, 10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero window error = %v, want ErrInvalidInput", err)
	}
}

func TestClampLimit(t *testing.T) {
	eng := newTestEngine(t, &fakeProvider{})

	tests := []struct {
		in   int
		want int
	}{
		{0, eng.config.Limits.DefaultLimit},
		{5, 5},
		{1000, eng.config.Limits.MaxLimit},
	}
	for _, tt := range tests {
		got, err := eng.clampLimit(tt.in)
		if err != nil {
			t.Fatalf("clampLimit(%d): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
