// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"math"
	"testing"
	"time"

	"github.com/lequangdung2005/melodex/internal/models"
)

func strPtr(s string) *string { return &s }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosineShared(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]float64
		want float64
	}{
		{
			name: "identical vectors",
			a:    map[string]float64{"energy": 1, "tempo": 2},
			b:    map[string]float64{"energy": 1, "tempo": 2},
			want: 1,
		},
		{
			name: "no shared dimensions",
			a:    map[string]float64{"energy": 1},
			b:    map[string]float64{"tempo": 1},
			want: 0,
		},
		{
			name: "empty vectors",
			a:    nil,
			b:    nil,
			want: 0,
		},
		{
			name: "negative similarity clamped to zero",
			a:    map[string]float64{"valence": 1},
			b:    map[string]float64{"valence": -1},
			want: 0,
		},
		{
			name: "only shared dimensions count",
			a:    map[string]float64{"energy": 1, "tempo": 1},
			b:    map[string]float64{"energy": 1, "valence": 9},
			want: 1,
		},
		{
			name: "zero magnitude",
			a:    map[string]float64{"energy": 0},
			b:    map[string]float64{"energy": 1},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineShared(tt.a, tt.b)
			if !almostEqual(got, tt.want) {
				t.Errorf("cosineShared() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestBuildProfile(t *testing.T) {
	songs := map[string]models.Song{
		"s1": {ID: "s1", Artist: "Miles Davis", Genre: strPtr("Jazz"), Features: map[string]float64{"energy": 0.2}},
		"s2": {ID: "s2", Artist: "John Coltrane", Genre: strPtr("Jazz"), Features: map[string]float64{"energy": 0.4}},
		"s3": {ID: "s3", Artist: "Nirvana", Genre: strPtr("Grunge")},
	}

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	plays := []models.PlayEvent{
		{SongID: "s1", PlayedAt: base, Completed: true},
		{SongID: "s2", PlayedAt: base.Add(time.Hour), Completed: true},
		{SongID: "s3", PlayedAt: base.Add(2 * time.Hour), Completed: true},
		{SongID: "s3", PlayedAt: base.Add(3 * time.Hour), Completed: false}, // skipped plays ignored
	}

	cfg := DefaultConfig().Profile
	prof := buildProfile(plays, songs, cfg)

	if prof.completedPlays != 3 {
		t.Errorf("completedPlays = %d, want 3", prof.completedPlays)
	}
	if _, ok := prof.genres["jazz"]; !ok {
		t.Error("profile should contain genre jazz")
	}
	if _, ok := prof.genres["grunge"]; !ok {
		t.Error("profile should contain genre grunge")
	}
	if _, ok := prof.artists["miles davis"]; !ok {
		t.Error("profile should contain artist miles davis")
	}
	// energy average over plays with the dimension: (0.2 + 0.4) / 2
	if !almostEqual(prof.features["energy"], 0.3) {
		t.Errorf("features[energy] = %f, want 0.3", prof.features["energy"])
	}
}

func TestBuildProfileCapsTopEntries(t *testing.T) {
	songs := map[string]models.Song{
		"s1": {ID: "s1", Artist: "A", Genre: strPtr("rock")},
		"s2": {ID: "s2", Artist: "B", Genre: strPtr("jazz")},
		"s3": {ID: "s3", Artist: "C", Genre: strPtr("pop")},
	}

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	plays := []models.PlayEvent{
		{SongID: "s1", PlayedAt: base, Completed: true},
		{SongID: "s1", PlayedAt: base.Add(time.Hour), Completed: true},
		{SongID: "s2", PlayedAt: base.Add(2 * time.Hour), Completed: true},
		{SongID: "s3", PlayedAt: base.Add(3 * time.Hour), Completed: true},
	}

	cfg := DefaultConfig().Profile
	cfg.TopGenres = 2

	prof := buildProfile(plays, songs, cfg)

	if len(prof.genres) != 2 {
		t.Fatalf("genre set size = %d, want 2", len(prof.genres))
	}
	if _, ok := prof.genres["rock"]; !ok {
		t.Error("highest-count genre rock should be kept")
	}
	// jazz and pop both have count 1; jazz was seen first
	if _, ok := prof.genres["jazz"]; !ok {
		t.Error("first-seen tie genre jazz should be kept")
	}
	if _, ok := prof.genres["pop"]; ok {
		t.Error("pop should be dropped by the cap")
	}
}

func TestContentScore(t *testing.T) {
	prof := &tasteProfile{
		genres:   map[string]struct{}{"jazz": {}},
		artists:  map[string]struct{}{"miles davis": {}},
		features: map[string]float64{"energy": 0.5},
	}
	cfg := DefaultConfig().Profile

	tests := []struct {
		name string
		song models.Song
		want float64
	}{
		{
			name: "genre and artist and identical features",
			song: models.Song{Artist: "Miles Davis", Genre: strPtr("Jazz"), Features: map[string]float64{"energy": 0.5}},
			want: 0.4 + 0.3 + 0.3,
		},
		{
			name: "genre only",
			song: models.Song{Artist: "John Coltrane", Genre: strPtr("jazz")},
			want: 0.4,
		},
		{
			name: "artist only",
			song: models.Song{Artist: "miles davis", Genre: strPtr("fusion")},
			want: 0.3,
		},
		{
			name: "missing genre scores zero genre component",
			song: models.Song{Artist: "Miles Davis"},
			want: 0.3,
		},
		{
			name: "no match at all",
			song: models.Song{Artist: "Nirvana", Genre: strPtr("grunge")},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contentScore(&tt.song, prof, cfg)
			if !almostEqual(got, tt.want) {
				t.Errorf("contentScore() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSongSimilarity(t *testing.T) {
	cfg := DefaultConfig().Profile

	a := models.Song{ID: "a", Artist: "Miles Davis", Genre: strPtr("Jazz"), Features: map[string]float64{"energy": 0.5, "tempo": 0.3}}

	tests := []struct {
		name string
		b    models.Song
		want float64
	}{
		{
			name: "same artist same genre identical features",
			b:    models.Song{ID: "b", Artist: "miles davis", Genre: strPtr("jazz"), Features: map[string]float64{"energy": 0.5, "tempo": 0.3}},
			want: 1.0,
		},
		{
			name: "genre only",
			b:    models.Song{ID: "b", Artist: "John Coltrane", Genre: strPtr("JAZZ")},
			want: 0.4,
		},
		{
			name: "both untagged genres do not match",
			b:    models.Song{ID: "b", Artist: "Someone"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := songSimilarity(&a, &tt.b, cfg)
			if !almostEqual(got, tt.want) {
				t.Errorf("songSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSongSimilarityUntaggedSeed(t *testing.T) {
	cfg := DefaultConfig().Profile
	a := models.Song{ID: "a", Artist: "X"}
	b := models.Song{ID: "b", Artist: "Y", Genre: strPtr("jazz")}
	if got := songSimilarity(&a, &b, cfg); got != 0 {
		t.Errorf("similarity with untagged seed = %f, want 0", got)
	}
}

func TestOrderedCounterTop(t *testing.T) {
	c := newOrderedCounter()
	for _, name := range []string{"b", "a", "a", "c", "b", "a"} {
		c.add(name)
	}

	top := c.top(2)
	if len(top) != 2 || top[0] != "a" || top[1] != "b" {
		t.Errorf("top(2) = %v, want [a b]", top)
	}

	counts := c.topCounts(3)
	want := []models.NameCount{{Name: "a", Count: 3}, {Name: "b", Count: 2}, {Name: "c", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("topCounts(3) length = %d, want %d", len(counts), len(want))
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("topCounts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}
}
