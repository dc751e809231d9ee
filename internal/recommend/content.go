// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"math"
	"sort"
	"strings"

	"github.com/lequangdung2005/melodex/internal/models"
)

// tasteProfile captures a user's preferences derived from completed
// plays. A user with zero completed plays has no profile (cold start).
type tasteProfile struct {
	// genres and artists are lowercased membership sets of the user's
	// top genres and artists.
	genres  map[string]struct{}
	artists map[string]struct{}

	// features is the per-dimension average of audio features over
	// completed-played songs, weighted by play count.
	features map[string]float64

	// completedPlays is how many completed plays built this profile.
	completedPlays int
}

// buildProfile constructs a taste profile from the user's play history.
// Only completed plays contribute. The plays slice must be ordered by
// played_at ascending so count ties resolve to the first-seen name.
func buildProfile(plays []models.PlayEvent, songs map[string]models.Song, cfg ProfileConfig) *tasteProfile {
	prof := &tasteProfile{
		genres:   make(map[string]struct{}),
		artists:  make(map[string]struct{}),
		features: make(map[string]float64),
	}

	genreCounts := newOrderedCounter()
	artistCounts := newOrderedCounter()
	featureSums := make(map[string]float64)
	featureCounts := make(map[string]int)

	for _, play := range plays {
		if !play.Completed {
			continue
		}
		song, ok := songs[play.SongID]
		if !ok {
			continue
		}

		prof.completedPlays++

		if g := song.GenreValue(); g != "" {
			genreCounts.add(strings.ToLower(g))
		}
		if song.Artist != "" {
			artistCounts.add(strings.ToLower(song.Artist))
		}
		for dim, val := range song.Features {
			featureSums[dim] += val
			featureCounts[dim]++
		}
	}

	for _, name := range genreCounts.top(cfg.TopGenres) {
		prof.genres[name] = struct{}{}
	}
	for _, name := range artistCounts.top(cfg.TopArtists) {
		prof.artists[name] = struct{}{}
	}
	for dim, sum := range featureSums {
		prof.features[dim] = sum / float64(featureCounts[dim])
	}

	return prof
}

// contentScore scores a candidate song against a taste profile.
//
// The score is a weighted sum of a binary genre match, a binary artist
// match, and cosine similarity between the candidate's audio features
// and the profile average. A candidate without a genre tag gets a zero
// genre component rather than an error.
func contentScore(song *models.Song, prof *tasteProfile, cfg ProfileConfig) float64 {
	var genreMatch, artistMatch float64

	if g := song.GenreValue(); g != "" {
		if _, ok := prof.genres[strings.ToLower(g)]; ok {
			genreMatch = 1
		}
	}
	if _, ok := prof.artists[strings.ToLower(song.Artist)]; ok {
		artistMatch = 1
	}

	audio := cosineShared(song.Features, prof.features)

	return cfg.GenreWeight*genreMatch + cfg.ArtistWeight*artistMatch + cfg.AudioWeight*audio
}

// songSimilarity scores how alike two songs are, using the same
// weighting as contentScore with exact genre and artist matching.
func songSimilarity(a, b *models.Song, cfg ProfileConfig) float64 {
	var genreMatch, artistMatch float64

	ga, gb := a.GenreValue(), b.GenreValue()
	if ga != "" && gb != "" && strings.EqualFold(ga, gb) {
		genreMatch = 1
	}
	if a.Artist != "" && strings.EqualFold(a.Artist, b.Artist) {
		artistMatch = 1
	}

	audio := cosineShared(a.Features, b.Features)

	return cfg.GenreWeight*genreMatch + cfg.ArtistWeight*artistMatch + cfg.AudioWeight*audio
}

// cosineShared computes cosine similarity over the dimensions present
// in both vectors, clamped to [0, 1]. No shared dimensions yields 0.
func cosineShared(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	shared := false

	for dim, va := range a {
		vb, ok := b[dim]
		if !ok {
			continue
		}
		shared = true
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}

	if !shared || normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// orderedCounter counts string occurrences while remembering insertion
// order, so ranking ties resolve to the name seen first.
type orderedCounter struct {
	counts map[string]int
	order  map[string]int
	next   int
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{
		counts: make(map[string]int),
		order:  make(map[string]int),
	}
}

func (c *orderedCounter) add(name string) {
	if _, seen := c.counts[name]; !seen {
		c.order[name] = c.next
		c.next++
	}
	c.counts[name]++
}

// top returns up to n names ranked by count descending, first-seen
// order breaking ties.
func (c *orderedCounter) top(n int) []string {
	names := make([]string, 0, len(c.counts))
	for name := range c.counts {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		ci, cj := c.counts[names[i]], c.counts[names[j]]
		if ci != cj {
			return ci > cj
		}
		return c.order[names[i]] < c.order[names[j]]
	})

	if len(names) > n {
		names = names[:n]
	}
	return names
}

// topCounts is like top but returns name/count pairs, used for stats.
func (c *orderedCounter) topCounts(n int) []models.NameCount {
	out := make([]models.NameCount, 0, n)
	for _, name := range c.top(n) {
		out = append(out, models.NameCount{Name: name, Count: c.counts[name]})
	}
	return out
}
