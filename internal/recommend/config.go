// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import (
	"fmt"
	"time"
)

// Config contains all tunables for the recommendation engine.
type Config struct {
	// Weights defines the contribution of each score component.
	Weights ComponentWeights `json:"weights"`

	// Profile contains taste profile parameters.
	Profile ProfileConfig `json:"profile"`

	// CoOccurrence contains session co-occurrence parameters.
	CoOccurrence CoOccurrenceConfig `json:"co_occurrence"`

	// RecencyExclusion is how long after a play a song stays out of
	// that user's recommendations.
	// Default: 24h.
	RecencyExclusion time.Duration `json:"recency_exclusion"`

	// ColdStartContent is the neutral content score assigned to every
	// candidate for users with no completed plays.
	// Default: 0.5.
	ColdStartContent float64 `json:"cold_start_content"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains caching parameters.
	Cache CacheConfig `json:"cache"`
}

// ComponentWeights defines the contribution of each score component.
//
// The defaults intentionally sum to 1.1 and are applied as-is without
// renormalization; final scores are rank-only values, not
// probabilities.
type ComponentWeights struct {
	// Content is the weight for content similarity.
	// Default: 0.6.
	Content float64 `json:"content"`

	// Collaborative is the weight for session co-occurrence.
	// Default: 0.4.
	Collaborative float64 `json:"collaborative"`

	// Popularity is the weight for library-wide popularity.
	// Default: 0.1.
	Popularity float64 `json:"popularity"`
}

// ProfileConfig contains taste profile parameters.
type ProfileConfig struct {
	// GenreWeight is the contribution of a genre match.
	// Default: 0.4.
	GenreWeight float64 `json:"genre_weight"`

	// ArtistWeight is the contribution of an artist match.
	// Default: 0.3.
	ArtistWeight float64 `json:"artist_weight"`

	// AudioWeight is the contribution of audio feature similarity.
	// Default: 0.3.
	AudioWeight float64 `json:"audio_weight"`

	// TopGenres is how many genres the profile keeps.
	// Default: 10.
	TopGenres int `json:"top_genres"`

	// TopArtists is how many artists the profile keeps.
	// Default: 15.
	TopArtists int `json:"top_artists"`
}

// CoOccurrenceConfig contains session co-occurrence parameters.
type CoOccurrenceConfig struct {
	// SessionWindow is the time window within which two plays by the
	// same user count as co-occurring.
	// Default: 2h.
	SessionWindow time.Duration `json:"session_window"`

	// RecentSongs is how many distinct recently played songs anchor
	// the collaborative score.
	// Default: 50.
	RecentSongs int `json:"recent_songs"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultLimit is the number of recommendations returned when the
	// request does not specify one.
	// Default: 10.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit is the maximum allowed limit.
	// Default: 50.
	MaxLimit int `json:"max_limit"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled controls whether per-user caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 1000.
	MaxEntries int `json:"max_entries"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: ComponentWeights{
			Content:       0.6,
			Collaborative: 0.4,
			Popularity:    0.1,
		},
		Profile: ProfileConfig{
			GenreWeight:  0.4,
			ArtistWeight: 0.3,
			AudioWeight:  0.3,
			TopGenres:    10,
			TopArtists:   15,
		},
		CoOccurrence: CoOccurrenceConfig{
			SessionWindow: 2 * time.Hour,
			RecentSongs:   50,
		},
		RecencyExclusion: 24 * time.Hour,
		ColdStartContent: 0.5,
		Limits: LimitsConfig{
			DefaultLimit: 10,
			MaxLimit:     50,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1000,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Weights.Content < 0 || c.Weights.Collaborative < 0 || c.Weights.Popularity < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", c.Weights)
	}
	if c.Weights.Content+c.Weights.Collaborative+c.Weights.Popularity == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}

	if c.Profile.GenreWeight < 0 || c.Profile.ArtistWeight < 0 || c.Profile.AudioWeight < 0 {
		return fmt.Errorf("profile weights must be non-negative, got %+v", c.Profile)
	}
	if c.Profile.TopGenres < 1 {
		return fmt.Errorf("profile.top_genres must be positive, got %d", c.Profile.TopGenres)
	}
	if c.Profile.TopArtists < 1 {
		return fmt.Errorf("profile.top_artists must be positive, got %d", c.Profile.TopArtists)
	}

	if c.CoOccurrence.SessionWindow <= 0 {
		return fmt.Errorf("co_occurrence.session_window must be positive, got %v", c.CoOccurrence.SessionWindow)
	}
	if c.CoOccurrence.RecentSongs < 1 {
		return fmt.Errorf("co_occurrence.recent_songs must be positive, got %d", c.CoOccurrence.RecentSongs)
	}

	if c.RecencyExclusion < 0 {
		return fmt.Errorf("recency_exclusion must be non-negative, got %v", c.RecencyExclusion)
	}
	if c.ColdStartContent < 0 || c.ColdStartContent > 1 {
		return fmt.Errorf("cold_start_content must be in [0, 1], got %f", c.ColdStartContent)
	}

	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	clone := *c
	return &clone
}
