// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

// Package config handles application configuration loading and validation.
//
// Configuration is loaded in three layers with increasing precedence:
// built-in defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the Melodex server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use runtime.NumCPU()
}

// APIConfig holds API pagination settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// AuthMode is "none" (single-user, trusts the user_id in the path)
	// or "jwt" (HS256 bearer tokens, subject claim is the user ID).
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// IngestConfig holds event ingestion pipeline settings. Events flow
// through an in-process Watermill router; failed events land in the
// poison queue and are persisted for inspection.
type IngestConfig struct {
	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	PoisonQueueTopic     string        `koanf:"poison_queue_topic"`
	CloseTimeout         time.Duration `koanf:"close_timeout"`

	// Circuit breaker around database writes.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// DefaultLimit is the number of recommendations returned when the
	// request does not specify one.
	DefaultLimit int `koanf:"default_limit"`
	MaxLimit     int `koanf:"max_limit"`

	// SimilarDefaultLimit is the result count for similar-song queries
	// when the request does not specify one.
	SimilarDefaultLimit int `koanf:"similar_default_limit"`

	// TrendingDefaultLimit is the result count for trending queries
	// when the request does not specify one.
	TrendingDefaultLimit int `koanf:"trending_default_limit"`

	// TrendingWindowDays is the default lookback for trending queries.
	TrendingWindowDays int `koanf:"trending_window_days"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	env := strings.ToLower(c.Server.Environment)
	if env != "development" && env != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must not be negative, got %d", c.Database.Threads)
	}

	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be at least api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	switch c.Security.AuthMode {
	case "none":
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters when auth_mode is jwt")
		}
	default:
		return fmt.Errorf("security.auth_mode must be none or jwt, got %q", c.Security.AuthMode)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	if c.Ingest.RetryCount < 0 {
		return fmt.Errorf("ingest.retry_count must not be negative, got %d", c.Ingest.RetryCount)
	}
	if c.Ingest.PoisonQueueTopic == "" {
		return fmt.Errorf("ingest.poison_queue_topic must not be empty")
	}

	if c.Recommend.CacheTTL < 0 {
		return fmt.Errorf("recommend.cache_ttl must not be negative, got %s", c.Recommend.CacheTTL)
	}
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be at least 1, got %d", c.Recommend.DefaultLimit)
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must be at least recommend.default_limit (%d)",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	if c.Recommend.SimilarDefaultLimit < 1 {
		return fmt.Errorf("recommend.similar_default_limit must be at least 1, got %d", c.Recommend.SimilarDefaultLimit)
	}
	if c.Recommend.TrendingDefaultLimit < 1 {
		return fmt.Errorf("recommend.trending_default_limit must be at least 1, got %d", c.Recommend.TrendingDefaultLimit)
	}
	if c.Recommend.TrendingWindowDays < 1 {
		return fmt.Errorf("recommend.trending_window_days must be at least 1, got %d", c.Recommend.TrendingWindowDays)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Server.Environment) == "production"
}
