// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

// Package main is the entry point for the Melodex server.
//
// Melodex is a self-hosted recommendation engine for a personal music
// library. It scores songs by blending content similarity against the
// listener's taste profile, session co-occurrence across listening
// histories, and library-wide popularity, and serves the results over
// a JSON API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config.yaml and
//     environment variables (Koanf v2)
//  2. Database: DuckDB catalog and event store
//  3. Recommendation engine: scoring plus a TTL cache
//  4. Ingestion: Watermill in-process pipeline with retries, a
//     circuit breaker and a poison queue
//  5. Authentication: JWT or no-auth mode
//  6. HTTP server: chi REST API with Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (see envTransformFunc in internal/config)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// For JWT authentication:
//   - JWT_SECRET: 32+ character secret for token signing
//   - AUTH_MODE=jwt
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Drains the ingestion pipeline
//   - Closes the database, checkpointing the WAL
//
// # Example Usage
//
// Single-user development mode:
//
//	export AUTH_MODE=none
//	export DUCKDB_PATH=./melodex.db
//	./melodex
//
// Production with JWT:
//
//	export AUTH_MODE=jwt
//	export JWT_SECRET=$(openssl rand -base64 32)
//	./melodex
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/lequangdung2005/melodex/internal/api"
	"github.com/lequangdung2005/melodex/internal/auth"
	"github.com/lequangdung2005/melodex/internal/config"
	"github.com/lequangdung2005/melodex/internal/database"
	"github.com/lequangdung2005/melodex/internal/ingest"
	"github.com/lequangdung2005/melodex/internal/logging"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

// shutdownTimeout bounds how long in-flight requests may take to
// finish once a shutdown signal arrives.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("environment", cfg.Server.Environment).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	engine, err := recommend.NewEngine(engineConfig(cfg), db, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	ingestSvc, err := ingest.NewService(&cfg.Ingest, db, engine, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize ingestion pipeline")
	}

	authn, err := auth.NewAuthenticator(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authenticator")
	}

	handler := api.NewHandler(engine, db, ingestSvc, authn, cfg, logging.Logger())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run the ingestion router; its handlers must be up before the
	// API accepts events.
	ingestErr := make(chan error, 1)
	go func() {
		ingestErr <- ingestSvc.Run(ctx)
	}()
	select {
	case <-ingestSvc.Running():
	case err := <-ingestErr:
		logging.Fatal().Err(err).Msg("Ingestion pipeline failed to start")
	}
	logging.Info().Msg("Ingestion pipeline running")

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal")
	case err := <-serverErr:
		logging.Error().Err(err).Msg("HTTP server failed")
		cancel()
	case err := <-ingestErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Ingestion pipeline failed")
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := ingestSvc.Close(); err != nil {
		logging.Error().Err(err).Msg("Ingestion pipeline shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// engineConfig maps the application configuration onto the engine
// defaults, overriding only the operational knobs exposed in config.
func engineConfig(cfg *config.Config) *recommend.Config {
	ec := recommend.DefaultConfig()
	ec.Limits.DefaultLimit = cfg.Recommend.DefaultLimit
	ec.Limits.MaxLimit = cfg.Recommend.MaxLimit
	if cfg.Recommend.CacheTTL > 0 {
		ec.Cache.TTL = cfg.Recommend.CacheTTL
	} else {
		ec.Cache.Enabled = false
	}
	return ec
}
