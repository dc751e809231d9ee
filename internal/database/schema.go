// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package database

import (
	"context"
	"fmt"
	"time"
)

// featureColumns lists the nullable audio feature columns on songs, in
// schema order. Only non-null columns appear in Song.Features.
var featureColumns = []string{"tempo", "energy", "danceability", "valence", "acousticness"}

// createTables creates the schema if it does not exist.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS songs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT,
			genre TEXT,
			duration_ms BIGINT NOT NULL DEFAULT 0,

			-- Audio features, NULL when analysis is unavailable
			tempo DOUBLE,
			energy DOUBLE,
			danceability DOUBLE,
			valence DOUBLE,
			acousticness DOUBLE,

			-- Denormalized counters, maintained transactionally with
			-- event inserts
			play_count BIGINT NOT NULL DEFAULT 0,
			skip_count BIGINT NOT NULL DEFAULT 0,

			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS play_events (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			song_id TEXT NOT NULL,
			played_at TIMESTAMP NOT NULL,
			duration_ms BIGINT NOT NULL,
			completion_rate DOUBLE NOT NULL,
			completed BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS skip_events (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			song_id TEXT NOT NULL,
			skipped_at TIMESTAMP NOT NULL,
			position_ms BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS favorites (
			user_id TEXT NOT NULL,
			song_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, song_id)
		)`,

		// Dead letter store for events that exhausted ingestion
		// retries. Full payload kept for inspection and replay.
		`CREATE TABLE IF NOT EXISTS failed_events (
			id UUID PRIMARY KEY,
			topic TEXT NOT NULL,
			event_payload JSON NOT NULL,
			failure_reason TEXT NOT NULL,
			failed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// createIndexes creates query indexes. DuckDB indexes are advisory for
// point lookups; the event-log scans rely on them for user and time
// filtering.
func (db *DB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_play_events_user ON play_events (user_id, played_at)`,
		`CREATE INDEX IF NOT EXISTS idx_play_events_time ON play_events (played_at)`,
		`CREATE INDEX IF NOT EXISTS idx_skip_events_user ON skip_events (user_id, skipped_at)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
