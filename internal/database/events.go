// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lequangdung2005/melodex/internal/metrics"
	"github.com/lequangdung2005/melodex/internal/models"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

// The recommendation engine reads plays and the catalog through this
// interface.
var _ recommend.DataProvider = (*DB)(nil)

// InsertPlayEvent records a play and increments the song's play counter
// in the same transaction. The referenced song must already exist in
// the catalog.
func (db *DB) InsertPlayEvent(ctx context.Context, event *models.PlayEvent) error {
	if event == nil || event.ID == "" || event.UserID == "" || event.SongID == "" {
		return fmt.Errorf("%w: play event requires id, user_id and song_id", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := songExistsTx(ctx, tx, event.SongID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO play_events (id, user_id, song_id, played_at, duration_ms, completion_rate, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.SongID, event.PlayedAt,
		event.DurationMS, event.CompletionRate, event.Completed)
	if err != nil {
		return fmt.Errorf("failed to insert play event %s: %w", event.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE songs SET play_count = play_count + 1 WHERE id = ?`, event.SongID)
	if err != nil {
		return fmt.Errorf("failed to increment play count for %s: %w", event.SongID, err)
	}

	commitErr := tx.Commit()
	metrics.RecordDBQuery("INSERT", "play_events", time.Since(start), commitErr)
	if commitErr != nil {
		return fmt.Errorf("failed to commit play event %s: %w", event.ID, commitErr)
	}

	return nil
}

// InsertSkipEvent records a skip and increments the song's skip counter
// in the same transaction.
func (db *DB) InsertSkipEvent(ctx context.Context, event *models.SkipEvent) error {
	if event == nil || event.ID == "" || event.UserID == "" || event.SongID == "" {
		return fmt.Errorf("%w: skip event requires id, user_id and song_id", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := songExistsTx(ctx, tx, event.SongID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO skip_events (id, user_id, song_id, skipped_at, position_ms)
		VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.SongID, event.SkippedAt, event.PositionMS)
	if err != nil {
		return fmt.Errorf("failed to insert skip event %s: %w", event.ID, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE songs SET skip_count = skip_count + 1 WHERE id = ?`, event.SongID)
	if err != nil {
		return fmt.Errorf("failed to increment skip count for %s: %w", event.SongID, err)
	}

	commitErr := tx.Commit()
	metrics.RecordDBQuery("INSERT", "skip_events", time.Since(start), commitErr)
	if commitErr != nil {
		return fmt.Errorf("failed to commit skip event %s: %w", event.ID, commitErr)
	}

	return nil
}

// InsertFailedEvent persists a poisoned ingestion message for later
// inspection and replay.
func (db *DB) InsertFailedEvent(ctx context.Context, id, topic string, payload []byte, reason string) error {
	if id == "" || topic == "" {
		return fmt.Errorf("%w: failed event requires id and topic", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO failed_events (id, topic, event_payload, failure_reason)
		VALUES (?, ?, ?, ?)`,
		id, topic, string(payload), reason)
	if err != nil {
		return fmt.Errorf("failed to insert failed event %s: %w", id, err)
	}

	return nil
}

// ListUserPlays returns all plays for a user in played_at ascending
// order.
func (db *DB) ListUserPlays(ctx context.Context, userID string) ([]models.PlayEvent, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, song_id, played_at, duration_ms, completion_rate, completed
		FROM play_events WHERE user_id = ? ORDER BY played_at`, userID)
	metrics.RecordDBQuery("SELECT", "play_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays for %s: %w", userID, err)
	}
	defer closeQuietly(rows)

	return scanPlayEvents(rows)
}

// ListPlays returns plays on or after since, grouped by user and then
// ordered by played_at ascending. A zero since returns the full log.
func (db *DB) ListPlays(ctx context.Context, since time.Time) ([]models.PlayEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := `SELECT id, user_id, song_id, played_at, duration_ms, completion_rate, completed
		FROM play_events`
	args := []any{}
	if !since.IsZero() {
		query += ` WHERE played_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY user_id, played_at`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer closeQuietly(rows)

	return scanPlayEvents(rows)
}

// PlayCountsSince returns per-song play counts for plays on or after
// since. A zero since counts the full log.
func (db *DB) PlayCountsSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := `SELECT song_id, COUNT(*) FROM play_events`
	args := []any{}
	if !since.IsZero() {
		query += ` WHERE played_at >= ?`
		args = append(args, since)
	}
	query += ` GROUP BY song_id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query play counts: %w", err)
	}
	defer closeQuietly(rows)

	counts := make(map[string]int64)
	for rows.Next() {
		var songID string
		var count int64
		if err := rows.Scan(&songID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan play count: %w", err)
		}
		counts[songID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate play counts: %w", err)
	}

	return counts, nil
}

func scanPlayEvents(rows *sql.Rows) ([]models.PlayEvent, error) {
	events := make([]models.PlayEvent, 0)
	for rows.Next() {
		var ev models.PlayEvent
		err := rows.Scan(&ev.ID, &ev.UserID, &ev.SongID, &ev.PlayedAt,
			&ev.DurationMS, &ev.CompletionRate, &ev.Completed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate play events: %w", err)
	}

	return events, nil
}

func songExistsTx(ctx context.Context, tx *sql.Tx, songID string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM songs WHERE id = ?`, songID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("song %s: %w", songID, recommend.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check song %s: %w", songID, err)
	}
	return nil
}

func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}
