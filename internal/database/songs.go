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

const songColumns = `id, title, artist, album, genre, duration_ms,
	tempo, energy, danceability, valence, acousticness,
	play_count, skip_count, created_at`

// UpsertSong inserts a catalog entry or updates its metadata in place.
// Play and skip counters are preserved on update.
func (db *DB) UpsertSong(ctx context.Context, song *models.Song) error {
	if song == nil || song.ID == "" {
		return fmt.Errorf("%w: song id is required", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	features := make([]any, len(featureColumns))
	for i, name := range featureColumns {
		if v, ok := song.Features[name]; ok {
			features[i] = v
		}
	}

	query := `INSERT INTO songs (id, title, artist, album, genre, duration_ms,
			tempo, energy, danceability, valence, acousticness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			genre = excluded.genre,
			duration_ms = excluded.duration_ms,
			tempo = excluded.tempo,
			energy = excluded.energy,
			danceability = excluded.danceability,
			valence = excluded.valence,
			acousticness = excluded.acousticness`

	args := []any{song.ID, song.Title, song.Artist, song.Album, song.Genre, song.DurationMS}
	args = append(args, features...)

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery("UPSERT", "songs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert song %s: %w", song.ID, err)
	}

	return nil
}

// GetSong returns a single catalog entry by id.
func (db *DB) GetSong(ctx context.Context, songID string) (*models.Song, error) {
	if songID == "" {
		return nil, fmt.Errorf("%w: song id is required", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id = ?`, songID)

	song, err := scanSong(row)
	metrics.RecordDBQuery("SELECT", "songs", time.Since(start), nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song %s: %w", songID, recommend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query song %s: %w", songID, err)
	}

	return song, nil
}

// ListSongs returns the full catalog ordered by id.
func (db *DB) ListSongs(ctx context.Context) ([]models.Song, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs ORDER BY id`)
	metrics.RecordDBQuery("SELECT", "songs", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer closeQuietly(rows)

	songs := make([]models.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate songs: %w", err)
	}

	return songs, nil
}

// ListSongsPage returns a page of the catalog ordered by id.
func (db *DB) ListSongsPage(ctx context.Context, limit, offset int) ([]models.Song, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs page: %w", err)
	}
	defer closeQuietly(rows)

	songs := make([]models.Song, 0, limit)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate songs: %w", err)
	}

	return songs, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSong(s scanner) (*models.Song, error) {
	var (
		song     models.Song
		album    sql.NullString
		genre    sql.NullString
		features [5]sql.NullFloat64
	)

	err := s.Scan(
		&song.ID, &song.Title, &song.Artist, &album, &genre, &song.DurationMS,
		&features[0], &features[1], &features[2], &features[3], &features[4],
		&song.PlayCount, &song.SkipCount, &song.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if album.Valid {
		song.Album = &album.String
	}
	if genre.Valid {
		song.Genre = &genre.String
	}
	for i, name := range featureColumns {
		if features[i].Valid {
			if song.Features == nil {
				song.Features = make(map[string]float64, len(featureColumns))
			}
			song.Features[name] = features[i].Float64
		}
	}

	return &song, nil
}
