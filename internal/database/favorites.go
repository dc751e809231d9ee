// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lequangdung2005/melodex/internal/models"
	"github.com/lequangdung2005/melodex/internal/recommend"
)

// AddFavorite marks a song as a favorite for a user. Adding an existing
// favorite is a no-op. The song must exist in the catalog.
func (db *DB) AddFavorite(ctx context.Context, userID, songID string) error {
	if userID == "" || songID == "" {
		return fmt.Errorf("%w: user id and song id are required", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if err := songExistsTx(ctx, tx, songID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO favorites (user_id, song_id) VALUES (?, ?)
		ON CONFLICT (user_id, song_id) DO NOTHING`, userID, songID)
	if err != nil {
		return fmt.Errorf("failed to add favorite %s/%s: %w", userID, songID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit favorite %s/%s: %w", userID, songID, err)
	}

	return nil
}

// RemoveFavorite removes a favorite. Removing a favorite that does not
// exist returns ErrNotFound.
func (db *DB) RemoveFavorite(ctx context.Context, userID, songID string) error {
	if userID == "" || songID == "" {
		return fmt.Errorf("%w: user id and song id are required", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND song_id = ?`, userID, songID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite %s/%s: %w", userID, songID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check favorite removal %s/%s: %w", userID, songID, err)
	}
	if affected == 0 {
		return fmt.Errorf("favorite %s/%s: %w", userID, songID, recommend.ErrNotFound)
	}

	return nil
}

// ListFavorites returns a user's favorite songs, newest favorite first.
func (db *DB) ListFavorites(ctx context.Context, userID string) ([]models.Song, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", recommend.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+prefixedSongColumns("s")+`
		FROM favorites f
		JOIN songs s ON s.id = f.song_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, s.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites for %s: %w", userID, err)
	}
	defer closeQuietly(rows)

	songs := make([]models.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate favorites: %w", err)
	}

	return songs, nil
}

func prefixedSongColumns(alias string) string {
	return alias + `.id, ` + alias + `.title, ` + alias + `.artist, ` + alias + `.album, ` +
		alias + `.genre, ` + alias + `.duration_ms, ` + alias + `.tempo, ` + alias + `.energy, ` +
		alias + `.danceability, ` + alias + `.valence, ` + alias + `.acousticness, ` +
		alias + `.play_count, ` + alias + `.skip_count, ` + alias + `.created_at`
}
