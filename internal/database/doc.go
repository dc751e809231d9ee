// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

/*
Package database provides the embedded DuckDB storage layer.

It holds the song catalog and the append-only listening event log:

  - songs: catalog with denormalized play/skip counters and nullable
    audio feature columns
  - play_events / skip_events: append-only listening history
  - favorites: explicit user-to-song bookmarks
  - failed_events: dead letter store for ingestion failures

Event inserts and their counter increments run in a single transaction
so counts always equal the number of referencing events.

The DB type also implements recommend.DataProvider, feeding catalog and
history snapshots to the recommendation engine.
*/
package database
