// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

/*
Package models defines data structures for the Melodex application.

This package contains all data models shared across packages: the song
catalog, listening events, favorites, user statistics, and standardized
API request/response structures. It serves as the single source of truth
for data structure definitions and has no dependencies on other Melodex
packages, so any package can import it without cycles.

Key Components:

  - Song: Catalog entry with genre, artist, and audio feature vector
  - PlayEvent / SkipEvent: Listening history events driving recommendations
  - Favorite: Explicit user-to-song bookmark
  - UserStats: Aggregated listening statistics for one user
  - APIResponse / APIError: Standardized API envelope
*/
package models
