// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

/*
Package recommend implements the hybrid recommendation engine.

The engine combines three signals into a final ranking:

  - Content similarity between a candidate song and the user's taste
    profile (genre, artist, audio features)
  - Co-occurrence of the candidate with the user's recently played
    songs within listening sessions
  - Library-wide popularity

Scores are pure functions over an immutable snapshot of the song
catalog and play history, fetched through the DataProvider interface.
The engine holds no state between requests other than a per-user TTL
cache, which ingestion invalidates when new events arrive.

The package has no dependencies on other Melodex packages except
models; the DataProvider interface allows integration with the
database package without creating circular imports.
*/
package recommend
