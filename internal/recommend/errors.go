// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package recommend

import "errors"

// Sentinel errors returned by the engine. Callers match with errors.Is.
//
// A user or library with too little history is NOT an error: the engine
// falls back to neutral content scores and popularity ordering, or
// returns an empty list when the catalog itself is empty.
var (
	// ErrNotFound indicates the requested song or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request parameter is out of range or
	// inconsistent.
	ErrInvalidInput = errors.New("invalid input")
)
