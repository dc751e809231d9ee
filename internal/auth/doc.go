// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

// Package auth provides request authentication. Two modes are
// supported: "none" for single-user deployments where the user id in
// the request path is trusted as-is, and "jwt" where requests carry an
// HS256 bearer token whose subject claim is the user id. The "me" path
// alias resolves to the token subject in jwt mode.
package auth
