// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lequangdung2005/melodex/internal/config"
)

// Auth modes.
const (
	ModeNone = "none"
	ModeJWT  = "jwt"
)

// MeAlias is the path segment that resolves to the authenticated user.
const MeAlias = "me"

var (
	ErrNoCredentials      = errors.New("no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type contextKey string

const userIDKey contextKey = "auth_user_id"

// Authenticator resolves the caller's identity according to the
// configured auth mode.
type Authenticator struct {
	mode    string
	manager *JWTManager
}

// NewAuthenticator builds the authenticator. In jwt mode a JWTManager
// is required; in none mode requests pass through unauthenticated.
func NewAuthenticator(cfg *config.SecurityConfig) (*Authenticator, error) {
	switch cfg.AuthMode {
	case "", ModeNone:
		return &Authenticator{mode: ModeNone}, nil
	case ModeJWT:
		manager, err := NewJWTManager(cfg)
		if err != nil {
			return nil, fmt.Errorf("jwt auth: %w", err)
		}
		return &Authenticator{mode: ModeJWT, manager: manager}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// Mode returns the configured auth mode.
func (a *Authenticator) Mode() string {
	return a.mode
}

// Authenticate extracts and validates credentials, attaching the user
// id to the request context in jwt mode. In none mode it is a no-op.
func (a *Authenticator) Authenticate(r *http.Request) (*http.Request, error) {
	if a.mode == ModeNone {
		return r, nil
	}

	tokenStr := extractToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.manager.ValidateToken(tokenStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
	return r.WithContext(ctx), nil
}

// ResolveUserID maps a path user id to the effective one. The "me"
// alias resolves to the authenticated subject in jwt mode; in none mode
// there is no identity to alias, so "me" is rejected. In jwt mode a
// caller may only act as themselves.
func (a *Authenticator) ResolveUserID(ctx context.Context, pathUserID string) (string, error) {
	authenticated := UserIDFromContext(ctx)

	if pathUserID == MeAlias {
		if authenticated == "" {
			return "", fmt.Errorf("%w: \"me\" requires jwt auth mode", ErrNoCredentials)
		}
		return authenticated, nil
	}

	if a.mode == ModeJWT && pathUserID != authenticated {
		return "", fmt.Errorf("%w: token subject does not match requested user", ErrInvalidCredentials)
	}

	return pathUserID, nil
}

// UserIDFromContext returns the authenticated user id, or empty.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithUserID attaches a user id, used by tests and the none-mode
// pass-through.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// extractToken pulls the bearer token from the Authorization header or
// the token cookie.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token := strings.TrimSpace(parts[1])
			if token != "" {
				return token
			}
		}
	}

	cookie, err := r.Cookie("token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
