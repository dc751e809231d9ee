// Melodex - Personal Music Library Recommendations
// Copyright 2026 Le Quang Dung (lequangdung2005)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lequangdung2005/melodex

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lequangdung2005/melodex/internal/config"
	"github.com/lequangdung2005/melodex/internal/middleware"
)

// NewRouter assembles the HTTP router. Middleware order matters:
// request id first so every later log line carries it, recovery before
// anything that might panic, then CORS, rate limiting and metrics.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	if len(cfg.Security.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Security.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: false,
			MaxAge:           86400,
		}))
	}

	if !cfg.Security.RateLimitDisabled {
		r.Use(httprate.Limit(
			cfg.Security.RateLimitReqs,
			cfg.Security.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/user/{userID}", h.GetUserRecommendations)
			r.Get("/similar/{songID}", h.GetSimilarSongs)
		})

		r.Get("/trending", h.GetTrending)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/stats", h.GetUserStats)
			r.Get("/favorites", h.ListFavorites)
			r.Post("/favorites", h.AddFavorite)
			r.Delete("/favorites/{songID}", h.RemoveFavorite)
		})

		r.Route("/songs", func(r chi.Router) {
			r.Get("/", h.ListSongs)
			r.Post("/", h.UpsertSong)
			r.Get("/{songID}", h.GetSong)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/play", h.PostPlayEvent)
			r.Post("/skip", h.PostSkipEvent)
		})
	})

	return r
}

// authenticate validates credentials according to the configured auth
// mode and attaches the caller identity to the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed, err := h.auth.Authenticate(r)
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, codeAuthError, err.Error())
			return
		}
		next.ServeHTTP(w, authed)
	})
}
