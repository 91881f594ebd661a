package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/models"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger) // Custom conditional HTTP logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	r.Get("/healthz", h.handleHealth)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	// WebSocket connections outlive the request timeout
	if h.Hub != nil {
		r.Get("/ws", h.Hub)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(auth.Authenticate(h.Auth))

		// Session (public)
		r.Post("/api/session", h.handleCreateSession)
		r.Delete("/api/session", h.handleDeleteSession)

		// Rounds (public)
		r.Get("/api/rounds", h.handleListRounds)
		r.Get("/api/rounds/current", h.handleCurrentRound)
		r.Get("/api/rounds/{id}", h.handleGetRound)
		r.Get("/api/rounds/{id}/leaderboard", h.handleGetLeaderboard)
		r.Get("/api/rounds/{id}/qr", h.handleRoundQR)

		// Participant API
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireIdentity)
			if h.Limiter != nil {
				r.Use(auth.RateLimit(h.Limiter))
			}
			r.Get("/api/me", h.handleGetMe)
			r.Get("/api/rounds/{id}/pick", h.handleGetMyPick)
			r.Put("/api/rounds/{id}/pick", h.handleSubmitPick)
		})

		// Admin API (protected)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin, models.RoleEditor))

			// Rounds
			r.Post("/api/admin/rounds", h.handleCreateRound)
			r.Put("/api/admin/rounds/{id}", h.handleUpdateRound)
			r.Delete("/api/admin/rounds/{id}", h.handleDeleteRound)
			r.Post("/api/admin/rounds/{id}/rescore", h.handleRescoreRound)
			r.Post("/api/admin/rescore", h.handleRescoreAll)

			// Matches
			r.Get("/api/admin/matches", h.handleListMatches)
			r.Post("/api/admin/matches", h.handleCreateMatch)
			r.Put("/api/admin/matches/{id}/result", h.handleRecordResult)
			r.Delete("/api/admin/matches/{id}", h.handleDeleteMatch)

			// Teams
			r.Get("/api/admin/teams", h.handleListTeams)
			r.Post("/api/admin/teams", h.handleCreateTeam)

			// Picks
			r.Put("/api/admin/picks/{id}/score", h.handleSetPickScore)
		})
	})

	return r
}

// handleHealth reports whether the document store is reachable
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	respondOK(w, map[string]string{"status": "ok"})
}
