package handlers

import (
	"context"
	"net/http"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/scoring"
	"github.com/abrezinsky/pickem/internal/services"
)

// Rescorer reruns score reconciliation on demand
type Rescorer interface {
	ReconcileRound(ctx context.Context, roundID string) (scoring.Result, error)
	ReconcileAll(ctx context.Context) (scoring.Result, error)
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// Deps lists the dependencies of the HTTP layer. Hub and Metrics are
// optional; their routes are only mounted when set.
type Deps struct {
	Rounds      services.RoundServicer
	Matches     services.MatchServicer
	Picks       services.PickServicer
	Leaderboard services.LeaderboardServicer
	Users       services.UserServicer
	Rescorer    Rescorer
	Auth        auth.Provider
	Limiter     *auth.RateLimiter
	Hub         http.HandlerFunc
	Metrics     http.Handler
	Health      func(ctx context.Context) error
	Log         HTTPLogger
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Deps
}

// New creates a new Handlers instance with all dependencies
func New(deps Deps) *Handlers {
	if deps.Log == nil {
		deps.Log = NoopHTTPLogger{}
	}
	return &Handlers{Deps: deps}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }
