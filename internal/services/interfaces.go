package services

import (
	"context"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/models"
)

// RoundServicer defines the interface for round operations
type RoundServicer interface {
	ListRounds(ctx context.Context) ([]RoundSummary, error)
	GetRound(ctx context.Context, id string) (*RoundDetail, error)
	CurrentRound(ctx context.Context) (*RoundDetail, error)
	CreateRound(ctx context.Context, in RoundInput) (string, error)
	UpdateRound(ctx context.Context, id string, in RoundInput) error
	DeleteRound(ctx context.Context, id string) error
	Statuses(ctx context.Context) (map[string]models.RoundStatus, error)
	ShareQR(ctx context.Context, id string) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// MatchServicer defines the interface for match and team operations
type MatchServicer interface {
	ListMatches(ctx context.Context) ([]MatchView, error)
	CreateMatch(ctx context.Context, in MatchInput) (string, error)
	RecordResult(ctx context.Context, id string, in ResultInput) error
	DeleteMatch(ctx context.Context, id string) error
	ListTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, team models.Team) (string, error)
}

// PickServicer defines the interface for pick operations
type PickServicer interface {
	GetMyPick(ctx context.Context, roundID string, id *auth.Identity) (*PickView, error)
	SubmitPick(ctx context.Context, roundID string, id *auth.Identity, selections []models.Selection) (*models.Pick, error)
	SetScore(ctx context.Context, pickID string, score int) error
}

// LeaderboardServicer defines the interface for standings
type LeaderboardServicer interface {
	GetLeaderboard(ctx context.Context, roundID string) (*Leaderboard, error)
}

// UserServicer defines the interface for participant profiles
type UserServicer interface {
	EnsureProfile(ctx context.Context, id *auth.Identity) (*models.User, error)
}

// Ensure concrete types implement interfaces
var (
	_ RoundServicer       = (*RoundService)(nil)
	_ MatchServicer       = (*MatchService)(nil)
	_ PickServicer        = (*PickService)(nil)
	_ LeaderboardServicer = (*LeaderboardService)(nil)
	_ UserServicer        = (*UserService)(nil)
)
