package repository

import (
	"context"

	"github.com/abrezinsky/pickem/internal/models"
)

// RoundRepository defines pick round data operations
type RoundRepository interface {
	ListRounds(ctx context.Context) ([]models.Round, error)
	GetRound(ctx context.Context, id string) (*models.Round, error)
	CreateRound(ctx context.Context, round models.Round) (string, error)
	UpdateRound(ctx context.Context, round models.Round) error
	DeleteRound(ctx context.Context, id string) error
}

// MatchRepository defines match data operations
type MatchRepository interface {
	ListMatches(ctx context.Context) ([]models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	// GetMatches resolves ids in order. Ids with no document are returned
	// in missing rather than failing the lookup.
	GetMatches(ctx context.Context, ids []string) (found []models.Match, missing []string, err error)
	CreateMatch(ctx context.Context, match models.Match) (string, error)
	UpdateMatchResult(ctx context.Context, id, status string, teamAScore, teamBScore int) error
	DeleteMatch(ctx context.Context, id string) error
}

// PickRepository defines pick data operations
type PickRepository interface {
	ListPicksForRound(ctx context.Context, roundID string) ([]models.Pick, error)
	GetPick(ctx context.Context, id string) (*models.Pick, error)
	GetPickForUser(ctx context.Context, roundID, userID string) (*models.Pick, error)
	CreatePick(ctx context.Context, pick models.Pick) (string, error)
	UpdatePickSelections(ctx context.Context, id string, selections []models.Selection) error
	UpdatePickScore(ctx context.Context, id string, score int) error
	DeletePick(ctx context.Context, id string) error
}

// UserRepository defines participant profile operations
type UserRepository interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpsertUser(ctx context.Context, user models.User) error
}

// TeamRepository defines team data operations
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, team models.Team) (string, error)
}

// ChangeFeed streams the latest contents of the scoring collections
type ChangeFeed interface {
	WatchRounds(ctx context.Context) (<-chan []models.Round, error)
	WatchMatches(ctx context.Context) (<-chan []models.Match, error)
	WatchPicks(ctx context.Context) (<-chan []models.Pick, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	RoundRepository
	MatchRepository
	PickRepository
	UserRepository
	TeamRepository
}

// Ensure Repository implements all interfaces
var (
	_ FullRepository = (*Repository)(nil)
	_ ChangeFeed     = (*Repository)(nil)
)
