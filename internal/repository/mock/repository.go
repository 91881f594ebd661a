package mock

import (
	"context"
	"sync"

	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.UpdatePickScoreError = errors.New("database error")
//	rec := scoring.NewReconciler(log, mockRepo, scoring.Options{})
//	res := rec.Reconcile(ctx, round, matches, picks)
//	// res.Failed now counts the injected error
type Repository struct {
	repository.FullRepository

	// ===== Round Errors =====
	ListRoundsError  error
	GetRoundError    error
	CreateRoundError error
	UpdateRoundError error
	DeleteRoundError error

	// ===== Match Errors =====
	ListMatchesError       error
	GetMatchError          error
	GetMatchesError        error
	CreateMatchError       error
	UpdateMatchResultError error
	DeleteMatchError       error

	// ===== Pick Errors =====
	ListPicksForRoundError    error
	GetPickError              error
	GetPickForUserError       error
	CreatePickError           error
	UpdatePickSelectionsError error
	UpdatePickScoreError      error
	DeletePickError           error

	// FailScoreFor limits UpdatePickScoreError to the listed pick ids
	FailScoreFor map[string]bool

	mu          sync.Mutex
	scoreWrites []ScoreWrite

	// ===== User / Team Errors =====
	GetUserError    error
	ListUsersError  error
	UpsertUserError error
	ListTeamsError  error
	CreateTeamError error
}

// ScoreWrite is one recorded score update
type ScoreWrite struct {
	PickID string
	Score  int
}

// ScoreWrites returns the UpdatePickScore calls that reached the store
func (m *Repository) ScoreWrites() []ScoreWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ScoreWrite(nil), m.scoreWrites...)
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Round Methods =====

func (m *Repository) ListRounds(ctx context.Context) ([]models.Round, error) {
	if m.ListRoundsError != nil {
		return nil, m.ListRoundsError
	}
	return m.FullRepository.ListRounds(ctx)
}

func (m *Repository) GetRound(ctx context.Context, id string) (*models.Round, error) {
	if m.GetRoundError != nil {
		return nil, m.GetRoundError
	}
	return m.FullRepository.GetRound(ctx, id)
}

func (m *Repository) CreateRound(ctx context.Context, round models.Round) (string, error) {
	if m.CreateRoundError != nil {
		return "", m.CreateRoundError
	}
	return m.FullRepository.CreateRound(ctx, round)
}

func (m *Repository) UpdateRound(ctx context.Context, round models.Round) error {
	if m.UpdateRoundError != nil {
		return m.UpdateRoundError
	}
	return m.FullRepository.UpdateRound(ctx, round)
}

func (m *Repository) DeleteRound(ctx context.Context, id string) error {
	if m.DeleteRoundError != nil {
		return m.DeleteRoundError
	}
	return m.FullRepository.DeleteRound(ctx, id)
}

// ===== Match Methods =====

func (m *Repository) ListMatches(ctx context.Context) ([]models.Match, error) {
	if m.ListMatchesError != nil {
		return nil, m.ListMatchesError
	}
	return m.FullRepository.ListMatches(ctx)
}

func (m *Repository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	if m.GetMatchError != nil {
		return nil, m.GetMatchError
	}
	return m.FullRepository.GetMatch(ctx, id)
}

func (m *Repository) GetMatches(ctx context.Context, ids []string) ([]models.Match, []string, error) {
	if m.GetMatchesError != nil {
		return nil, nil, m.GetMatchesError
	}
	return m.FullRepository.GetMatches(ctx, ids)
}

func (m *Repository) CreateMatch(ctx context.Context, match models.Match) (string, error) {
	if m.CreateMatchError != nil {
		return "", m.CreateMatchError
	}
	return m.FullRepository.CreateMatch(ctx, match)
}

func (m *Repository) UpdateMatchResult(ctx context.Context, id, status string, teamAScore, teamBScore int) error {
	if m.UpdateMatchResultError != nil {
		return m.UpdateMatchResultError
	}
	return m.FullRepository.UpdateMatchResult(ctx, id, status, teamAScore, teamBScore)
}

func (m *Repository) DeleteMatch(ctx context.Context, id string) error {
	if m.DeleteMatchError != nil {
		return m.DeleteMatchError
	}
	return m.FullRepository.DeleteMatch(ctx, id)
}

// ===== Pick Methods =====

func (m *Repository) ListPicksForRound(ctx context.Context, roundID string) ([]models.Pick, error) {
	if m.ListPicksForRoundError != nil {
		return nil, m.ListPicksForRoundError
	}
	return m.FullRepository.ListPicksForRound(ctx, roundID)
}

func (m *Repository) GetPick(ctx context.Context, id string) (*models.Pick, error) {
	if m.GetPickError != nil {
		return nil, m.GetPickError
	}
	return m.FullRepository.GetPick(ctx, id)
}

func (m *Repository) GetPickForUser(ctx context.Context, roundID, userID string) (*models.Pick, error) {
	if m.GetPickForUserError != nil {
		return nil, m.GetPickForUserError
	}
	return m.FullRepository.GetPickForUser(ctx, roundID, userID)
}

func (m *Repository) CreatePick(ctx context.Context, pick models.Pick) (string, error) {
	if m.CreatePickError != nil {
		return "", m.CreatePickError
	}
	return m.FullRepository.CreatePick(ctx, pick)
}

func (m *Repository) UpdatePickSelections(ctx context.Context, id string, selections []models.Selection) error {
	if m.UpdatePickSelectionsError != nil {
		return m.UpdatePickSelectionsError
	}
	return m.FullRepository.UpdatePickSelections(ctx, id, selections)
}

func (m *Repository) UpdatePickScore(ctx context.Context, id string, score int) error {
	if m.UpdatePickScoreError != nil && (m.FailScoreFor == nil || m.FailScoreFor[id]) {
		return m.UpdatePickScoreError
	}
	m.mu.Lock()
	m.scoreWrites = append(m.scoreWrites, ScoreWrite{PickID: id, Score: score})
	m.mu.Unlock()
	return m.FullRepository.UpdatePickScore(ctx, id, score)
}

func (m *Repository) DeletePick(ctx context.Context, id string) error {
	if m.DeletePickError != nil {
		return m.DeletePickError
	}
	return m.FullRepository.DeletePick(ctx, id)
}

// ===== User / Team Methods =====

func (m *Repository) GetUser(ctx context.Context, uid string) (*models.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	return m.FullRepository.GetUser(ctx, uid)
}

func (m *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}
	return m.FullRepository.ListUsers(ctx)
}

func (m *Repository) UpsertUser(ctx context.Context, user models.User) error {
	if m.UpsertUserError != nil {
		return m.UpsertUserError
	}
	return m.FullRepository.UpsertUser(ctx, user)
}

func (m *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	if m.ListTeamsError != nil {
		return nil, m.ListTeamsError
	}
	return m.FullRepository.ListTeams(ctx)
}

func (m *Repository) CreateTeam(ctx context.Context, team models.Team) (string, error) {
	if m.CreateTeamError != nil {
		return "", m.CreateTeamError
	}
	return m.FullRepository.CreateTeam(ctx, team)
}
