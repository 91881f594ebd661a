package services

import (
	"context"
	stderrors "errors"

	"github.com/abrezinsky/pickem/internal/errors"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
	"github.com/abrezinsky/pickem/internal/repository"
)

// UnknownPlayer is shown for picks whose user has no profile
const UnknownPlayer = "Unknown player"

// LeaderboardServiceRepository defines the repository methods needed by LeaderboardService
type LeaderboardServiceRepository interface {
	repository.RoundRepository
	repository.MatchRepository
	repository.PickRepository
	repository.UserRepository
}

// LeaderboardService builds round standings
type LeaderboardService struct {
	log   logger.Logger
	repo  LeaderboardServiceRepository
	clock pickem.Clock
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(log logger.Logger, repo LeaderboardServiceRepository, clock pickem.Clock) *LeaderboardService {
	return &LeaderboardService{log: log, repo: repo, clock: clock}
}

// LeaderboardEntry is one participant's standing
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PickID      string `json:"pick_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
	Correct     int    `json:"correct"`
	Evaluated   int    `json:"evaluated"`
}

// Leaderboard is a round's standings
type Leaderboard struct {
	RoundID       string             `json:"round_id"`
	RoundName     string             `json:"round_name"`
	Status        models.RoundStatus `json:"status"`
	ResolvedCount int                `json:"resolved_count"`
	MatchCount    int                `json:"match_count"`
	Entries       []LeaderboardEntry `json:"entries"`
}

// GetLeaderboard ranks a round's picks by stored score. Equal scores share
// a rank and the next rank skips accordingly.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, roundID string) (*Leaderboard, error) {
	round, err := s.repo.GetRound(ctx, roundID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("round %s not found", roundID)
	}
	if err != nil {
		return nil, err
	}

	matches, _, err := s.repo.GetMatches(ctx, round.MatchIDs)
	if err != nil {
		return nil, err
	}
	picks, err := s.repo.ListPicksForRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.UID] = u.DisplayName
	}

	board := &Leaderboard{
		RoundID:       round.ID,
		RoundName:     round.Name,
		Status:        pickem.Status(round, s.clock.Now()),
		ResolvedCount: len(pickem.Winners(matches)),
		MatchCount:    len(matches),
		Entries:       make([]LeaderboardEntry, 0, len(picks)),
	}

	rank := 0
	for i := range picks {
		p := &picks[i]
		if i == 0 || p.Score != picks[i-1].Score {
			rank = i + 1
		}
		name := names[p.UserID]
		if name == "" {
			name = UnknownPlayer
		}
		res := pickem.Score(matches, p)
		board.Entries = append(board.Entries, LeaderboardEntry{
			Rank:        rank,
			PickID:      p.ID,
			UserID:      p.UserID,
			DisplayName: name,
			Score:       p.Score,
			Correct:     res.TotalCorrect,
			Evaluated:   res.TotalEvaluated,
		})
	}
	return board, nil
}
