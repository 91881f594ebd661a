package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/abrezinsky/pickem/internal/errors"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
	"github.com/abrezinsky/pickem/internal/repository"
)

// MatchServiceRepository defines the repository methods needed by MatchService
type MatchServiceRepository interface {
	repository.MatchRepository
	repository.TeamRepository
}

// MatchService handles matches, their results and teams
type MatchService struct {
	log  logger.Logger
	repo MatchServiceRepository
}

// NewMatchService creates a new MatchService
func NewMatchService(log logger.Logger, repo MatchServiceRepository) *MatchService {
	return &MatchService{log: log, repo: repo}
}

// MatchView is a match with team labels and its resolved winner
type MatchView struct {
	models.Match
	TeamA  string `json:"team_a"`
	TeamB  string `json:"team_b"`
	Winner string `json:"winner,omitempty"`
}

// MatchInput describes a new match
type MatchInput struct {
	ID      string     `json:"id"`
	EventID string     `json:"event_id"`
	Date    *time.Time `json:"date"`
	TeamAID string     `json:"team_a_id"`
	TeamBID string     `json:"team_b_id"`
}

// ResultInput records a match's status and score
type ResultInput struct {
	Status     string `json:"status"`
	TeamAScore int    `json:"team_a_score"`
	TeamBScore int    `json:"team_b_score"`
}

func buildMatchViews(matches []models.Match, teams []models.Team) []MatchView {
	labels := make(map[string]string, len(teams))
	for _, t := range teams {
		labels[t.ID] = t.Label()
	}
	label := func(id string) string {
		if l, ok := labels[id]; ok {
			return l
		}
		return id
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		m := matches[i]
		views = append(views, MatchView{
			Match:  m,
			TeamA:  label(m.TeamAID),
			TeamB:  label(m.TeamBID),
			Winner: pickem.Winner(&m),
		})
	}
	return views
}

// ListMatches returns all matches by date
func (s *MatchService) ListMatches(ctx context.Context) ([]MatchView, error) {
	matches, err := s.repo.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	return buildMatchViews(matches, teams), nil
}

// CreateMatch stores an upcoming match between two different teams
func (s *MatchService) CreateMatch(ctx context.Context, in MatchInput) (string, error) {
	a, b := strings.TrimSpace(in.TeamAID), strings.TrimSpace(in.TeamBID)
	if a == "" || b == "" {
		return "", errors.Validation("both teams are required")
	}
	if a == b {
		return "", errors.Validation("a team cannot play itself")
	}

	id, err := s.repo.CreateMatch(ctx, models.Match{
		ID:      strings.TrimSpace(in.ID),
		EventID: in.EventID,
		Date:    in.Date,
		Status:  models.MatchUpcoming,
		TeamAID: a,
		TeamBID: b,
	})
	if stderrors.Is(err, repository.ErrAlreadyExists) {
		return "", errors.Conflictf("match %s already exists", in.ID)
	}
	if err != nil {
		return "", err
	}
	s.log.Info("Match created", "match_id", id, "team_a", a, "team_b", b)
	return id, nil
}

// ValidMatchStatus reports whether status is a known match status
func ValidMatchStatus(status string) bool {
	switch status {
	case models.MatchUpcoming, models.MatchLive, models.MatchFinal, models.MatchCompleted:
		return true
	}
	return false
}

// RecordResult updates a match's status and scores. Scores feed the
// scoring watcher, which rescores affected picks.
func (s *MatchService) RecordResult(ctx context.Context, id string, in ResultInput) error {
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !ValidMatchStatus(status) {
		return ErrInvalidMatchStatus
	}
	if in.TeamAScore < 0 || in.TeamBScore < 0 {
		return ErrInvalidScore
	}

	err := s.repo.UpdateMatchResult(ctx, id, status, in.TeamAScore, in.TeamBScore)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFoundf("match %s not found", id)
	}
	if err != nil {
		return err
	}
	s.log.Info("Match result recorded", "match_id", id, "status", status,
		"team_a_score", in.TeamAScore, "team_b_score", in.TeamBScore)
	return nil
}

// DeleteMatch removes a match. Rounds still listing it report it as unknown.
func (s *MatchService) DeleteMatch(ctx context.Context, id string) error {
	if err := s.repo.DeleteMatch(ctx, id); err != nil {
		return err
	}
	s.log.Info("Match deleted", "match_id", id)
	return nil
}

// ListTeams returns all teams by name
func (s *MatchService) ListTeams(ctx context.Context) ([]models.Team, error) {
	return s.repo.ListTeams(ctx)
}

// CreateTeam stores a team
func (s *MatchService) CreateTeam(ctx context.Context, team models.Team) (string, error) {
	team.Name = strings.TrimSpace(team.Name)
	if team.Name == "" {
		return "", errors.Validation("team name is required")
	}
	id, err := s.repo.CreateTeam(ctx, team)
	if stderrors.Is(err, repository.ErrAlreadyExists) {
		return "", errors.Conflictf("team %s already exists", team.ID)
	}
	if err != nil {
		return "", err
	}
	s.log.Info("Team created", "team_id", id, "name", team.Name)
	return id, nil
}
