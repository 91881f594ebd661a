package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/errors"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
	"github.com/abrezinsky/pickem/internal/repository"
)

// PickServiceRepository defines the repository methods needed by PickService
type PickServiceRepository interface {
	repository.RoundRepository
	repository.MatchRepository
	repository.PickRepository
}

// PickService handles participant picks
type PickService struct {
	log   logger.Logger
	repo  PickServiceRepository
	clock pickem.Clock
}

// NewPickService creates a new PickService
func NewPickService(log logger.Logger, repo PickServiceRepository, clock pickem.Clock) *PickService {
	return &PickService{log: log, repo: repo, clock: clock}
}

// PickView is a participant's pick for a round, scored against current results
type PickView struct {
	Pick      *models.Pick       `json:"pick"`
	Result    pickem.ScoreResult `json:"result"`
	Status    models.RoundStatus `json:"status"`
	CanSubmit bool               `json:"can_submit"`
}

func (s *PickService) loadRound(ctx context.Context, roundID string) (*models.Round, []models.Match, error) {
	round, err := s.repo.GetRound(ctx, roundID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, nil, errors.NotFoundf("round %s not found", roundID)
	}
	if err != nil {
		return nil, nil, err
	}
	matches, _, err := s.repo.GetMatches(ctx, round.MatchIDs)
	if err != nil {
		return nil, nil, err
	}
	return round, matches, nil
}

// GetMyPick returns the caller's pick for a round. Pick is nil when the
// caller has not submitted one yet.
func (s *PickService) GetMyPick(ctx context.Context, roundID string, id *auth.Identity) (*PickView, error) {
	if id == nil || id.UID == "" {
		return nil, ErrNotSignedIn
	}
	round, matches, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	view := &PickView{
		Status:    pickem.Status(round, now),
		CanSubmit: pickem.CanSubmit(round, id, now),
	}

	pick, err := s.repo.GetPickForUser(ctx, roundID, id.UID)
	if stderrors.Is(err, repository.ErrNotFound) {
		return view, nil
	}
	if err != nil {
		return nil, err
	}
	view.Pick = pick
	view.Result = pickem.Score(matches, pick)
	return view, nil
}

// SubmitPick creates or replaces the caller's selections for a round.
// Every match in the round needs exactly one selection naming one of its
// two teams. The stored score is left for the reconciler.
func (s *PickService) SubmitPick(ctx context.Context, roundID string, id *auth.Identity, selections []models.Selection) (*models.Pick, error) {
	if id == nil || id.UID == "" {
		return nil, ErrNotSignedIn
	}
	round, matches, err := s.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !pickem.CanSubmit(round, id, s.clock.Now()) {
		return nil, ErrRoundClosed
	}

	ordered, err := orderSelections(matches, selections)
	if err != nil {
		return nil, err
	}

	pick := models.Pick{
		UserID:     id.UID,
		RoundID:    roundID,
		Selections: ordered,
	}
	pickID, err := s.repo.CreatePick(ctx, pick)
	if stderrors.Is(err, repository.ErrAlreadyExists) {
		pickID = repository.PickID(roundID, id.UID)
		if existing, getErr := s.repo.GetPickForUser(ctx, roundID, id.UID); getErr == nil {
			pickID = existing.ID
		}
		err = s.repo.UpdatePickSelections(ctx, pickID, ordered)
		if err == nil {
			s.log.Info("Pick updated", "round_id", roundID, "user_id", id.UID)
		}
	} else if err == nil {
		s.log.Info("Pick created", "round_id", roundID, "user_id", id.UID)
	}
	if err != nil {
		return nil, err
	}

	return s.repo.GetPick(ctx, pickID)
}

// orderSelections validates selections against the round's matches and
// returns them in the round's match order.
func orderSelections(matches []models.Match, selections []models.Selection) ([]models.Selection, error) {
	byMatch := make(map[string]string, len(selections))
	for _, sel := range selections {
		mid := strings.TrimSpace(sel.MatchID)
		byMatch[mid] = strings.TrimSpace(sel.PredictedWinnerTeamID)
	}

	known := make(map[string]bool, len(matches))
	ordered := make([]models.Selection, 0, len(matches))
	for _, m := range matches {
		known[m.ID] = true
		team, ok := byMatch[m.ID]
		if !ok || team == "" {
			return nil, ErrIncompletePick
		}
		if team != m.TeamAID && team != m.TeamBID {
			return nil, ErrInvalidSelection
		}
		ordered = append(ordered, models.Selection{MatchID: m.ID, PredictedWinnerTeamID: team})
	}
	for mid := range byMatch {
		if !known[mid] {
			return nil, ErrUnknownMatch
		}
	}
	return ordered, nil
}

// SetScore overrides a pick's stored score. The reconciler replaces it on
// its next pass once results exist.
func (s *PickService) SetScore(ctx context.Context, pickID string, score int) error {
	if score < 0 {
		return ErrInvalidScore
	}
	err := s.repo.UpdatePickScore(ctx, pickID, score)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFoundf("pick %s not found", pickID)
	}
	if err != nil {
		return err
	}
	s.log.Info("Pick score set", "pick_id", pickID, "score", score)
	return nil
}
