package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/pickem/internal/errors"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
	"github.com/abrezinsky/pickem/internal/repository"
)

// Broadcaster defines the interface for broadcasting messages to clients
type Broadcaster interface {
	BroadcastRoundStatus(roundID string, status models.RoundStatus)
}

// RoundServiceRepository defines the repository methods needed by RoundService
type RoundServiceRepository interface {
	repository.RoundRepository
	repository.MatchRepository
	repository.TeamRepository
}

// RoundService handles round lifecycle and presentation
type RoundService struct {
	log         logger.Logger
	repo        RoundServiceRepository
	clock       pickem.Clock
	baseURL     string
	broadcaster Broadcaster
}

// NewRoundService creates a new RoundService. baseURL is used for share links.
func NewRoundService(log logger.Logger, repo RoundServiceRepository, clock pickem.Clock, baseURL string) *RoundService {
	return &RoundService{log: log, repo: repo, clock: clock, baseURL: baseURL}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *RoundService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// RoundInput is the editable part of a round
type RoundInput struct {
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	MatchIDs  []string   `json:"match_ids"`
	Active    *bool      `json:"active"`
}

// RoundSummary is a round with its evaluated status
type RoundSummary struct {
	models.Round
	Status       models.RoundStatus `json:"status"`
	OpenForPicks bool               `json:"open_for_picks"`
}

// RoundDetail adds the round's matches
type RoundDetail struct {
	RoundSummary
	Matches         []MatchView `json:"matches"`
	UnknownMatchIDs []string    `json:"unknown_match_ids,omitempty"`
}

func (s *RoundService) summarize(round models.Round, now time.Time) RoundSummary {
	status := pickem.Status(&round, now)
	return RoundSummary{
		Round:        round,
		Status:       status,
		OpenForPicks: status == models.RoundActive,
	}
}

// ListRounds returns every round, newest first, with its status
func (s *RoundService) ListRounds(ctx context.Context) ([]RoundSummary, error) {
	rounds, err := s.repo.ListRounds(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make([]RoundSummary, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, s.summarize(r, now))
	}
	return out, nil
}

// GetRound returns a round with its matches resolved. Match ids with no
// match document are reported in UnknownMatchIDs.
func (s *RoundService) GetRound(ctx context.Context, id string) (*RoundDetail, error) {
	round, err := s.repo.GetRound(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("round %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *round)
}

// CurrentRound returns the first round open for picks, else the newest round
func (s *RoundService) CurrentRound(ctx context.Context) (*RoundDetail, error) {
	rounds, err := s.repo.ListRounds(ctx)
	if err != nil {
		return nil, err
	}
	round := pickem.DefaultRound(rounds, s.clock.Now())
	if round == nil {
		return nil, errors.NotFound("no rounds yet")
	}
	return s.detail(ctx, *round)
}

func (s *RoundService) detail(ctx context.Context, round models.Round) (*RoundDetail, error) {
	matches, missing, err := s.repo.GetMatches(ctx, round.MatchIDs)
	if err != nil {
		return nil, err
	}
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	return &RoundDetail{
		RoundSummary:    s.summarize(round, s.clock.Now()),
		Matches:         buildMatchViews(matches, teams),
		UnknownMatchIDs: missing,
	}, nil
}

// Statuses evaluates every round's status at the current time
func (s *RoundService) Statuses(ctx context.Context) (map[string]models.RoundStatus, error) {
	rounds, err := s.repo.ListRounds(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	out := make(map[string]models.RoundStatus, len(rounds))
	for i := range rounds {
		out[rounds[i].ID] = pickem.Status(&rounds[i], now)
	}
	return out, nil
}

// CreateRound validates and stores a new round. New rounds are active
// unless the input says otherwise.
func (s *RoundService) CreateRound(ctx context.Context, in RoundInput) (string, error) {
	round := models.Round{Active: true}
	if err := s.apply(ctx, &round, in); err != nil {
		return "", err
	}

	id, err := s.repo.CreateRound(ctx, round)
	if err != nil {
		return "", err
	}
	round.ID = id
	s.log.Info("Round created", "round_id", id, "name", round.Name)
	s.broadcast(round)
	return id, nil
}

// UpdateRound replaces a round's editable fields
func (s *RoundService) UpdateRound(ctx context.Context, id string, in RoundInput) error {
	round, err := s.repo.GetRound(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFoundf("round %s not found", id)
	}
	if err != nil {
		return err
	}

	if err := s.apply(ctx, round, in); err != nil {
		return err
	}
	if err := s.repo.UpdateRound(ctx, *round); err != nil {
		return err
	}
	s.log.Info("Round updated", "round_id", id)
	s.broadcast(*round)
	return nil
}

// DeleteRound removes a round. Its picks are kept.
func (s *RoundService) DeleteRound(ctx context.Context, id string) error {
	if err := s.repo.DeleteRound(ctx, id); err != nil {
		return err
	}
	s.log.Info("Round deleted", "round_id", id)
	return nil
}

func (s *RoundService) apply(ctx context.Context, round *models.Round, in RoundInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return errors.Validation("name is required")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return errors.Validation("end date must not be before start date")
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	ids := uniqueIDs(in.MatchIDs)
	if len(ids) > 0 {
		_, missing, err := s.repo.GetMatches(ctx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return errors.Validationf("unknown match ids: %s", strings.Join(missing, ", "))
		}
	}

	round.Name = name
	round.Slug = slug
	round.StartDate = in.StartDate
	round.EndDate = in.EndDate
	round.MatchIDs = ids
	if in.Active != nil {
		round.Active = *in.Active
	}
	return nil
}

func (s *RoundService) broadcast(round models.Round) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRoundStatus(round.ID, pickem.Status(&round, s.clock.Now()))
	}
}

// ShareQR renders a PNG QR code linking to the round
func (s *RoundService) ShareQR(ctx context.Context, id string) ([]byte, error) {
	if s.baseURL == "" {
		return nil, ErrBaseURLNotSet
	}
	round, err := s.repo.GetRound(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NotFoundf("round %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/rounds/%s", strings.TrimSuffix(s.baseURL, "/"), round.ID)
	return qrcode.Encode(url, qrcode.Medium, 256)
}

// Slugify lowercases s and joins its words with dashes
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
