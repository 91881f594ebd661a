package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/abrezinsky/pickem/internal/errors"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/repository/mock"
	"github.com/abrezinsky/pickem/internal/services"
	"github.com/abrezinsky/pickem/internal/testutil"
)

func newMatchService(t *testing.T) (*services.MatchService, *mock.Repository) {
	t.Helper()
	repo := testutil.NewTestRepository(t)
	testutil.SeedWeekOne(t, repo)
	m := mock.NewRepository(repo)
	return services.NewMatchService(logger.NewNop(), m), m
}

func TestMatchService_ListMatches(t *testing.T) {
	svc, _ := newMatchService(t)

	matches, err := svc.ListMatches(context.Background())
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	winners := map[string]string{}
	for _, m := range matches {
		winners[m.ID] = m.Winner
	}
	if winners["M1"] != "A1" || winners["M2"] != "" || winners["M3"] != "" {
		t.Errorf("unexpected winners: %v", winners)
	}
}

func TestMatchService_CreateMatch(t *testing.T) {
	svc, m := newMatchService(t)
	ctx := context.Background()

	id, err := svc.CreateMatch(ctx, services.MatchInput{TeamAID: "A1", TeamBID: "B2"})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	match, err := m.GetMatch(ctx, id)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if match.Status != models.MatchUpcoming {
		t.Errorf("expected upcoming, got %q", match.Status)
	}

	if _, err := svc.CreateMatch(ctx, services.MatchInput{ID: "M1", TeamAID: "A1", TeamBID: "B1"}); !errors.IsKind(err, errors.ErrConflict) {
		t.Errorf("expected conflict for duplicate id, got %v", err)
	}
}

func TestMatchService_CreateMatch_Validation(t *testing.T) {
	svc, _ := newMatchService(t)
	ctx := context.Background()

	for _, in := range []services.MatchInput{
		{TeamAID: "A1"},
		{TeamAID: "A1", TeamBID: "A1"},
	} {
		if _, err := svc.CreateMatch(ctx, in); !errors.IsKind(err, errors.ErrValidation) {
			t.Errorf("CreateMatch(%+v): expected validation error, got %v", in, err)
		}
	}
}

func TestMatchService_RecordResult(t *testing.T) {
	svc, m := newMatchService(t)
	ctx := context.Background()

	if err := svc.RecordResult(ctx, "M3", services.ResultInput{Status: "FINAL", TeamAScore: 2, TeamBScore: 13}); err != nil {
		t.Fatalf("RecordResult failed: %v", err)
	}
	match, err := m.GetMatch(ctx, "M3")
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if match.Status != models.MatchFinal || match.TeamAScore != 2 || match.TeamBScore != 13 {
		t.Errorf("unexpected match after result: %+v", match)
	}
}

func TestMatchService_RecordResult_Errors(t *testing.T) {
	svc, m := newMatchService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
		in   services.ResultInput
		want error
	}{
		{"bad status", "M1", services.ResultInput{Status: "postponed"}, services.ErrInvalidMatchStatus},
		{"negative score", "M1", services.ResultInput{Status: "final", TeamAScore: -1}, services.ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.RecordResult(ctx, tt.id, tt.in); err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := svc.RecordResult(ctx, "M404", services.ResultInput{Status: "live"}); !errors.IsKind(err, errors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	dbErr := stderrors.New("database error")
	m.UpdateMatchResultError = dbErr
	if err := svc.RecordResult(ctx, "M1", services.ResultInput{Status: "live"}); !stderrors.Is(err, dbErr) {
		t.Errorf("expected db error, got %v", err)
	}
}

func TestMatchService_DeleteMatch(t *testing.T) {
	svc, _ := newMatchService(t)
	ctx := context.Background()

	if err := svc.DeleteMatch(ctx, "M3"); err != nil {
		t.Fatalf("DeleteMatch failed: %v", err)
	}
	matches, err := svc.ListMatches(ctx)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches))
	}
}

func TestMatchService_Teams(t *testing.T) {
	svc, _ := newMatchService(t)
	ctx := context.Background()

	if _, err := svc.CreateTeam(ctx, models.Team{Name: " "}); !errors.IsKind(err, errors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.CreateTeam(ctx, models.Team{ID: "A1", Name: "Dup"}); !errors.IsKind(err, errors.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	id, err := svc.CreateTeam(ctx, models.Team{Name: "Charlie", ShortName: "CHL"})
	if err != nil {
		t.Fatalf("CreateTeam failed: %v", err)
	}
	teams, err := svc.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams failed: %v", err)
	}
	if len(teams) != 7 {
		t.Fatalf("expected 7 teams, got %d", len(teams))
	}
	var found bool
	for _, team := range teams {
		if team.ID == id && team.Label() == "CHL" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected new team %s in list", id)
	}
}
