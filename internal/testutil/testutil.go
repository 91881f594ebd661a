package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.OpenSQLite(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// Date returns midnight UTC on the given day
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TimePtr returns a pointer to t
func TimePtr(t time.Time) *time.Time {
	return &t
}

// Fixture ids seeded by SeedWeekOne
const (
	RoundID = "R1"
	UserID  = "u1"
)

// SeedWeekOne stores round R1 (2024-01-01 to 2024-01-08) with three
// matches: M1 final 13-9, M2 final 10-10 and M3 upcoming.
func SeedWeekOne(t *testing.T, repo repository.FullRepository) {
	t.Helper()
	ctx := context.Background()

	for _, team := range []models.Team{
		{ID: "A1", Name: "Alpha One"}, {ID: "B1", Name: "Bravo One"},
		{ID: "A2", Name: "Alpha Two"}, {ID: "B2", Name: "Bravo Two"},
		{ID: "A3", Name: "Alpha Three"}, {ID: "B3", Name: "Bravo Three"},
	} {
		if _, err := repo.CreateTeam(ctx, team); err != nil {
			t.Fatalf("failed to seed team: %v", err)
		}
	}

	matches := []models.Match{
		{ID: "M1", Status: models.MatchFinal, TeamAID: "A1", TeamBID: "B1", TeamAScore: 13, TeamBScore: 9},
		{ID: "M2", Status: models.MatchFinal, TeamAID: "A2", TeamBID: "B2", TeamAScore: 10, TeamBScore: 10},
		{ID: "M3", Status: models.MatchUpcoming, TeamAID: "A3", TeamBID: "B3"},
	}
	for _, m := range matches {
		if _, err := repo.CreateMatch(ctx, m); err != nil {
			t.Fatalf("failed to seed match: %v", err)
		}
	}

	_, err := repo.CreateRound(ctx, models.Round{
		ID:        RoundID,
		Name:      "Week 1",
		Slug:      "week-1",
		StartDate: TimePtr(Date(2024, 1, 1)),
		EndDate:   TimePtr(Date(2024, 1, 8)),
		MatchIDs:  []string{"M1", "M2", "M3"},
		Active:    true,
	})
	if err != nil {
		t.Fatalf("failed to seed round: %v", err)
	}
}

// P1Selections picks A1, B2 and A3. Against SeedWeekOne it scores 1.
func P1Selections() []models.Selection {
	return []models.Selection{
		{MatchID: "M1", PredictedWinnerTeamID: "A1"},
		{MatchID: "M2", PredictedWinnerTeamID: "B2"},
		{MatchID: "M3", PredictedWinnerTeamID: "A3"},
	}
}
