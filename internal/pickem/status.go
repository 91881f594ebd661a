package pickem

import (
	"time"

	"github.com/abrezinsky/pickem/internal/models"
)

// Status evaluates a round's lifecycle state at now.
//
// An explicitly deactivated round is inactive regardless of its dates. A round
// missing either date is unscheduled. Otherwise the window [start, end] is
// inclusive on both ends.
func Status(round *models.Round, now time.Time) models.RoundStatus {
	if round == nil {
		return models.RoundUnscheduled
	}
	if !round.Active {
		return models.RoundInactive
	}
	if round.StartDate == nil || round.EndDate == nil {
		return models.RoundUnscheduled
	}
	if now.Before(*round.StartDate) {
		return models.RoundUpcoming
	}
	if now.After(*round.EndDate) {
		return models.RoundCompleted
	}
	return models.RoundActive
}

// IsOpenForPicks reports whether picks may be created or edited at now.
func IsOpenForPicks(round *models.Round, now time.Time) bool {
	return Status(round, now) == models.RoundActive
}

// DefaultRound picks the round a participant lands on: the first round open
// for picks, else the first round in the given order. Returns nil for an
// empty list.
func DefaultRound(rounds []models.Round, now time.Time) *models.Round {
	if len(rounds) == 0 {
		return nil
	}
	for i := range rounds {
		if IsOpenForPicks(&rounds[i], now) {
			return &rounds[i]
		}
	}
	return &rounds[0]
}
