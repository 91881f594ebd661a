package pickem

import "github.com/abrezinsky/pickem/internal/models"

// IsFinal reports whether a match status counts as a finished result.
func IsFinal(status string) bool {
	return status == models.MatchFinal || status == models.MatchCompleted
}

// Winner returns the id of the winning team, or "" when the match is not
// finished or ended level.
func Winner(match *models.Match) string {
	if match == nil || !IsFinal(match.Status) {
		return ""
	}
	a, b := match.TeamAScore, match.TeamBScore
	if a == b {
		return ""
	}
	if a > b {
		return match.TeamAID
	}
	return match.TeamBID
}

// Winners maps match id to winning team id for every resolved match.
func Winners(matches []models.Match) map[string]string {
	winners := make(map[string]string, len(matches))
	for i := range matches {
		if w := Winner(&matches[i]); w != "" {
			winners[matches[i].ID] = w
		}
	}
	return winners
}

// AnyResolved reports whether at least one match has a winner.
func AnyResolved(matches []models.Match) bool {
	for i := range matches {
		if Winner(&matches[i]) != "" {
			return true
		}
	}
	return false
}
