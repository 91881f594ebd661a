package pickem

import "github.com/abrezinsky/pickem/internal/models"

// ScoreResult is the outcome of scoring one pick.
type ScoreResult struct {
	Score          int `json:"score"`
	TotalEvaluated int `json:"total_evaluated"`
	TotalCorrect   int `json:"total_correct"`
}

// Score computes a pick's score against the round's matches.
//
// One point per correct selection. Selections on unresolved or unknown
// matches are skipped. While no match has a result the stored score is
// returned untouched with TotalEvaluated == 0.
func Score(matches []models.Match, pick *models.Pick) ScoreResult {
	if pick == nil || len(pick.Selections) == 0 {
		return ScoreResult{}
	}

	winners := Winners(matches)
	if len(winners) == 0 {
		return ScoreResult{Score: pick.Score}
	}

	var res ScoreResult
	for _, sel := range pick.Selections {
		winner, ok := winners[sel.MatchID]
		if !ok {
			continue
		}
		res.TotalEvaluated++
		if sel.PredictedWinnerTeamID == winner {
			res.TotalCorrect++
		}
	}
	res.Score = res.TotalCorrect
	return res
}
