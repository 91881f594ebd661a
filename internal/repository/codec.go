package repository

import (
	"math"
	"strings"
	"time"

	"github.com/abrezinsky/pickem/internal/docstore"
	"github.com/abrezinsky/pickem/internal/models"
	"github.com/abrezinsky/pickem/internal/pickem"
)

// Document field names
const (
	fieldName       = "name"
	fieldSlug       = "slug"
	fieldStartDate  = "startDate"
	fieldEndDate    = "endDate"
	fieldMatchIDs   = "matchIds"
	fieldActive     = "active"
	fieldCreatedAt  = "createdAt"
	fieldUpdatedAt  = "updatedAt"
	fieldEventID    = "eventId"
	fieldDate       = "date"
	fieldStatus     = "status"
	fieldTeamAID    = "teamAId"
	fieldTeamBID    = "teamBId"
	fieldTeamAScore = "teamAScore"
	fieldTeamBScore = "teamBScore"
	fieldMaps       = "maps"
	fieldMode       = "mode"
	fieldUserID     = "userId"
	fieldRoundID    = "roundId"
	fieldSelections = "selections"
	fieldMatchID    = "matchId"
	fieldPredicted  = "predictedWinnerTeamId"
	fieldScore      = "score"
	fieldDisplay    = "displayName"
	fieldEmail      = "email"
	fieldRole       = "role"
	fieldShortName  = "shortName"
)

func str(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

// integer reads a numeric field. Missing values and anything that is not a
// number, numeric strings included, are 0.
func integer(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	default:
		return 0
	}
}

// flag reads a boolean field, returning def when absent or not a bool
func flag(data map[string]any, key string, def bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return def
}

func stringList(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		if ss, ok := data[key].([]string); ok {
			return append([]string(nil), ss...)
		}
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func objects(data map[string]any, key string) []map[string]any {
	switch raw := data[key].(type) {
	case []any:
		out := make([]map[string]any, 0, len(raw))
		for _, v := range raw {
			if m, ok := v.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case []map[string]any:
		return raw
	default:
		return nil
	}
}

// timeOr prefers the document field and falls back to store metadata
func timeOr(data map[string]any, key string, fallback time.Time) *time.Time {
	if t := pickem.ParseTimePtr(data[key]); t != nil {
		return t
	}
	if fallback.IsZero() {
		return nil
	}
	t := fallback.UTC()
	return &t
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func decodeRound(doc docstore.Document) models.Round {
	d := doc.Data
	return models.Round{
		ID:        doc.ID,
		Name:      str(d, fieldName),
		Slug:      str(d, fieldSlug),
		StartDate: pickem.ParseTimePtr(d[fieldStartDate]),
		EndDate:   pickem.ParseTimePtr(d[fieldEndDate]),
		MatchIDs:  stringList(d, fieldMatchIDs),
		Active:    flag(d, fieldActive, true),
		CreatedAt: timeOr(d, fieldCreatedAt, doc.CreateTime),
		UpdatedAt: timeOr(d, fieldUpdatedAt, doc.UpdateTime),
	}
}

func encodeRound(r models.Round) map[string]any {
	ids := r.MatchIDs
	if ids == nil {
		ids = []string{}
	}
	return map[string]any{
		fieldName:      r.Name,
		fieldSlug:      r.Slug,
		fieldStartDate: timeValue(r.StartDate),
		fieldEndDate:   timeValue(r.EndDate),
		fieldMatchIDs:  ids,
		fieldActive:    r.Active,
	}
}

func decodeMatch(doc docstore.Document) models.Match {
	d := doc.Data
	m := models.Match{
		ID:         doc.ID,
		EventID:    str(d, fieldEventID),
		Date:       pickem.ParseTimePtr(d[fieldDate]),
		Status:     strings.ToLower(str(d, fieldStatus)),
		TeamAID:    str(d, fieldTeamAID),
		TeamBID:    str(d, fieldTeamBID),
		TeamAScore: integer(d, fieldTeamAScore),
		TeamBScore: integer(d, fieldTeamBScore),
	}
	for _, raw := range objects(d, fieldMaps) {
		m.Maps = append(m.Maps, models.MapResult{
			Name:       str(raw, fieldName),
			Mode:       str(raw, fieldMode),
			TeamAScore: integer(raw, fieldTeamAScore),
			TeamBScore: integer(raw, fieldTeamBScore),
		})
	}
	return m
}

func encodeMatch(m models.Match) map[string]any {
	maps := make([]any, 0, len(m.Maps))
	for _, mr := range m.Maps {
		maps = append(maps, map[string]any{
			fieldName:       mr.Name,
			fieldMode:       mr.Mode,
			fieldTeamAScore: mr.TeamAScore,
			fieldTeamBScore: mr.TeamBScore,
		})
	}
	return map[string]any{
		fieldEventID:    m.EventID,
		fieldDate:       timeValue(m.Date),
		fieldStatus:     m.Status,
		fieldTeamAID:    m.TeamAID,
		fieldTeamBID:    m.TeamBID,
		fieldTeamAScore: m.TeamAScore,
		fieldTeamBScore: m.TeamBScore,
		fieldMaps:       maps,
	}
}

func decodePick(doc docstore.Document) models.Pick {
	d := doc.Data
	p := models.Pick{
		ID:         doc.ID,
		UserID:     str(d, fieldUserID),
		RoundID:    str(d, fieldRoundID),
		Selections: []models.Selection{},
		Score:      integer(d, fieldScore),
		CreatedAt:  timeOr(d, fieldCreatedAt, doc.CreateTime),
		UpdatedAt:  timeOr(d, fieldUpdatedAt, doc.UpdateTime),
	}
	for _, raw := range objects(d, fieldSelections) {
		p.Selections = append(p.Selections, models.Selection{
			MatchID:               str(raw, fieldMatchID),
			PredictedWinnerTeamID: str(raw, fieldPredicted),
		})
	}
	return p
}

func encodeSelections(sel []models.Selection) []any {
	out := make([]any, 0, len(sel))
	for _, s := range sel {
		out = append(out, map[string]any{
			fieldMatchID:   s.MatchID,
			fieldPredicted: s.PredictedWinnerTeamID,
		})
	}
	return out
}

func decodeUser(doc docstore.Document) models.User {
	d := doc.Data
	return models.User{
		UID:         doc.ID,
		DisplayName: str(d, fieldDisplay),
		Email:       str(d, fieldEmail),
		Role:        str(d, fieldRole),
	}
}

func decodeTeam(doc docstore.Document) models.Team {
	d := doc.Data
	return models.Team{
		ID:        doc.ID,
		Name:      str(d, fieldName),
		ShortName: str(d, fieldShortName),
	}
}
