package handlers

import (
	"time"

	"github.com/abrezinsky/pickem/internal/models"
)

// SessionRequest exchanges a provider token for a session cookie
type SessionRequest struct {
	Token string `json:"token"`
}

// RoundRequest represents a request to create or update a round
type RoundRequest struct {
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	MatchIDs  []string   `json:"match_ids"`
	Active    *bool      `json:"active"`
}

// PickSubmitRequest represents a participant's selections for a round
type PickSubmitRequest struct {
	Selections []models.Selection `json:"selections"`
}

// MatchCreateRequest represents a request to create a match
type MatchCreateRequest struct {
	ID      string     `json:"id"`
	EventID string     `json:"event_id"`
	Date    *time.Time `json:"date"`
	TeamAID string     `json:"team_a_id"`
	TeamBID string     `json:"team_b_id"`
}

// MatchResultRequest represents a request to record a match result
type MatchResultRequest struct {
	Status     string `json:"status"`
	TeamAScore int    `json:"team_a_score"`
	TeamBScore int    `json:"team_b_score"`
}

// TeamCreateRequest represents a request to create a team
type TeamCreateRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// PickScoreRequest represents an admin score override. Score is a pointer
// so a missing field is rejected rather than read as zero.
type PickScoreRequest struct {
	Score *int `json:"score"`
}
