package models

import "time"

// Collection names in the document store
const (
	CollectionRounds  = "pickRounds"
	CollectionMatches = "matches"
	CollectionPicks   = "picks"
	CollectionUsers   = "users"
	CollectionTeams   = "teams"
)

// RoundStatus is the lifecycle state of a pick'em round
type RoundStatus string

const (
	RoundUnscheduled RoundStatus = "unscheduled"
	RoundInactive    RoundStatus = "inactive"
	RoundUpcoming    RoundStatus = "upcoming"
	RoundActive      RoundStatus = "active"
	RoundCompleted   RoundStatus = "completed"
)

// Match statuses
const (
	MatchUpcoming  = "upcoming"
	MatchLive      = "live"
	MatchFinal     = "final"
	MatchCompleted = "completed" // legacy alias of final
)

// User roles
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleUser   = "user"
)

// Round is a time-boxed pick'em contest bound to a set of matches
type Round struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	MatchIDs  []string   `json:"match_ids"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// MapResult is the score of one map within a match
type MapResult struct {
	Name       string `json:"name"`
	Mode       string `json:"mode,omitempty"`
	TeamAScore int    `json:"team_a_score"`
	TeamBScore int    `json:"team_b_score"`
}

// Match is a single series between two teams
type Match struct {
	ID         string      `json:"id"`
	EventID    string      `json:"event_id,omitempty"`
	Date       *time.Time  `json:"date,omitempty"`
	Status     string      `json:"status"`
	TeamAID    string      `json:"team_a_id"`
	TeamBID    string      `json:"team_b_id"`
	TeamAScore int         `json:"team_a_score"`
	TeamBScore int         `json:"team_b_score"`
	Maps       []MapResult `json:"maps,omitempty"`
}

// Selection is one predicted winner within a pick
type Selection struct {
	MatchID               string `json:"match_id"`
	PredictedWinnerTeamID string `json:"predicted_winner_team_id"`
}

// Pick is one participant's predictions for a round
type Pick struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	RoundID    string      `json:"round_id"`
	Selections []Selection `json:"selections"`
	Score      int         `json:"score"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}

// User is a participant profile
type User struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
}

// Team is an esports team
type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
}

// Label returns the short name, falling back to the full name
func (t Team) Label() string {
	if t.ShortName != "" {
		return t.ShortName
	}
	return t.Name
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
