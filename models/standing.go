package models

import "time"

// TournamentStanding is the cached form of a computed standings row.
type TournamentStanding struct {
	ID               int       `json:"id" db:"id"`
	TournamentID     int       `json:"tournament_id" db:"tournament_id"`
	TeamID           int       `json:"team_id" db:"team_id"`
	TeamName         string    `json:"team_name" db:"-"`
	Wins             int       `json:"wins" db:"wins"`
	Losses           int       `json:"losses" db:"losses"`
	PropCount        int       `json:"prop_count" db:"prop_count"`
	OppCount         int       `json:"opp_count" db:"opp_count"`
	OpponentStrength float64   `json:"opponent_strength" db:"opponent_strength"`
	Rank             int       `json:"rank" db:"rank"`
	Tied             bool      `json:"tied" db:"tied"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
