package models

import "time"

type Ballot struct {
	ID           int       `json:"id" db:"id"`
	PairingID    int       `json:"pairing_id" db:"pairing_id"`
	JudgeID      int       `json:"judge_id" db:"judge_id"`
	WinnerTeamID int       `json:"winner_team_id" db:"winner_team_id"`
	PropScore    float64   `json:"prop_score" db:"prop_score"` // sum of speaker scores
	OppScore     float64   `json:"opp_score" db:"opp_score"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Result is attached to a pairing once its ballots are aggregated. A nil
// winner means the panel deadlocked and an administrator has to decide.
type Result struct {
	ID           int       `json:"id" db:"id"`
	PairingID    int       `json:"pairing_id" db:"pairing_id"`
	WinnerTeamID *int      `json:"winner_team_id" db:"winner_team_id"`
	PropVotes    int       `json:"prop_votes" db:"prop_votes"`
	OppVotes     int       `json:"opp_votes" db:"opp_votes"`
	PropAvgScore float64   `json:"prop_avg_score" db:"prop_avg_score"`
	OppAvgScore  float64   `json:"opp_avg_score" db:"opp_avg_score"`
	Manual       bool      `json:"manual" db:"manual"`
	Locked       bool      `json:"locked" db:"locked"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (r *Result) IsDecided() bool {
	return r != nil && r.WinnerTeamID != nil
}
