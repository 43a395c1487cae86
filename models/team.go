package models

import "time"

type Institution struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Team is immutable once a published round references it.
type Team struct {
	ID            int       `json:"id" db:"id"`
	TournamentID  int       `json:"tournament_id" db:"tournament_id"`
	InstitutionID *int      `json:"institution_id,omitempty" db:"institution_id"`
	Name          string    `json:"name" db:"name"`
	Seed          int       `json:"seed" db:"seed"` // round 1 order, registration order by default
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Institution *Institution `json:"institution,omitempty" db:"-"`
}
