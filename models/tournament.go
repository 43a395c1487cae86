package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// Tournament представляет турнир.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Status          TournamentStatus `json:"status" db:"status"`
	MaxSwapAttempts *int             `json:"max_swap_attempts,omitempty" db:"max_swap_attempts"` // nil: use server default
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`

	Teams  []Team  `json:"teams,omitempty" db:"-"`
	Rounds []Round `json:"rounds,omitempty" db:"-"`
}
