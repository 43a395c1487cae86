package models

import "time"

type DrawStatus string

const (
	DrawStatusDraft     DrawStatus = "draft"
	DrawStatusPublished DrawStatus = "published"
)

type Round struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	Number       int        `json:"number" db:"number"`
	Status       DrawStatus `json:"status" db:"status"`
	Motion       string     `json:"motion" db:"motion"`
	PublishedAt  *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	Pairings []Pairing `json:"pairings,omitempty" db:"-"`
}

func (r *Round) IsPublished() bool {
	return r != nil && r.Status == DrawStatusPublished
}
