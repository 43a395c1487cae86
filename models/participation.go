package models

import "time"

// ParticipationRole определяет роль человека в турнире.
type ParticipationRole string

const (
	RoleDebater ParticipationRole = "debater"
	RoleJudge   ParticipationRole = "judge"
)

func (r ParticipationRole) IsValid() bool {
	switch r {
	case RoleDebater, RoleJudge:
		return true
	default:
		return false
	}
}

const (
	MinJudgeRating = 0
	MaxJudgeRating = 10
)

type Participation struct {
	ID            int               `json:"id" db:"id"`
	TournamentID  int               `json:"tournament_id" db:"tournament_id"`
	UserID        *int              `json:"user_id,omitempty" db:"user_id"`
	Name          string            `json:"name" db:"name"`
	Role          ParticipationRole `json:"role" db:"role"`
	TeamID        *int              `json:"team_id,omitempty" db:"team_id"`               // debaters only
	InstitutionID *int              `json:"institution_id,omitempty" db:"institution_id"` // conflict checks
	Rating        int               `json:"rating" db:"rating"`                           // judges only, 0..10
	Independent   bool              `json:"independent" db:"independent"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// Roster splits participations by role.
func Roster(all []*Participation) (debaters, judges []*Participation) {
	for _, p := range all {
		if p == nil {
			continue
		}
		switch p.Role {
		case RoleDebater:
			debaters = append(debaters, p)
		case RoleJudge:
			judges = append(judges, p)
		}
	}
	return debaters, judges
}
