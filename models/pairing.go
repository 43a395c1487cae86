package models

import "time"

// Pairing is one debate in a round. A nil side is a bye.
type Pairing struct {
	ID              int       `json:"id" db:"id"`
	RoundID         int       `json:"round_id" db:"round_id"`
	PropTeamID      *int      `json:"prop_team_id,omitempty" db:"prop_team_id"`
	OppTeamID       *int      `json:"opp_team_id,omitempty" db:"opp_team_id"`
	Bracket         int       `json:"bracket" db:"bracket"`
	RoomOrder       int       `json:"room_order" db:"room_order"`
	Rematch         bool      `json:"rematch" db:"rematch"`
	SameInstitution bool      `json:"same_institution" db:"same_institution"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	RoundNumber int            `json:"round_number,omitempty" db:"-"`
	Judges      []PairingJudge `json:"judges,omitempty" db:"-"`
	PropTeam    *Team          `json:"prop_team,omitempty" db:"-"`
	OppTeam     *Team          `json:"opp_team,omitempty" db:"-"`
	Result      *Result        `json:"result,omitempty" db:"-"`
}

func (p *Pairing) IsBye() bool {
	return p.PropTeamID == nil || p.OppTeamID == nil
}

// Chair returns the chair assignment or nil.
func (p *Pairing) Chair() *PairingJudge {
	for i := range p.Judges {
		if p.Judges[i].IsChair {
			return &p.Judges[i]
		}
	}
	return nil
}

type PairingJudge struct {
	PairingID int  `json:"pairing_id" db:"pairing_id"`
	JudgeID   int  `json:"judge_id" db:"judge_id"` // participation id
	IsChair   bool `json:"is_chair" db:"is_chair"`

	Judge *Participation `json:"judge,omitempty" db:"-"`
}
