package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrNotEnoughTeams = errors.New("not enough eligible teams to generate a draw (minimum 2)")
	ErrDuplicateTeam  = errors.New("team listed more than once in draw input")
)

type GenerateDrawParams struct {
	RoundNumber int
	// Teams are the eligible teams in seed order.
	Teams []*models.Team
	// Standings is empty for round 1.
	Standings []StandingRow
	History   []PairingRecord
	// MaxSwapAttempts bounds conflict repair per pairing. Zero means DefaultMaxSwapAttempts.
	MaxSwapAttempts int
}

type DrawGenerator interface {
	GenerateDraw(ctx context.Context, params GenerateDrawParams) (*Draw, error)

	GetName() string
}

type DrawPairing struct {
	PropTeamID *int `json:"prop_team_id"`
	OppTeamID  *int `json:"opp_team_id"`
	Bracket    int  `json:"bracket"`
}

func (p DrawPairing) IsBye() bool {
	return p.PropTeamID == nil || p.OppTeamID == nil
}

// DrawFlag marks a soft-constraint violation accepted for a pairing.
type DrawFlag struct {
	Rematch         bool `json:"rematch"`
	SameInstitution bool `json:"same_institution"`
}

func (f DrawFlag) Any() bool {
	return f.Rematch || f.SameInstitution
}

// Draw holds pairings and a flag slice of the same length.
type Draw struct {
	RoundNumber int           `json:"round_number"`
	Generator   string        `json:"generator"`
	Pairings    []DrawPairing `json:"pairings"`
	Flags       []DrawFlag    `json:"flags"`
}

func (d *Draw) Warnings() int {
	n := 0
	for _, f := range d.Flags {
		if f.Any() {
			n++
		}
	}
	return n
}

// ByeTeamID returns the team sitting out, if any.
func (d *Draw) ByeTeamID() (int, bool) {
	for _, p := range d.Pairings {
		if !p.IsBye() {
			continue
		}
		if p.PropTeamID != nil {
			return *p.PropTeamID, true
		}
		if p.OppTeamID != nil {
			return *p.OppTeamID, true
		}
	}
	return 0, false
}
