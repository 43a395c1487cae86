package brackets

import (
	"cmp"
	"slices"
)

type StandingRow struct {
	TeamID           int     `json:"team_id"`
	Wins             int     `json:"wins"`
	Losses           int     `json:"losses"`
	PropCount        int     `json:"prop_count"`
	OppCount         int     `json:"opp_count"`
	OpponentStrength float64 `json:"opponent_strength"`
	// Rank is shared by rows that tie on wins and opponent strength.
	Rank int  `json:"rank"`
	Tied bool `json:"tied"`
}

type teamTally struct {
	wins, losses, prop, opp int
	opponents               []int
}

// CalculateStandings ranks every team with at least one finalized pairing.
// Ordering is wins desc, then opponent strength (Buchholz) desc. Rows that
// tie on both share a rank and are marked Tied; their relative order is by
// team id only so that repeated calls return identical output.
func CalculateStandings(records []PairingRecord) []StandingRow {
	tallies := make(map[int]*teamTally)
	tally := func(id int) *teamTally {
		t, ok := tallies[id]
		if !ok {
			t = &teamTally{}
			tallies[id] = t
		}
		return t
	}

	for _, r := range records {
		if !r.IsFinalized() {
			continue
		}
		prop, opp, winner := *r.PropTeamID, *r.OppTeamID, *r.WinnerTeamID

		pt := tally(prop)
		pt.prop++
		pt.opponents = append(pt.opponents, opp)

		ot := tally(opp)
		ot.opp++
		ot.opponents = append(ot.opponents, prop)

		if winner == prop {
			pt.wins++
			ot.losses++
		} else {
			ot.wins++
			pt.losses++
		}
	}

	if len(tallies) == 0 {
		return []StandingRow{}
	}

	// First pass: wins per team, read-only from here on.
	wins := make(map[int]int, len(tallies))
	for id, t := range tallies {
		wins[id] = t.wins
	}

	rows := make([]StandingRow, 0, len(tallies))
	for id, t := range tallies {
		row := StandingRow{
			TeamID:    id,
			Wins:      t.wins,
			Losses:    t.losses,
			PropCount: t.prop,
			OppCount:  t.opp,
		}
		if len(t.opponents) > 0 {
			sum := 0
			for _, o := range t.opponents {
				sum += wins[o]
			}
			row.OpponentStrength = float64(sum) / float64(len(t.opponents))
		}
		rows = append(rows, row)
	}

	slices.SortFunc(rows, func(a, b StandingRow) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		if c := cmp.Compare(b.OpponentStrength, a.OpponentStrength); c != 0 {
			return c
		}
		return cmp.Compare(a.TeamID, b.TeamID)
	})

	for i := range rows {
		if i > 0 && sameStanding(rows[i-1], rows[i]) {
			rows[i].Rank = rows[i-1].Rank
			rows[i].Tied = true
			rows[i-1].Tied = true
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows
}

func sameStanding(a, b StandingRow) bool {
	return a.Wins == b.Wins && a.OpponentStrength == b.OpponentStrength
}
