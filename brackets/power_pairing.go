package brackets

import (
	"context"
	"fmt"
	"slices"

	"github.com/Dosada05/debate-tab/models"
)

const DefaultMaxSwapAttempts = 4

// A rematch outweighs any institution clash a swap could introduce in two pairings.
const (
	rematchCost     = 3
	institutionCost = 1
)

type PowerPairingGenerator struct{}

func NewPowerPairingGenerator() DrawGenerator {
	return &PowerPairingGenerator{}
}

func (g *PowerPairingGenerator) GetName() string {
	return "PowerPairing"
}

type rankedTeam struct {
	team *models.Team
	wins int
	// level is the position of the team's win bracket among non-empty brackets, top is 0.
	level int
}

func (r rankedTeam) id() int {
	return r.team.ID
}

// GenerateDraw pairs teams top-down within win brackets. Round 1 (no standings)
// follows seed order. Rematches and same-institution pairings are repaired by
// bounded swaps with teams of the same or an adjacent bracket; anything left
// unresolved is returned flagged rather than rejected.
func (g *PowerPairingGenerator) GenerateDraw(ctx context.Context, params GenerateDrawParams) (*Draw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params.Teams) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrNotEnoughTeams, len(params.Teams))
	}
	seen := make(map[int]struct{}, len(params.Teams))
	for _, t := range params.Teams {
		if t == nil {
			return nil, fmt.Errorf("%w: nil team", ErrDuplicateTeam)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateTeam, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	maxAttempts := params.MaxSwapAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxSwapAttempts
	}

	hist := indexHistory(params.History)
	ranked := rankTeams(params.Teams, params.Standings)

	var bye *rankedTeam
	if len(ranked)%2 == 1 {
		idx := pickBye(ranked, hist)
		b := ranked[idx]
		bye = &b
		ranked = slices.Delete(ranked, idx, idx+1)
	}

	assignLevels(ranked)
	p := &pairer{order: ranked, hist: hist, maxAttempts: maxAttempts}
	p.resolveConflicts()

	draw := &Draw{
		RoundNumber: params.RoundNumber,
		Generator:   g.GetName(),
		Pairings:    make([]DrawPairing, 0, len(ranked)/2+1),
		Flags:       make([]DrawFlag, 0, len(ranked)/2+1),
	}
	for i := 0; i < p.pairs(); i++ {
		a, b := p.order[2*i], p.order[2*i+1]
		prop, opp := assignSides(a, b, hist, params.RoundNumber)
		propID, oppID := prop.id(), opp.id()
		draw.Pairings = append(draw.Pairings, DrawPairing{
			PropTeamID: &propID,
			OppTeamID:  &oppID,
			Bracket:    max(a.wins, b.wins),
		})
		draw.Flags = append(draw.Flags, DrawFlag{
			Rematch:         hist.haveMet(propID, oppID),
			SameInstitution: sameInstitution(prop.team, opp.team),
		})
	}
	if bye != nil {
		byeID := bye.id()
		draw.Pairings = append(draw.Pairings, DrawPairing{PropTeamID: &byeID, Bracket: bye.wins})
		draw.Flags = append(draw.Flags, DrawFlag{})
	}
	return draw, nil
}

// rankTeams orders eligible teams by standings, or by seed when there are none.
// Teams missing from standings join the bottom (zero-win) bracket in seed order.
func rankTeams(teams []*models.Team, standings []StandingRow) []rankedTeam {
	bySeed := slices.Clone(teams)
	slices.SortStableFunc(bySeed, func(a, b *models.Team) int {
		if a.Seed != b.Seed {
			return a.Seed - b.Seed
		}
		return a.ID - b.ID
	})

	ranked := make([]rankedTeam, 0, len(teams))
	if len(standings) == 0 {
		for _, t := range bySeed {
			ranked = append(ranked, rankedTeam{team: t})
		}
		return ranked
	}

	eligible := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		eligible[t.ID] = t
	}
	placed := make(map[int]bool, len(teams))
	for _, row := range standings {
		t, ok := eligible[row.TeamID]
		if !ok || placed[row.TeamID] {
			continue
		}
		ranked = append(ranked, rankedTeam{team: t, wins: row.Wins})
		placed[row.TeamID] = true
	}
	for _, t := range bySeed {
		if !placed[t.ID] {
			ranked = append(ranked, rankedTeam{team: t})
		}
	}
	return ranked
}

// assignLevels numbers the occupied win brackets top-down, so brackets with an
// empty bracket between them still count as adjacent.
func assignLevels(ranked []rankedTeam) {
	wins := make([]int, 0, len(ranked))
	for _, r := range ranked {
		wins = append(wins, r.wins)
	}
	slices.Sort(wins)
	wins = slices.Compact(wins)
	slices.Reverse(wins)
	for i := range ranked {
		ranked[i].level = slices.Index(wins, ranked[i].wins)
	}
}

// pickBye returns the lowest-ranked team that has not had a bye yet, falling
// back to the lowest-ranked team when everyone has.
func pickBye(ranked []rankedTeam, hist *historyIndex) int {
	for i := len(ranked) - 1; i >= 0; i-- {
		if !hist.hadBye(ranked[i].id()) {
			return i
		}
	}
	return len(ranked) - 1
}

// assignSides gives proposition to the team that has argued it less; equal
// balances alternate with round parity, higher-ranked first on odd rounds.
func assignSides(upper, lower rankedTeam, hist *historyIndex, round int) (prop, opp rankedTeam) {
	bu, bl := hist.sideBalance[upper.id()], hist.sideBalance[lower.id()]
	switch {
	case bu < bl:
		return upper, lower
	case bl < bu:
		return lower, upper
	case round%2 == 0:
		return lower, upper
	default:
		return upper, lower
	}
}

func sameInstitution(a, b *models.Team) bool {
	return a.InstitutionID != nil && b.InstitutionID != nil && *a.InstitutionID == *b.InstitutionID
}

// pairer holds the working order; pair i is order[2i] vs order[2i+1].
type pairer struct {
	order       []rankedTeam
	hist        *historyIndex
	maxAttempts int
}

func (p *pairer) pairs() int {
	return len(p.order) / 2
}

func (p *pairer) cost(i int) int {
	a, b := p.order[2*i], p.order[2*i+1]
	c := 0
	if p.hist.haveMet(a.id(), b.id()) {
		c += rematchCost
	}
	if sameInstitution(a.team, b.team) {
		c += institutionCost
	}
	return c
}

func (p *pairer) resolveConflicts() {
	for i := 0; i < p.pairs(); i++ {
		attempts := 0
		for p.cost(i) > 0 && attempts < p.maxAttempts {
			swapped := false
			for _, j := range p.candidatePairs(i) {
				for _, pos := range [2]int{2 * j, 2*j + 1} {
					if attempts >= p.maxAttempts {
						break
					}
					attempts++
					if p.trySwap(2*i+1, pos) {
						swapped = true
						break
					}
				}
				if swapped || attempts >= p.maxAttempts {
					break
				}
			}
			if !swapped {
				break
			}
		}
	}
}

// candidatePairs lists pairs below i first (nearest first), then those above.
func (p *pairer) candidatePairs(i int) []int {
	out := make([]int, 0, p.pairs()-1)
	for j := i + 1; j < p.pairs(); j++ {
		out = append(out, j)
	}
	for j := i - 1; j >= 0; j-- {
		out = append(out, j)
	}
	return out
}

// trySwap exchanges two positions and keeps the swap only when it lowers the
// cost of x's pairing and the combined cost of both pairings.
func (p *pairer) trySwap(x, y int) bool {
	px, py := x/2, y/2
	if px == py {
		return false
	}
	if abs(p.order[x].level-p.order[y].level) > 1 {
		return false
	}
	beforeX := p.cost(px)
	before := beforeX + p.cost(py)

	p.order[x], p.order[y] = p.order[y], p.order[x]
	afterX := p.cost(px)
	if afterX < beforeX && afterX+p.cost(py) < before {
		return true
	}
	p.order[x], p.order[y] = p.order[y], p.order[x]
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
