package brackets

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrNoJudges           = errors.New("no judges registered for the tournament")
	ErrNoPairings         = errors.New("round has no pairings to allocate judges to")
	ErrInsufficientJudges = errors.New("some pairing has no unconflicted judge")
	ErrAllocationInvalid  = errors.New("judge allocation violates a hard constraint")
)

// Room is a pairing as the allocator sees it.
type Room struct {
	PairingID         int  `json:"pairing_id"`
	Bracket           int  `json:"bracket"`
	PropInstitutionID *int `json:"prop_institution_id,omitempty"`
	OppInstitutionID  *int `json:"opp_institution_id,omitempty"`
	Bye               bool `json:"bye"`
}

// RoomFromPairing expects PropTeam and OppTeam to be loaded.
func RoomFromPairing(p *models.Pairing) Room {
	room := Room{PairingID: p.ID, Bracket: p.Bracket, Bye: p.IsBye()}
	if p.PropTeam != nil {
		room.PropInstitutionID = p.PropTeam.InstitutionID
	}
	if p.OppTeam != nil {
		room.OppInstitutionID = p.OppTeam.InstitutionID
	}
	return room
}

type Assignment struct {
	JudgeID int  `json:"judge_id"`
	Chair   bool `json:"chair"`
}

type Panel struct {
	PairingID int          `json:"pairing_id"`
	Judges    []Assignment `json:"judges"`
}

type Allocation struct {
	Panels      []Panel `json:"panels"`
	Unallocated []int   `json:"unallocated"`
	// Shared: судей меньше, чем комнат, один судья может сидеть в нескольких парах раунда.
	Shared bool `json:"shared"`
}

// Conflicted reports a hard conflict: a non-independent judge sharing an
// institution with either team.
func Conflicted(judge *models.Participation, room Room) bool {
	if judge.Independent || judge.InstitutionID == nil {
		return false
	}
	inst := *judge.InstitutionID
	return (room.PropInstitutionID != nil && *room.PropInstitutionID == inst) ||
		(room.OppInstitutionID != nil && *room.OppInstitutionID == inst)
}

type Allocator struct{}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate seats every judge at most once per round when it can. Rooms are
// served in bracket order (top brackets first) and judges in rating order.
// Chairs are placed first using augmenting paths so that a conflict-free chair
// is found whenever one exists; the rest are dealt round-robin so no room gets
// its k+1-th judge before every room that can take one has k. When the judges
// cannot chair every room once, they are shared across rooms instead.
func (a *Allocator) Allocate(rooms []Room, judges []*models.Participation) (*Allocation, error) {
	pool := make([]*models.Participation, 0, len(judges))
	for _, j := range judges {
		if j != nil && j.Role == models.RoleJudge {
			pool = append(pool, j)
		}
	}
	if len(pool) == 0 {
		return nil, ErrNoJudges
	}

	active := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		if !r.Bye {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoPairings
	}

	slices.SortStableFunc(active, func(x, y Room) int {
		return cmp.Compare(y.Bracket, x.Bracket)
	})
	slices.SortStableFunc(pool, func(x, y *models.Participation) int {
		if c := cmp.Compare(y.Rating, x.Rating); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})

	for _, r := range active {
		if !slices.ContainsFunc(pool, func(j *models.Participation) bool { return !Conflicted(j, r) }) {
			return nil, fmt.Errorf("%w: pairing %d", ErrInsufficientJudges, r.PairingID)
		}
	}

	m := newChairMatcher(active, pool)
	if missing := m.run(); len(missing) > 0 {
		return share(active, pool), nil
	}

	panels := make([]Panel, len(active))
	used := make([]bool, len(pool))
	for r, j := range m.roomJudge {
		panels[r] = Panel{
			PairingID: active[r].PairingID,
			Judges:    []Assignment{{JudgeID: pool[j].ID, Chair: true}},
		}
		used[j] = true
	}

	remaining := make([]int, 0, len(pool)-len(active))
	for j := range pool {
		if !used[j] {
			remaining = append(remaining, j)
		}
	}

	for level := 1; len(remaining) > 0; level++ {
		dealt := false
		for r := range active {
			if len(panels[r].Judges) > level || len(remaining) == 0 {
				continue
			}
			for k, j := range remaining {
				if Conflicted(pool[j], active[r]) {
					continue
				}
				panels[r].Judges = append(panels[r].Judges, Assignment{JudgeID: pool[j].ID})
				remaining = slices.Delete(remaining, k, k+1)
				dealt = true
				break
			}
		}
		if !dealt {
			break
		}
	}

	alloc := &Allocation{Panels: panels, Unallocated: make([]int, 0, len(remaining))}
	for _, j := range remaining {
		alloc.Unallocated = append(alloc.Unallocated, pool[j].ID)
	}
	return alloc, nil
}

// share deals max(1, J/P) judges to each room round-robin, skipping
// conflicted judges. The first judge dealt to a room chairs it.
func share(active []Room, pool []*models.Participation) *Allocation {
	perRoom := max(1, len(pool)/len(active))
	panels := make([]Panel, len(active))
	seated := make([]bool, len(pool))

	next := 0
	for r, room := range active {
		panels[r].PairingID = room.PairingID
		for step := 0; step < len(pool) && len(panels[r].Judges) < perRoom; step++ {
			j := next % len(pool)
			next++
			if Conflicted(pool[j], room) {
				continue
			}
			panels[r].Judges = append(panels[r].Judges, Assignment{JudgeID: pool[j].ID, Chair: len(panels[r].Judges) == 0})
			seated[j] = true
		}
	}

	alloc := &Allocation{Panels: panels, Unallocated: []int{}, Shared: true}
	for j, ok := range seated {
		if !ok {
			alloc.Unallocated = append(alloc.Unallocated, pool[j].ID)
		}
	}
	return alloc
}

type chairMatcher struct {
	rooms     []Room
	judges    []*models.Participation
	roomJudge []int
	judgeRoom []int
}

func newChairMatcher(rooms []Room, judges []*models.Participation) *chairMatcher {
	m := &chairMatcher{
		rooms:     rooms,
		judges:    judges,
		roomJudge: make([]int, len(rooms)),
		judgeRoom: make([]int, len(judges)),
	}
	for i := range m.roomJudge {
		m.roomJudge[i] = -1
	}
	for i := range m.judgeRoom {
		m.judgeRoom[i] = -1
	}
	return m
}

// run returns the pairing ids left without a chair.
func (m *chairMatcher) run() []int {
	var missing []int
	for r := range m.rooms {
		if m.takeFree(r) {
			continue
		}
		if !m.augment(r, make([]bool, len(m.judges))) {
			missing = append(missing, m.rooms[r].PairingID)
		}
	}
	return missing
}

// takeFree seats the first unmatched, unconflicted judge in rotation order.
func (m *chairMatcher) takeFree(r int) bool {
	for j, judge := range m.judges {
		if m.judgeRoom[j] == -1 && !Conflicted(judge, m.rooms[r]) {
			m.roomJudge[r], m.judgeRoom[j] = j, r
			return true
		}
	}
	return false
}

func (m *chairMatcher) augment(r int, visited []bool) bool {
	for j, judge := range m.judges {
		if visited[j] || Conflicted(judge, m.rooms[r]) {
			continue
		}
		visited[j] = true
		if m.judgeRoom[j] == -1 || m.augment(m.judgeRoom[j], visited) {
			m.roomJudge[r], m.judgeRoom[j] = j, r
			return true
		}
	}
	return false
}
