package brackets

// PairingRecord is one prior pairing as seen by the engine.
type PairingRecord struct {
	RoundNumber  int  `json:"round_number"`
	PropTeamID   *int `json:"prop_team_id"`
	OppTeamID    *int `json:"opp_team_id"`
	WinnerTeamID *int `json:"winner_team_id"` // nil until the result is finalized
}

func (r PairingRecord) IsBye() bool {
	return r.PropTeamID == nil || r.OppTeamID == nil
}

// IsFinalized reports whether the record carries a valid winning side.
func (r PairingRecord) IsFinalized() bool {
	if r.IsBye() || r.WinnerTeamID == nil {
		return false
	}
	return *r.WinnerTeamID == *r.PropTeamID || *r.WinnerTeamID == *r.OppTeamID
}

type teamPair [2]int

func pairKey(a, b int) teamPair {
	if a > b {
		a, b = b, a
	}
	return teamPair{a, b}
}

type historyIndex struct {
	met         map[teamPair]int
	sideBalance map[int]int // proposition minus opposition
	byes        map[int]int
}

func indexHistory(records []PairingRecord) *historyIndex {
	h := &historyIndex{
		met:         make(map[teamPair]int),
		sideBalance: make(map[int]int),
		byes:        make(map[int]int),
	}
	for _, r := range records {
		if r.IsBye() {
			if r.PropTeamID != nil {
				h.byes[*r.PropTeamID]++
			}
			if r.OppTeamID != nil {
				h.byes[*r.OppTeamID]++
			}
			continue
		}
		prop, opp := *r.PropTeamID, *r.OppTeamID
		h.met[pairKey(prop, opp)]++
		h.sideBalance[prop]++
		h.sideBalance[opp]--
	}
	return h
}

func (h *historyIndex) haveMet(a, b int) bool {
	return h.met[pairKey(a, b)] > 0
}

func (h *historyIndex) hadBye(teamID int) bool {
	return h.byes[teamID] > 0
}
