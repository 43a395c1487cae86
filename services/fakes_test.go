package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"github.com/Dosada05/debate-tab/storage"
	"github.com/stretchr/testify/require"
)

func ip(v int) *int { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockDB returns a sqlmock handle; the fakes below ignore the executor, so
// only BEGIN/COMMIT/ROLLBACK need expectations.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

// memStore backs every fake repository. Writes are not rolled back.
type memStore struct {
	mu             sync.Mutex
	seq            int
	tournaments    map[int]*models.Tournament
	institutions   map[int]*models.Institution
	teams          map[int]*models.Team
	participations map[int]*models.Participation
	rounds         map[int]*models.Round
	pairings       map[int]*models.Pairing
	panels         []models.PairingJudge
	ballots        []models.Ballot
	results        map[int]*models.Result
	standings      []*models.TournamentStanding
	users          map[int]*models.User
}

func newMemStore() *memStore {
	return &memStore{
		tournaments:    map[int]*models.Tournament{},
		institutions:   map[int]*models.Institution{},
		teams:          map[int]*models.Team{},
		participations: map[int]*models.Participation{},
		rounds:         map[int]*models.Round{},
		pairings:       map[int]*models.Pairing{},
		results:        map[int]*models.Result{},
		users:          map[int]*models.User{},
	}
}

func (m *memStore) nextID() int {
	m.seq++
	return m.seq
}

// Fixtures

func (m *memStore) addTournament(name string) *models.Tournament {
	t := &models.Tournament{ID: m.nextID(), Name: name, Status: models.StatusActive}
	m.tournaments[t.ID] = t
	return t
}

func (m *memStore) addInstitution(tournamentID int, name string) int {
	inst := &models.Institution{ID: m.nextID(), TournamentID: tournamentID, Name: name}
	m.institutions[inst.ID] = inst
	return inst.ID
}

func (m *memStore) addTeam(tournamentID int, name string, seed int, institutionID *int) *models.Team {
	team := &models.Team{ID: m.nextID(), TournamentID: tournamentID, Name: name, Seed: seed, InstitutionID: institutionID}
	m.teams[team.ID] = team
	return team
}

func (m *memStore) addJudge(tournamentID, rating int, institutionID *int) *models.Participation {
	j := &models.Participation{
		ID: m.nextID(), TournamentID: tournamentID, Name: "Judge", Role: models.RoleJudge,
		Rating: rating, InstitutionID: institutionID,
	}
	m.participations[j.ID] = j
	return j
}

func (m *memStore) addRound(tournamentID, number int, status models.DrawStatus) *models.Round {
	r := &models.Round{ID: m.nextID(), TournamentID: tournamentID, Number: number, Status: status}
	m.rounds[r.ID] = r
	return r
}

func (m *memStore) addPairing(roundID int, prop, opp *int, roomOrder int) *models.Pairing {
	p := &models.Pairing{ID: m.nextID(), RoundID: roundID, PropTeamID: prop, OppTeamID: opp, RoomOrder: roomOrder}
	m.pairings[p.ID] = p
	return p
}

func (m *memStore) seat(pairingID, judgeID int, chair bool) {
	m.panels = append(m.panels, models.PairingJudge{PairingID: pairingID, JudgeID: judgeID, IsChair: chair})
}

func (m *memStore) setResult(pairingID int, winner *int) {
	m.results[pairingID] = &models.Result{ID: m.nextID(), PairingID: pairingID, WinnerTeamID: winner}
}

// loadPairing returns a copy with teams, result and round number attached.
func (m *memStore) loadPairing(p *models.Pairing) *models.Pairing {
	cp := *p
	if r, ok := m.rounds[p.RoundID]; ok {
		cp.RoundNumber = r.Number
	}
	if p.PropTeamID != nil {
		t := *m.teams[*p.PropTeamID]
		cp.PropTeam = &t
	}
	if p.OppTeamID != nil {
		t := *m.teams[*p.OppTeamID]
		cp.OppTeam = &t
	}
	if res, ok := m.results[p.ID]; ok {
		r := *res
		cp.Result = &r
	}
	return &cp
}

func (m *memStore) loadPanel(filter func(models.PairingJudge) bool) []models.PairingJudge {
	out := make([]models.PairingJudge, 0)
	for _, pj := range m.panels {
		if filter(pj) {
			j := *m.participations[pj.JudgeID]
			pj.Judge = &j
			out = append(out, pj)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].IsChair != out[b].IsChair {
			return out[a].IsChair
		}
		if out[a].Judge.Rating != out[b].Judge.Rating {
			return out[a].Judge.Rating > out[b].Judge.Rating
		}
		return out[a].JudgeID < out[b].JudgeID
	})
	return out
}

// Tournament

type fakeTournamentRepo struct{ *memStore }

func (f fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.nextID()
	t.CreatedAt = time.Now()
	cp := *t
	f.tournaments[t.ID] = &cp
	return nil
}

func (f fakeTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f fakeTournamentRepo) SetMaxSwapAttempts(_ context.Context, id int, attempts *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.MaxSwapAttempts = attempts
	return nil
}

// Teams

type fakeTeamRepo struct{ *memStore }

func (f fakeTeamRepo) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if t.TournamentID == team.TournamentID && t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	if team.InstitutionID != nil {
		if _, ok := f.institutions[*team.InstitutionID]; !ok {
			return repositories.ErrTeamInstitutionInvalid
		}
	}
	team.ID = f.nextID()
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f fakeTeamRepo) CreateInstitution(_ context.Context, _ repositories.SQLExecutor, inst *models.Institution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.institutions {
		if i.TournamentID == inst.TournamentID && i.Name == inst.Name {
			return repositories.ErrInstitutionNameConflict
		}
	}
	inst.ID = f.nextID()
	cp := *inst
	f.institutions[inst.ID] = &cp
	return nil
}

func (f fakeTeamRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTeamRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Team, 0)
	for _, t := range f.teams {
		if t.TournamentID != tournamentID {
			continue
		}
		cp := *t
		if t.InstitutionID != nil {
			inst := *f.institutions[*t.InstitutionID]
			cp.Institution = &inst
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Seed != out[b].Seed {
			return out[a].Seed < out[b].Seed
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

// Participations

type fakeParticipationRepo struct{ *memStore }

func (f fakeParticipationRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !p.Role.IsValid() {
		return repositories.ErrParticipationInvalid
	}
	p.ID = f.nextID()
	cp := *p
	f.participations[p.ID] = &cp
	return nil
}

func (f fakeParticipationRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participations[id]
	if !ok {
		return nil, repositories.ErrParticipationNotFound
	}
	cp := *p
	return &cp, nil
}

func (f fakeParticipationRepo) ListJudges(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Participation, error) {
	all, _ := f.ListByTournament(ctx, exec, tournamentID)
	_, judges := models.Roster(all)
	sort.SliceStable(judges, func(a, b int) bool {
		if judges[a].Rating != judges[b].Rating {
			return judges[a].Rating > judges[b].Rating
		}
		return judges[a].ID < judges[b].ID
	})
	return judges, nil
}

func (f fakeParticipationRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Participation, 0)
	for _, p := range f.participations {
		if p.TournamentID == tournamentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

// Rounds

type fakeRoundRepo struct{ *memStore }

func (f fakeRoundRepo) Create(_ context.Context, round *models.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rounds {
		if r.TournamentID == round.TournamentID && r.Number == round.Number {
			return repositories.ErrRoundNumberConflict
		}
	}
	round.ID = f.nextID()
	cp := *round
	f.rounds[round.ID] = &cp
	return nil
}

func (f fakeRoundRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	cp := *r
	return &cp, nil
}

func (f fakeRoundRepo) GetByNumber(_ context.Context, tournamentID, number int) (*models.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rounds {
		if r.TournamentID == tournamentID && r.Number == number {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (f fakeRoundRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Round, error) {
	return f.GetByID(ctx, exec, id)
}

func (f fakeRoundRepo) SetStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.DrawStatus, publishedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	r.Status = status
	r.PublishedAt = publishedAt
	return nil
}

func (f fakeRoundRepo) UpdateMotion(_ context.Context, _ repositories.SQLExecutor, id int, motion string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	r.Motion = motion
	return nil
}

// Pairings

type fakePairingRepo struct{ *memStore }

func (f fakePairingRepo) BatchCreate(_ context.Context, _ repositories.SQLExecutor, pairings []*models.Pairing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range pairings {
		p.ID = f.nextID()
		p.CreatedAt = time.Now()
		cp := *p
		f.pairings[p.ID] = &cp
	}
	return nil
}

func (f fakePairingRepo) DeleteByRound(_ context.Context, _ repositories.SQLExecutor, roundID int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, p := range f.pairings {
		if p.RoundID == roundID {
			delete(f.pairings, id)
			n++
		}
	}
	return n, nil
}

func (f fakePairingRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Pairing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pairings[id]
	if !ok {
		return nil, repositories.ErrPairingNotFound
	}
	return f.loadPairing(p), nil
}

func (f fakePairingRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Pairing, error) {
	return f.GetByID(ctx, exec, id)
}

func (f fakePairingRepo) ListByRound(_ context.Context, _ repositories.SQLExecutor, roundID int) ([]*models.Pairing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(p *models.Pairing) bool { return p.RoundID == roundID }), nil
}

func (f fakePairingRepo) ListHistory(_ context.Context, _ repositories.SQLExecutor, tournamentID, beforeRound int) ([]*models.Pairing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(func(p *models.Pairing) bool {
		r := f.rounds[p.RoundID]
		return r.TournamentID == tournamentID && (beforeRound <= 0 || r.Number < beforeRound)
	}), nil
}

func (f fakePairingRepo) list(keep func(*models.Pairing) bool) []*models.Pairing {
	out := make([]*models.Pairing, 0)
	for _, p := range f.pairings {
		if keep(p) {
			out = append(out, f.loadPairing(p))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].RoundNumber != out[b].RoundNumber {
			return out[a].RoundNumber < out[b].RoundNumber
		}
		return out[a].RoomOrder < out[b].RoomOrder
	})
	return out
}

// Panels

type fakePairingJudgeRepo struct{ *memStore }

func (f fakePairingJudgeRepo) Add(_ context.Context, _ repositories.SQLExecutor, pj models.PairingJudge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.panels {
		if existing.PairingID == pj.PairingID && existing.JudgeID == pj.JudgeID {
			return repositories.ErrJudgeAlreadySeated
		}
		if pj.IsChair && existing.PairingID == pj.PairingID && existing.IsChair {
			return repositories.ErrPanelHasChair
		}
	}
	if _, ok := f.participations[pj.JudgeID]; !ok {
		return repositories.ErrParticipationNotFound
	}
	pj.Judge = nil
	f.panels = append(f.panels, pj)
	return nil
}

func (f fakePairingJudgeRepo) Remove(_ context.Context, _ repositories.SQLExecutor, pairingID, judgeID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, pj := range f.panels {
		if pj.PairingID == pairingID && pj.JudgeID == judgeID {
			f.panels = append(f.panels[:i], f.panels[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPairingJudgeNotFound
}

func (f fakePairingJudgeRepo) SetChair(_ context.Context, _ repositories.SQLExecutor, pairingID, judgeID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.panels {
		pj := &f.panels[i]
		if pj.PairingID != pairingID {
			continue
		}
		pj.IsChair = pj.JudgeID == judgeID
		found = found || pj.IsChair
	}
	if !found {
		return repositories.ErrPairingJudgeNotFound
	}
	return nil
}

func (f fakePairingJudgeRepo) DeleteByRound(_ context.Context, _ repositories.SQLExecutor, roundID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.panels[:0]
	for _, pj := range f.panels {
		if p, ok := f.pairings[pj.PairingID]; ok && p.RoundID == roundID {
			continue
		}
		kept = append(kept, pj)
	}
	f.panels = kept
	return nil
}

func (f fakePairingJudgeRepo) ListByRound(_ context.Context, _ repositories.SQLExecutor, roundID int) ([]models.PairingJudge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadPanel(func(pj models.PairingJudge) bool {
		p, ok := f.pairings[pj.PairingID]
		return ok && p.RoundID == roundID
	}), nil
}

func (f fakePairingJudgeRepo) ListByPairing(_ context.Context, _ repositories.SQLExecutor, pairingID int) ([]models.PairingJudge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadPanel(func(pj models.PairingJudge) bool { return pj.PairingID == pairingID }), nil
}

// Ballots and results

type fakeBallotRepo struct{ *memStore }

func (f fakeBallotRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, ballot *models.Ballot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range f.ballots {
		if b.PairingID == ballot.PairingID && b.JudgeID == ballot.JudgeID {
			ballot.ID = b.ID
			f.ballots[i] = *ballot
			return nil
		}
	}
	ballot.ID = f.nextID()
	f.ballots = append(f.ballots, *ballot)
	return nil
}

func (f fakeBallotRepo) ListByPairing(_ context.Context, _ repositories.SQLExecutor, pairingID int) ([]models.Ballot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Ballot, 0)
	for _, b := range f.ballots {
		if b.PairingID == pairingID {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeResultRepo struct{ *memStore }

func (f fakeResultRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, res *models.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.results[res.PairingID]; ok {
		res.ID = prev.ID
	} else {
		res.ID = f.nextID()
	}
	res.UpdatedAt = time.Now()
	cp := *res
	f.results[res.PairingID] = &cp
	return nil
}

func (f fakeResultRepo) GetByPairing(_ context.Context, _ repositories.SQLExecutor, pairingID int) (*models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[pairingID]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	cp := *res
	return &cp, nil
}

func (f fakeResultRepo) SetLocked(_ context.Context, _ repositories.SQLExecutor, pairingID int, locked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.results[pairingID]
	if !ok {
		return repositories.ErrResultNotFound
	}
	res.Locked = locked
	return nil
}

// Standings

type fakeStandingRepo struct{ *memStore }

func (f fakeStandingRepo) BatchCreate(_ context.Context, _ repositories.SQLExecutor, standings []*models.TournamentStanding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range standings {
		s.ID = f.nextID()
		cp := *s
		f.standings = append(f.standings, &cp)
	}
	return nil
}

func (f fakeStandingRepo) DeleteByTournamentID(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.standings[:0]
	for _, s := range f.standings {
		if s.TournamentID != tournamentID {
			kept = append(kept, s)
		}
	}
	f.standings = kept
	return nil
}

func (f fakeStandingRepo) GetByTournamentAndTeam(_ context.Context, _ repositories.SQLExecutor, tournamentID, teamID int) (*models.TournamentStanding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.standings {
		if s.TournamentID == tournamentID && s.TeamID == teamID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repositories.ErrTournamentStandingNotFound
}

func (f fakeStandingRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.TournamentStanding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.TournamentStanding, 0)
	for _, s := range f.standings {
		if s.TournamentID == tournamentID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Rank < out[b].Rank })
	return out, nil
}

// Users

type fakeUserRepo struct{ *memStore }

func (f fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = f.nextID()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// Notifier and snapshots

type sentEvent struct {
	tournamentID int
	eventType    string
	payload      interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) NotifyTournament(tournamentID int, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{tournamentID, eventType, payload})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.eventType
	}
	return out
}

type recordingSnapshots struct {
	draws     []int
	standings []int
	withdrawn []int
	err       error
}

func (s *recordingSnapshots) PublishDraw(_ context.Context, _ int, roundNumber int, _ interface{}) (*storage.UploadResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.draws = append(s.draws, roundNumber)
	return &storage.UploadResult{Key: "draw"}, nil
}

func (s *recordingSnapshots) PublishStandings(_ context.Context, tournamentID int, _ interface{}) (*storage.UploadResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.standings = append(s.standings, tournamentID)
	return &storage.UploadResult{Key: "standings"}, nil
}

func (s *recordingSnapshots) WithdrawDraw(_ context.Context, _ int, roundNumber int) error {
	s.withdrawn = append(s.withdrawn, roundNumber)
	return s.err
}

// tab wires services over one memStore for a single tournament.
type tab struct {
	store      *memStore
	db         *sql.DB
	mock       sqlmock.Sqlmock
	notifier   *recordingNotifier
	snapshots  *recordingSnapshots
	tournament *models.Tournament
}

func newTab(t *testing.T) *tab {
	t.Helper()
	db, mock := newMockDB(t)
	store := newMemStore()
	return &tab{
		store:      store,
		db:         db,
		mock:       mock,
		notifier:   &recordingNotifier{},
		snapshots:  &recordingSnapshots{},
		tournament: store.addTournament("Open"),
	}
}

// teams adds n teams with seeds 1..n, each from its own institution.
func (x *tab) teams(n int) []*models.Team {
	out := make([]*models.Team, n)
	for i := range out {
		inst := x.store.addInstitution(x.tournament.ID, fmt.Sprintf("Institution %d", i+1))
		out[i] = x.store.addTeam(x.tournament.ID, fmt.Sprintf("Team %d", i+1), i+1, ip(inst))
	}
	return out
}

func (x *tab) expectTx(commit bool) {
	x.mock.ExpectBegin()
	if commit {
		x.mock.ExpectCommit()
	} else {
		x.mock.ExpectRollback()
	}
}

func (x *tab) drawService() DrawService {
	s := x.store
	return NewDrawService(x.db, brackets.NewPowerPairingGenerator(),
		fakeTournamentRepo{s}, fakeRoundRepo{s}, fakeTeamRepo{s}, fakePairingRepo{s}, fakePairingJudgeRepo{s},
		x.notifier, 4, discardLogger())
}

func (x *tab) allocationService() AllocationService {
	s := x.store
	return NewAllocationService(x.db, brackets.NewAllocator(),
		fakeRoundRepo{s}, fakePairingRepo{s}, fakePairingJudgeRepo{s}, fakeParticipationRepo{s},
		x.notifier, discardLogger())
}

func (x *tab) roundService() RoundService {
	s := x.store
	return NewRoundService(x.db, fakeTournamentRepo{s}, fakeRoundRepo{s}, fakePairingRepo{s}, fakePairingJudgeRepo{s},
		x.notifier, x.snapshots, discardLogger())
}

func (x *tab) resultService() ResultService {
	s := x.store
	return NewResultService(x.db, fakeRoundRepo{s}, fakePairingRepo{s}, fakePairingJudgeRepo{s},
		fakeBallotRepo{s}, fakeResultRepo{s}, x.notifier, discardLogger())
}

func (x *tab) standingsService() StandingsService {
	s := x.store
	return NewStandingsService(x.db, fakeTournamentRepo{s}, fakeTeamRepo{s}, fakePairingRepo{s}, fakeStandingRepo{s},
		x.notifier, x.snapshots, discardLogger())
}

func (x *tab) tournamentService() TournamentService {
	s := x.store
	return NewTournamentService(x.db, fakeTournamentRepo{s}, fakeTeamRepo{s}, fakeParticipationRepo{s}, discardLogger())
}
