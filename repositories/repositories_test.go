package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/debate-tab/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestRoundRepository_GetForUpdateLocksRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoundRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM rounds WHERE id = \$1 FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tournament_id", "number", "status", "motion", "published_at", "created_at"}).
			AddRow(7, 1, 3, "draft", "THW ban zoos", nil, now))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	round, err := repo.GetForUpdate(context.Background(), tx, 7)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 3, round.Number)
	assert.Equal(t, models.DrawStatusDraft, round.Status)
	assert.Nil(t, round.PublishedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepository_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoundRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM rounds WHERE id = \$1`).WithArgs(9).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), nil, 9)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestRoundRepository_CreateConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresRoundRepository(db)

	mock.ExpectQuery(`INSERT INTO rounds`).
		WithArgs(1, 2, models.DrawStatusDraft, "").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "rounds_tournament_number_key"})

	err := repo.Create(context.Background(), &models.Round{TournamentID: 1, Number: 2})
	assert.ErrorIs(t, err, ErrRoundNumberConflict)
}

func TestPairingJudgeRepository_AddMapsConstraints(t *testing.T) {
	tests := []struct {
		name    string
		pqErr   *pq.Error
		wantErr error
	}{
		{"second chair", &pq.Error{Code: "23505", Constraint: "pairing_judges_one_chair"}, ErrPanelHasChair},
		{"same judge twice", &pq.Error{Code: "23505", Constraint: "pairing_judges_pkey"}, ErrJudgeAlreadySeated},
		{"unknown judge", &pq.Error{Code: "23503", Constraint: "pairing_judges_judge_id_fkey"}, ErrParticipationNotFound},
		{"unknown pairing", &pq.Error{Code: "23503", Constraint: "pairing_judges_pairing_id_fkey"}, ErrPairingNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			repo := NewPostgresPairingJudgeRepository(db)
			mock.ExpectExec(`INSERT INTO pairing_judges`).WithArgs(1, 2, true).WillReturnError(tt.pqErr)

			err := repo.Add(context.Background(), nil, models.PairingJudge{PairingID: 1, JudgeID: 2, IsChair: true})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPairingJudgeRepository_SetChair(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPairingJudgeRepository(db)

	mock.ExpectExec(`UPDATE pairing_judges SET is_chair = FALSE`).WithArgs(4, 11).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE pairing_judges SET is_chair = TRUE`).WithArgs(4, 11).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetChair(context.Background(), nil, 4, 11)
	assert.ErrorIs(t, err, ErrPairingJudgeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPairingRepository_ListByRoundLoadsTeamsAndResults(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPairingRepository(db)
	now := time.Now()

	cols := []string{
		"id", "round_id", "number", "tournament_id", "prop_team_id", "opp_team_id",
		"bracket", "room_order", "rematch", "same_institution", "created_at",
		"prop_name", "prop_inst", "opp_name", "opp_inst",
		"res_id", "winner", "prop_votes", "opp_votes", "prop_avg", "opp_avg", "manual", "locked", "updated_at",
	}
	mock.ExpectQuery(`FROM pairings p (.+) WHERE p.round_id = \$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, 5, 2, 1, 10, 11, 1, 0, false, false, now,
				"Alpha", 100, "Beta", nil,
				3, 10, 2, 1, 75.5, 74.0, false, true, now).
			AddRow(2, 5, 2, 1, 12, nil, 0, 1, false, false, now,
				"Gamma", nil, nil, nil,
				nil, nil, nil, nil, nil, nil, nil, nil, nil))

	pairings, err := repo.ListByRound(context.Background(), nil, 5)
	require.NoError(t, err)
	require.Len(t, pairings, 2)

	first := pairings[0]
	assert.Equal(t, 2, first.RoundNumber)
	require.NotNil(t, first.PropTeam)
	assert.Equal(t, "Alpha", first.PropTeam.Name)
	assert.Equal(t, 100, *first.PropTeam.InstitutionID)
	assert.Nil(t, first.OppTeam.InstitutionID)
	require.NotNil(t, first.Result)
	assert.Equal(t, 10, *first.Result.WinnerTeamID)
	assert.True(t, first.Result.Locked)

	bye := pairings[1]
	assert.True(t, bye.IsBye())
	assert.Nil(t, bye.OppTeam)
	assert.Nil(t, bye.Result)
}

func TestStandingRepository_BatchCreateMapsConflicts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresTournamentStandingRepository(db)

	mock.ExpectQuery(`INSERT INTO tournament_standings`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO tournament_standings`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "tournament_standings_team_id_fkey"})

	err := repo.BatchCreate(context.Background(), nil, []*models.TournamentStanding{
		{TournamentID: 1, TeamID: 1, Wins: 2, Rank: 1},
		{TournamentID: 1, TeamID: 99, Rank: 2},
	})
	assert.ErrorIs(t, err, ErrStandingTeamInvalid)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("admin@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at"}).
			AddRow(1, "admin@example.org", "hash", "admin", time.Now()))

	user, err := repo.GetByEmail(context.Background(), "admin@example.org")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).WithArgs("nobody@example.org").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.org")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
