package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrTournamentStandingNotFound = errors.New("tournament standing not found")
	ErrStandingTeamInvalid        = errors.New("standing team conflict or invalid")
)

type TournamentStandingRepository interface {
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.TournamentStanding) error
	DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error
	GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.TournamentStanding, error)
	// ListByTournament returns cached rows in rank order with team names.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentStanding, error)
}

type postgresTournamentStandingRepository struct {
	db *sql.DB
}

func NewPostgresTournamentStandingRepository(db *sql.DB) TournamentStandingRepository {
	return &postgresTournamentStandingRepository{db: db}
}

func (r *postgresTournamentStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.TournamentStanding) error {
	if len(standings) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_standings
		    (tournament_id, team_id, wins, losses, prop_count, opp_count, opponent_strength, rank, tied, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	for _, s := range standings {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		err := executor.QueryRowContext(ctx, query,
			s.TournamentID, s.TeamID, s.Wins, s.Losses, s.PropCount, s.OppCount,
			s.OpponentStrength, s.Rank, s.Tied, s.UpdatedAt,
		).Scan(&s.ID)
		if err != nil {
			if pqErr, ok := pqError(err); ok {
				switch pqErr.Code {
				case pqUniqueViolation, pqForeignKeyViolation:
					return fmt.Errorf("%w: team %d", ErrStandingTeamInvalid, s.TeamID)
				}
			}
			return fmt.Errorf("BatchCreate failed for team %d: %w", s.TeamID, err)
		}
	}
	return nil
}

func (r *postgresTournamentStandingRepository) DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tournament_standings WHERE tournament_id = $1`, tournamentID)
	return err
}

const standingSelect = `
	SELECT ts.id, ts.tournament_id, ts.team_id, t.name, ts.wins, ts.losses, ts.prop_count, ts.opp_count,
	       ts.opponent_strength, ts.rank, ts.tied, ts.updated_at
	FROM tournament_standings ts
	JOIN teams t ON t.id = ts.team_id`

func scanStanding(s rowScanner) (*models.TournamentStanding, error) {
	var st models.TournamentStanding
	err := s.Scan(
		&st.ID, &st.TournamentID, &st.TeamID, &st.TeamName, &st.Wins, &st.Losses, &st.PropCount, &st.OppCount,
		&st.OpponentStrength, &st.Rank, &st.Tied, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentStandingNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *postgresTournamentStandingRepository) GetByTournamentAndTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.TournamentStanding, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx,
		standingSelect+` WHERE ts.tournament_id = $1 AND ts.team_id = $2`, tournamentID, teamID)
	return scanStanding(row)
}

func (r *postgresTournamentStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentStanding, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx,
		standingSelect+` WHERE ts.tournament_id = $1 ORDER BY ts.rank ASC, ts.team_id ASC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.TournamentStanding, 0)
	for rows.Next() {
		s, errScan := scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
