package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/debate-tab/models"
)

var ErrResultNotFound = errors.New("result not found")

type ResultRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, result *models.Result) error
	GetByPairing(ctx context.Context, exec SQLExecutor, pairingID int) (*models.Result, error)
	SetLocked(ctx context.Context, exec SQLExecutor, pairingID int, locked bool) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresResultRepository) Upsert(ctx context.Context, exec SQLExecutor, res *models.Result) error {
	query := `
		INSERT INTO results
		    (pairing_id, winner_team_id, prop_votes, opp_votes, prop_avg_score, opp_avg_score, manual, locked, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT ON CONSTRAINT results_pairing_id_key DO UPDATE SET
			winner_team_id = EXCLUDED.winner_team_id,
			prop_votes = EXCLUDED.prop_votes,
			opp_votes = EXCLUDED.opp_votes,
			prop_avg_score = EXCLUDED.prop_avg_score,
			opp_avg_score = EXCLUDED.opp_avg_score,
			manual = EXCLUDED.manual,
			locked = EXCLUDED.locked,
			updated_at = NOW()
		RETURNING id, updated_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		res.PairingID, res.WinnerTeamID, res.PropVotes, res.OppVotes,
		res.PropAvgScore, res.OppAvgScore, res.Manual, res.Locked,
	).Scan(&res.ID, &res.UpdatedAt)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrPairingNotFound
		}
		return err
	}
	return nil
}

func (r *postgresResultRepository) GetByPairing(ctx context.Context, exec SQLExecutor, pairingID int) (*models.Result, error) {
	var (
		res    models.Result
		winner sql.NullInt64
	)
	err := r.getExecutor(exec).QueryRowContext(ctx, `
		SELECT id, pairing_id, winner_team_id, prop_votes, opp_votes, prop_avg_score, opp_avg_score,
		       manual, locked, updated_at
		FROM results
		WHERE pairing_id = $1`, pairingID).Scan(
		&res.ID, &res.PairingID, &winner, &res.PropVotes, &res.OppVotes, &res.PropAvgScore, &res.OppAvgScore,
		&res.Manual, &res.Locked, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	res.WinnerTeamID = nullInt(winner)
	return &res, nil
}

func (r *postgresResultRepository) SetLocked(ctx context.Context, exec SQLExecutor, pairingID int, locked bool) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE results SET locked = $1, updated_at = NOW() WHERE pairing_id = $2`, locked, pairingID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrResultNotFound)
}
