package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/debate-tab/models"
)

var ErrBallotInvalid = errors.New("ballot references an unknown pairing, judge or team")

type BallotRepository interface {
	// Upsert replaces the judge's earlier ballot for the same pairing.
	Upsert(ctx context.Context, exec SQLExecutor, ballot *models.Ballot) error
	ListByPairing(ctx context.Context, exec SQLExecutor, pairingID int) ([]models.Ballot, error)
}

type postgresBallotRepository struct {
	db *sql.DB
}

func NewPostgresBallotRepository(db *sql.DB) BallotRepository {
	return &postgresBallotRepository{db: db}
}

func (r *postgresBallotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresBallotRepository) Upsert(ctx context.Context, exec SQLExecutor, b *models.Ballot) error {
	query := `
		INSERT INTO ballots (pairing_id, judge_id, winner_team_id, prop_score, opp_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT ballots_pairing_judge_key DO UPDATE SET
			winner_team_id = EXCLUDED.winner_team_id,
			prop_score = EXCLUDED.prop_score,
			opp_score = EXCLUDED.opp_score,
			created_at = NOW()
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		b.PairingID, b.JudgeID, b.WinnerTeamID, b.PropScore, b.OppScore,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if pqErr, ok := pqError(err); ok {
			switch pqErr.Code {
			case pqForeignKeyViolation, pqCheckViolation:
				return ErrBallotInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresBallotRepository) ListByPairing(ctx context.Context, exec SQLExecutor, pairingID int) ([]models.Ballot, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, `
		SELECT id, pairing_id, judge_id, winner_team_id, prop_score, opp_score, created_at
		FROM ballots
		WHERE pairing_id = $1
		ORDER BY judge_id`, pairingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ballots := make([]models.Ballot, 0)
	for rows.Next() {
		var b models.Ballot
		if err := rows.Scan(&b.ID, &b.PairingID, &b.JudgeID, &b.WinnerTeamID, &b.PropScore, &b.OppScore, &b.CreatedAt); err != nil {
			return nil, err
		}
		ballots = append(ballots, b)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ballots, nil
}
