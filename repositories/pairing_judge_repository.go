package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrPairingJudgeNotFound = errors.New("judge is not on this pairing")
	ErrJudgeAlreadySeated   = errors.New("judge already seated on this pairing")
	ErrPanelHasChair        = errors.New("pairing already has a chair")
)

type PairingJudgeRepository interface {
	Add(ctx context.Context, exec SQLExecutor, pj models.PairingJudge) error
	Remove(ctx context.Context, exec SQLExecutor, pairingID, judgeID int) error
	// SetChair makes judgeID the only chair of pairingID.
	SetChair(ctx context.Context, exec SQLExecutor, pairingID, judgeID int) error
	DeleteByRound(ctx context.Context, exec SQLExecutor, roundID int) error
	ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]models.PairingJudge, error)
	ListByPairing(ctx context.Context, exec SQLExecutor, pairingID int) ([]models.PairingJudge, error)
}

type postgresPairingJudgeRepository struct {
	db *sql.DB
}

func NewPostgresPairingJudgeRepository(db *sql.DB) PairingJudgeRepository {
	return &postgresPairingJudgeRepository{db: db}
}

func (r *postgresPairingJudgeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPairingJudgeRepository) Add(ctx context.Context, exec SQLExecutor, pj models.PairingJudge) error {
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`INSERT INTO pairing_judges (pairing_id, judge_id, is_chair) VALUES ($1, $2, $3)`,
		pj.PairingID, pj.JudgeID, pj.IsChair)
	if err != nil {
		if pqErr, ok := pqError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				if pqErr.Constraint == "pairing_judges_one_chair" {
					return ErrPanelHasChair
				}
				return ErrJudgeAlreadySeated
			case pqForeignKeyViolation:
				if pqErr.Constraint == "pairing_judges_judge_id_fkey" {
					return ErrParticipationNotFound
				}
				return ErrPairingNotFound
			}
		}
		return fmt.Errorf("failed to seat judge %d on pairing %d: %w", pj.JudgeID, pj.PairingID, err)
	}
	return nil
}

func (r *postgresPairingJudgeRepository) Remove(ctx context.Context, exec SQLExecutor, pairingID, judgeID int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM pairing_judges WHERE pairing_id = $1 AND judge_id = $2`, pairingID, judgeID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPairingJudgeNotFound)
}

func (r *postgresPairingJudgeRepository) SetChair(ctx context.Context, exec SQLExecutor, pairingID, judgeID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`UPDATE pairing_judges SET is_chair = FALSE WHERE pairing_id = $1 AND judge_id <> $2 AND is_chair`,
		pairingID, judgeID); err != nil {
		return err
	}
	result, err := executor.ExecContext(ctx,
		`UPDATE pairing_judges SET is_chair = TRUE WHERE pairing_id = $1 AND judge_id = $2`, pairingID, judgeID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPairingJudgeNotFound)
}

func (r *postgresPairingJudgeRepository) DeleteByRound(ctx context.Context, exec SQLExecutor, roundID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `
		DELETE FROM pairing_judges pj
		USING pairings p
		WHERE pj.pairing_id = p.id AND p.round_id = $1`, roundID)
	return err
}

const pairingJudgeSelect = `
	SELECT pj.pairing_id, pj.judge_id, pj.is_chair,
	       j.tournament_id, j.name, j.institution_id, j.rating, j.independent
	FROM pairing_judges pj
	JOIN participations j ON j.id = pj.judge_id`

func (r *postgresPairingJudgeRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]models.PairingJudge, error) {
	return r.list(ctx, exec, pairingJudgeSelect+`
		JOIN pairings p ON p.id = pj.pairing_id
		WHERE p.round_id = $1
		ORDER BY pj.pairing_id, pj.is_chair DESC, j.rating DESC, pj.judge_id`, roundID)
}

func (r *postgresPairingJudgeRepository) ListByPairing(ctx context.Context, exec SQLExecutor, pairingID int) ([]models.PairingJudge, error) {
	return r.list(ctx, exec, pairingJudgeSelect+`
		WHERE pj.pairing_id = $1
		ORDER BY pj.is_chair DESC, j.rating DESC, pj.judge_id`, pairingID)
}

func (r *postgresPairingJudgeRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.PairingJudge, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PairingJudge, 0)
	for rows.Next() {
		var (
			pj     models.PairingJudge
			judge  models.Participation
			instID sql.NullInt64
		)
		if err := rows.Scan(&pj.PairingID, &pj.JudgeID, &pj.IsChair,
			&judge.TournamentID, &judge.Name, &instID, &judge.Rating, &judge.Independent); err != nil {
			return nil, err
		}
		judge.ID = pj.JudgeID
		judge.Role = models.RoleJudge
		judge.InstitutionID = nullInt(instID)
		pj.Judge = &judge
		out = append(out, pj)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
