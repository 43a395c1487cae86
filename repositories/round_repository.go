package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrRoundNotFound       = errors.New("round not found")
	ErrRoundNumberConflict = errors.New("round number already exists in this tournament")
)

type RoundRepository interface {
	Create(ctx context.Context, round *models.Round) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error)
	// GetForUpdate locks the round row until exec (a transaction) ends.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	SetStatus(ctx context.Context, exec SQLExecutor, id int, status models.DrawStatus, publishedAt *time.Time) error
	UpdateMotion(ctx context.Context, exec SQLExecutor, id int, motion string) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundRepository) Create(ctx context.Context, round *models.Round) error {
	if round.Status == "" {
		round.Status = models.DrawStatusDraft
	}
	query := `
		INSERT INTO rounds (tournament_id, number, status, motion)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, round.TournamentID, round.Number, round.Status, round.Motion).
		Scan(&round.ID, &round.CreatedAt)
	if err != nil {
		if pqErr, ok := pqError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				if pqErr.Constraint == "rounds_tournament_number_key" {
					return ErrRoundNumberConflict
				}
			case pqForeignKeyViolation:
				return ErrTournamentNotFound
			}
		}
		return err
	}
	return nil
}

const roundSelect = `
	SELECT id, tournament_id, number, status, motion, published_at, created_at
	FROM rounds`

func scanRound(s rowScanner) (*models.Round, error) {
	var (
		round       models.Round
		publishedAt sql.NullTime
	)
	err := s.Scan(&round.ID, &round.TournamentID, &round.Number, &round.Status, &round.Motion,
		&publishedAt, &round.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if publishedAt.Valid {
		round.PublishedAt = &publishedAt.Time
	}
	return &round, nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	return scanRound(r.getExecutor(exec).QueryRowContext(ctx, roundSelect+` WHERE id = $1`, id))
}

func (r *postgresRoundRepository) GetByNumber(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	return scanRound(r.db.QueryRowContext(ctx,
		roundSelect+` WHERE tournament_id = $1 AND number = $2`, tournamentID, number))
}

func (r *postgresRoundRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	return scanRound(r.getExecutor(exec).QueryRowContext(ctx, roundSelect+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *postgresRoundRepository) SetStatus(ctx context.Context, exec SQLExecutor, id int, status models.DrawStatus, publishedAt *time.Time) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE rounds SET status = $1, published_at = $2 WHERE id = $3`, status, publishedAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) UpdateMotion(ctx context.Context, exec SQLExecutor, id int, motion string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE rounds SET motion = $1 WHERE id = $2`, motion, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}
