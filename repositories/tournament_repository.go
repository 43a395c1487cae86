package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentInvalid  = errors.New("tournament violates a check constraint")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	SetMaxSwapAttempts(ctx context.Context, id int, attempts *int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if t.Status == "" {
		t.Status = models.StatusRegistration
	}
	query := `
		INSERT INTO tournaments (name, status, max_swap_attempts)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, t.Name, t.Status, t.MaxSwapAttempts).Scan(&t.ID, &t.CreatedAt)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, status, max_swap_attempts, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	var maxSwaps sql.NullInt64
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Status, &maxSwaps, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	t.MaxSwapAttempts = nullInt(maxSwaps)
	return t, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetMaxSwapAttempts(ctx context.Context, id int, attempts *int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET max_swap_attempts = $1 WHERE id = $2`, attempts, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := pqError(err); ok && pqErr.Code == pqCheckViolation {
		return ErrTournamentInvalid
	}
	return err
}
