package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrParticipationNotFound = errors.New("participation not found")
	ErrParticipationInvalid  = errors.New("participation references an unknown team, institution or user")
)

type ParticipationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participation) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participation, error)
	// ListJudges returns judges by rating (desc) then id.
	ListJudges(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participation, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participation, error)
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipationRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participation) error {
	if !p.Role.IsValid() {
		return ErrParticipationInvalid
	}
	query := `
		INSERT INTO participations
		    (tournament_id, user_id, name, role, team_id, institution_id, rating, independent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.TournamentID, p.UserID, p.Name, p.Role, p.TeamID, p.InstitutionID, p.Rating, p.Independent,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if pqErr, ok := pqError(err); ok {
			switch pqErr.Code {
			case pqForeignKeyViolation, pqCheckViolation:
				return ErrParticipationInvalid
			}
		}
		return err
	}
	return nil
}

const participationSelect = `
	SELECT id, tournament_id, user_id, name, role, team_id, institution_id, rating, independent, created_at
	FROM participations`

func scanParticipation(s rowScanner) (*models.Participation, error) {
	var (
		p      models.Participation
		userID sql.NullInt64
		teamID sql.NullInt64
		instID sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.TournamentID, &userID, &p.Name, &p.Role, &teamID, &instID,
		&p.Rating, &p.Independent, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.UserID = nullInt(userID)
	p.TeamID = nullInt(teamID)
	p.InstitutionID = nullInt(instID)
	return &p, nil
}

func (r *postgresParticipationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Participation, error) {
	p, err := scanParticipation(r.getExecutor(exec).QueryRowContext(ctx, participationSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipationNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipationRepository) ListJudges(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participation, error) {
	return r.list(ctx, exec,
		participationSelect+` WHERE tournament_id = $1 AND role = $2 ORDER BY rating DESC, id ASC`,
		tournamentID, models.RoleJudge)
}

func (r *postgresParticipationRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participation, error) {
	return r.list(ctx, exec, participationSelect+` WHERE tournament_id = $1 ORDER BY id ASC`, tournamentID)
}

func (r *postgresParticipationRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Participation, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*models.Participation, 0)
	for rows.Next() {
		p, errScan := scanParticipation(rows)
		if errScan != nil {
			return nil, errScan
		}
		out = append(out, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
