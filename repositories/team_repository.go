package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrTeamNotFound            = errors.New("team not found")
	ErrTeamNameConflict        = errors.New("team name already used in this tournament")
	ErrTeamInstitutionInvalid  = errors.New("invalid institution reference")
	ErrInstitutionNameConflict = errors.New("institution name already used in this tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	CreateInstitution(ctx context.Context, exec SQLExecutor, inst *models.Institution) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	// ListByTournament returns teams in seed order with institutions loaded.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (tournament_id, institution_id, name, seed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, team.TournamentID, team.InstitutionID, team.Name, team.Seed).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if pqErr, ok := pqError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				if pqErr.Constraint == "teams_tournament_name_key" {
					return ErrTeamNameConflict
				}
			case pqForeignKeyViolation:
				switch pqErr.Constraint {
				case "teams_institution_id_fkey":
					return ErrTeamInstitutionInvalid
				case "teams_tournament_id_fkey":
					return ErrTournamentNotFound
				}
			}
		}
		return err
	}
	return nil
}

func (r *postgresTeamRepository) CreateInstitution(ctx context.Context, exec SQLExecutor, inst *models.Institution) error {
	query := `
		INSERT INTO institutions (tournament_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, inst.TournamentID, inst.Name).Scan(&inst.ID, &inst.CreatedAt)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pqUniqueViolation {
			return ErrInstitutionNameConflict
		}
		return err
	}
	return nil
}

const teamSelect = `
	SELECT t.id, t.tournament_id, t.institution_id, t.name, t.seed, t.created_at,
	       i.id, i.name
	FROM teams t
	LEFT JOIN institutions i ON i.id = t.institution_id`

func scanTeam(s rowScanner) (*models.Team, error) {
	var (
		team     models.Team
		instFK   sql.NullInt64
		instID   sql.NullInt64
		instName sql.NullString
	)
	if err := s.Scan(&team.ID, &team.TournamentID, &instFK, &team.Name, &team.Seed, &team.CreatedAt,
		&instID, &instName); err != nil {
		return nil, err
	}
	team.InstitutionID = nullInt(instFK)
	if instID.Valid {
		team.Institution = &models.Institution{
			ID:           int(instID.Int64),
			TournamentID: team.TournamentID,
			Name:         instName.String,
		}
	}
	return &team, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx, teamSelect+` WHERE t.id = $1`, id)
	team, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx,
		teamSelect+` WHERE t.tournament_id = $1 ORDER BY t.seed ASC, t.id ASC`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team, errScan := scanTeam(rows)
		if errScan != nil {
			return nil, errScan
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}
