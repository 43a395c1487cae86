package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrPairingNotFound    = errors.New("pairing not found")
	ErrPairingTeamInvalid = errors.New("pairing references an unknown team")
)

type PairingRepository interface {
	// BatchCreate inserts pairings in order and fills their IDs.
	BatchCreate(ctx context.Context, exec SQLExecutor, pairings []*models.Pairing) error
	DeleteByRound(ctx context.Context, exec SQLExecutor, roundID int) (int64, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Pairing, error)
	// GetForUpdate locks the pairing row until exec (a transaction) ends.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Pairing, error)
	// ListByRound returns pairings in room order with teams and results loaded.
	ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]*models.Pairing, error)
	// ListHistory returns the pairings of every round numbered below beforeRound.
	// beforeRound <= 0 returns all rounds.
	ListHistory(ctx context.Context, exec SQLExecutor, tournamentID, beforeRound int) ([]*models.Pairing, error)
}

type postgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) PairingRepository {
	return &postgresPairingRepository{db: db}
}

func (r *postgresPairingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPairingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, pairings []*models.Pairing) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pairings (round_id, prop_team_id, opp_team_id, bracket, room_order, rematch, same_institution)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	for _, p := range pairings {
		err := executor.QueryRowContext(ctx, query,
			p.RoundID, p.PropTeamID, p.OppTeamID, p.Bracket, p.RoomOrder, p.Rematch, p.SameInstitution,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			if pqErr, ok := pqError(err); ok && pqErr.Code == pqForeignKeyViolation {
				if pqErr.Constraint == "pairings_round_id_fkey" {
					return ErrRoundNotFound
				}
				return ErrPairingTeamInvalid
			}
			return fmt.Errorf("BatchCreate failed for room %d: %w", p.RoomOrder, err)
		}
	}
	return nil
}

func (r *postgresPairingRepository) DeleteByRound(ctx context.Context, exec SQLExecutor, roundID int) (int64, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM pairings WHERE round_id = $1`, roundID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const pairingSelect = `
	SELECT p.id, p.round_id, r.number, r.tournament_id, p.prop_team_id, p.opp_team_id,
	       p.bracket, p.room_order, p.rematch, p.same_institution, p.created_at,
	       pt.name, pt.institution_id, ot.name, ot.institution_id,
	       res.id, res.winner_team_id, res.prop_votes, res.opp_votes,
	       res.prop_avg_score, res.opp_avg_score, res.manual, res.locked, res.updated_at
	FROM pairings p
	JOIN rounds r ON r.id = p.round_id
	LEFT JOIN teams pt ON pt.id = p.prop_team_id
	LEFT JOIN teams ot ON ot.id = p.opp_team_id
	LEFT JOIN results res ON res.pairing_id = p.id`

func scanPairing(s rowScanner) (*models.Pairing, error) {
	var (
		p                         models.Pairing
		tournamentID              int
		propID, oppID             sql.NullInt64
		propName, oppName         sql.NullString
		propInst, oppInst         sql.NullInt64
		resID, resWinner          sql.NullInt64
		resPropVotes, resOppVotes sql.NullInt64
		resPropAvg, resOppAvg     sql.NullFloat64
		resManual, resLocked      sql.NullBool
		resUpdatedAt              sql.NullTime
	)
	err := s.Scan(
		&p.ID, &p.RoundID, &p.RoundNumber, &tournamentID, &propID, &oppID,
		&p.Bracket, &p.RoomOrder, &p.Rematch, &p.SameInstitution, &p.CreatedAt,
		&propName, &propInst, &oppName, &oppInst,
		&resID, &resWinner, &resPropVotes, &resOppVotes,
		&resPropAvg, &resOppAvg, &resManual, &resLocked, &resUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPairingNotFound
		}
		return nil, err
	}

	p.PropTeamID = nullInt(propID)
	p.OppTeamID = nullInt(oppID)
	if p.PropTeamID != nil {
		p.PropTeam = &models.Team{ID: *p.PropTeamID, TournamentID: tournamentID, Name: propName.String, InstitutionID: nullInt(propInst)}
	}
	if p.OppTeamID != nil {
		p.OppTeam = &models.Team{ID: *p.OppTeamID, TournamentID: tournamentID, Name: oppName.String, InstitutionID: nullInt(oppInst)}
	}
	if resID.Valid {
		p.Result = &models.Result{
			ID:           int(resID.Int64),
			PairingID:    p.ID,
			WinnerTeamID: nullInt(resWinner),
			PropVotes:    int(resPropVotes.Int64),
			OppVotes:     int(resOppVotes.Int64),
			PropAvgScore: resPropAvg.Float64,
			OppAvgScore:  resOppAvg.Float64,
			Manual:       resManual.Bool,
			Locked:       resLocked.Bool,
			UpdatedAt:    resUpdatedAt.Time,
		}
	}
	return &p, nil
}

func (r *postgresPairingRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Pairing, error) {
	return scanPairing(r.getExecutor(exec).QueryRowContext(ctx, pairingSelect+` WHERE p.id = $1`, id))
}

func (r *postgresPairingRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Pairing, error) {
	return scanPairing(r.getExecutor(exec).QueryRowContext(ctx, pairingSelect+` WHERE p.id = $1 FOR UPDATE OF p`, id))
}

func (r *postgresPairingRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]*models.Pairing, error) {
	return r.list(ctx, exec, pairingSelect+` WHERE p.round_id = $1 ORDER BY p.room_order ASC, p.id ASC`, roundID)
}

func (r *postgresPairingRepository) ListHistory(ctx context.Context, exec SQLExecutor, tournamentID, beforeRound int) ([]*models.Pairing, error) {
	if beforeRound <= 0 {
		return r.list(ctx, exec,
			pairingSelect+` WHERE r.tournament_id = $1 ORDER BY r.number ASC, p.room_order ASC`, tournamentID)
	}
	return r.list(ctx, exec,
		pairingSelect+` WHERE r.tournament_id = $1 AND r.number < $2 ORDER BY r.number ASC, p.room_order ASC`,
		tournamentID, beforeRound)
}

func (r *postgresPairingRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Pairing, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pairings := make([]*models.Pairing, 0)
	for rows.Next() {
		p, errScan := scanPairing(rows)
		if errScan != nil {
			return nil, errScan
		}
		pairings = append(pairings, p)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return pairings, nil
}
