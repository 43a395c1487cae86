package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"github.com/Dosada05/debate-tab/storage"
)

// SnapshotPublisher uploads public copies of released draws and standings.
// A nil publisher disables uploads.
type SnapshotPublisher interface {
	PublishDraw(ctx context.Context, tournamentID, roundNumber int, draw interface{}) (*storage.UploadResult, error)
	PublishStandings(ctx context.Context, tournamentID int, standings interface{}) (*storage.UploadResult, error)
	WithdrawDraw(ctx context.Context, tournamentID, roundNumber int) error
}

// withTx runs fn in a transaction, committing when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, logger *slog.Logger, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.ErrorContext(ctx, "transaction rollback failed", slog.Any("error", rbErr), slog.Any("cause", err))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()
	return fn(tx)
}

// handleRepositoryError maps repository sentinels to service errors.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrRoundNotFound):
		return ErrRoundNotFound
	case errors.Is(err, repositories.ErrPairingNotFound):
		return ErrPairingNotFound
	case errors.Is(err, repositories.ErrParticipationNotFound):
		return ErrJudgeNotFound
	case errors.Is(err, repositories.ErrResultNotFound):
		return ErrResultNotFound
	case errors.Is(err, repositories.ErrPairingJudgeNotFound):
		return ErrJudgeNotOnPanel
	case errors.Is(err, repositories.ErrJudgeAlreadySeated):
		return ErrJudgeAlreadySeated
	case errors.Is(err, repositories.ErrRoundNumberConflict):
		return ErrRoundNumberConflict
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrInstitutionNameConflict):
		return ErrInstitutionNameConflict
	case errors.Is(err, repositories.ErrTeamInstitutionInvalid),
		errors.Is(err, repositories.ErrParticipationInvalid),
		errors.Is(err, repositories.ErrPairingTeamInvalid),
		errors.Is(err, repositories.ErrStandingTeamInvalid):
		return ErrRosterReferenceInvalid
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	case errors.Is(err, repositories.ErrBallotInvalid):
		return brackets.ErrInvalidBallot
	case errors.Is(err, repositories.ErrPanelHasChair):
		return fmt.Errorf("%w: panel already has a chair", ErrValidationFailed)
	case errors.Is(err, repositories.ErrTournamentInvalid):
		return ErrValidationFailed
	case errors.Is(err, repositories.ErrUserNotFound),
		errors.Is(err, repositories.ErrTeamNotFound),
		errors.Is(err, repositories.ErrTournamentStandingNotFound):
		return ErrNotFound
	default:
		return err
	}
}

// pairingRecords converts persisted pairings into engine history. Only decided
// results carry a winner.
func pairingRecords(pairings []*models.Pairing) []brackets.PairingRecord {
	records := make([]brackets.PairingRecord, 0, len(pairings))
	for _, p := range pairings {
		rec := brackets.PairingRecord{
			RoundNumber: p.RoundNumber,
			PropTeamID:  p.PropTeamID,
			OppTeamID:   p.OppTeamID,
		}
		if p.Result.IsDecided() {
			rec.WinnerTeamID = p.Result.WinnerTeamID
		}
		records = append(records, rec)
	}
	return records
}

// attachJudges distributes panel rows onto their pairings.
func attachJudges(pairings []*models.Pairing, judges []models.PairingJudge) {
	byPairing := make(map[int][]models.PairingJudge, len(pairings))
	for _, j := range judges {
		byPairing[j.PairingID] = append(byPairing[j.PairingID], j)
	}
	for _, p := range pairings {
		p.Judges = byPairing[p.ID]
	}
}

func notify(n brackets.Notifier, tournamentID int, event string, payload interface{}) {
	if n != nil {
		n.NotifyTournament(tournamentID, event, payload)
	}
}
