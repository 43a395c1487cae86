package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
)

type CreateRoundInput struct {
	Number int    `json:"number"`
	Motion string `json:"motion"`
}

type UpdateMotionInput struct {
	Motion string `json:"motion"`
}

type RoundService interface {
	Create(ctx context.Context, tournamentID int, input CreateRoundInput) (*models.Round, error)
	// GetPublished returns a released round by number. Drafts are reported as not found.
	GetPublished(ctx context.Context, tournamentID, number int) (*models.Round, error)
	UpdateMotion(ctx context.Context, roundID int, input UpdateMotionInput) (*models.Round, error)
	// Publish freezes the draw and panels of a round.
	Publish(ctx context.Context, roundID int) (*models.Round, error)
	// Unpublish returns a round to draft while none of its pairings has a result.
	Unpublish(ctx context.Context, roundID int) (*models.Round, error)
}

type roundService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	roundRepo        repositories.RoundRepository
	pairingRepo      repositories.PairingRepository
	pairingJudgeRepo repositories.PairingJudgeRepository
	notifier         brackets.Notifier
	snapshots        SnapshotPublisher
	logger           *slog.Logger
}

func NewRoundService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	pairingRepo repositories.PairingRepository,
	pairingJudgeRepo repositories.PairingJudgeRepository,
	notifier brackets.Notifier,
	snapshots SnapshotPublisher,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		roundRepo:        roundRepo,
		pairingRepo:      pairingRepo,
		pairingJudgeRepo: pairingJudgeRepo,
		notifier:         notifier,
		snapshots:        snapshots,
		logger:           logger,
	}
}

func (s *roundService) Create(ctx context.Context, tournamentID int, input CreateRoundInput) (*models.Round, error) {
	if input.Number <= 0 {
		return nil, fmt.Errorf("%w: round number must be positive", ErrValidationFailed)
	}
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}

	round := &models.Round{
		TournamentID: tournamentID,
		Number:       input.Number,
		Status:       models.DrawStatusDraft,
		Motion:       strings.TrimSpace(input.Motion),
	}
	if err := s.roundRepo.Create(ctx, round); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "round created",
		slog.Int("tournament_id", tournamentID), slog.Int("round_id", round.ID), slog.Int("number", round.Number))
	return round, nil
}

func (s *roundService) GetPublished(ctx context.Context, tournamentID, number int) (*models.Round, error) {
	round, err := s.roundRepo.GetByNumber(ctx, tournamentID, number)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !round.IsPublished() {
		return nil, ErrRoundNotFound
	}
	return loadRoundDraw(ctx, nil, round, s.pairingRepo, s.pairingJudgeRepo)
}

func (s *roundService) UpdateMotion(ctx context.Context, roundID int, input UpdateMotionInput) (*models.Round, error) {
	motion := strings.TrimSpace(input.Motion)
	if err := s.roundRepo.UpdateMotion(ctx, nil, roundID, motion); err != nil {
		return nil, handleRepositoryError(err)
	}
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if round.IsPublished() {
		notify(s.notifier, round.TournamentID, brackets.EventDrawReleased, round)
	}
	return round, nil
}

func (s *roundService) Publish(ctx context.Context, roundID int) (*models.Round, error) {
	var round *models.Round
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		if round, err = lockDraftRound(ctx, tx, s.roundRepo, roundID); err != nil {
			return err
		}
		if round, err = loadRoundDraw(ctx, tx, round, s.pairingRepo, s.pairingJudgeRepo); err != nil {
			return err
		}
		if len(round.Pairings) == 0 {
			return ErrDrawEmpty
		}
		for i := range round.Pairings {
			if err := checkPanel(&round.Pairings[i]); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if err := s.roundRepo.SetStatus(ctx, tx, roundID, models.DrawStatusPublished, &now); err != nil {
			return handleRepositoryError(err)
		}
		round.Status = models.DrawStatusPublished
		round.PublishedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draw released",
		slog.Int("tournament_id", round.TournamentID), slog.Int("round", round.Number))
	notify(s.notifier, round.TournamentID, brackets.EventDrawReleased, round)
	if s.snapshots != nil {
		if _, err := s.snapshots.PublishDraw(ctx, round.TournamentID, round.Number, round); err != nil {
			s.logger.WarnContext(ctx, "failed to upload draw snapshot",
				slog.Int("round_id", roundID), slog.Any("error", err))
		}
	}
	return round, nil
}

// checkPanel requires at least one judge and exactly one chair on a debate.
func checkPanel(p *models.Pairing) error {
	if p.IsBye() {
		return nil
	}
	chairs := 0
	for _, j := range p.Judges {
		if j.IsChair {
			chairs++
		}
	}
	if len(p.Judges) == 0 || chairs != 1 {
		return fmt.Errorf("%w: pairing %d has %d judges and %d chairs", ErrPanelIncomplete, p.ID, len(p.Judges), chairs)
	}
	return nil
}

func (s *roundService) Unpublish(ctx context.Context, roundID int) (*models.Round, error) {
	var round *models.Round
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		if round, err = s.roundRepo.GetForUpdate(ctx, tx, roundID); err != nil {
			return handleRepositoryError(err)
		}
		if !round.IsPublished() {
			return ErrRoundNotPublished
		}
		pairings, err := s.pairingRepo.ListByRound(ctx, tx, roundID)
		if err != nil {
			return fmt.Errorf("failed to list pairings: %w", err)
		}
		for _, p := range pairings {
			if p.Result != nil {
				return ErrRoundHasResults
			}
		}
		if err := s.roundRepo.SetStatus(ctx, tx, roundID, models.DrawStatusDraft, nil); err != nil {
			return handleRepositoryError(err)
		}
		round.Status = models.DrawStatusDraft
		round.PublishedAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draw withdrawn",
		slog.Int("tournament_id", round.TournamentID), slog.Int("round", round.Number))
	notify(s.notifier, round.TournamentID, brackets.EventDrawWithdrawn, map[string]int{
		"round_id": round.ID, "round_number": round.Number,
	})
	if s.snapshots != nil {
		if err := s.snapshots.WithdrawDraw(ctx, round.TournamentID, round.Number); err != nil {
			s.logger.WarnContext(ctx, "failed to withdraw draw snapshot",
				slog.Int("round_id", roundID), slog.Any("error", err))
		}
	}
	return round, nil
}
