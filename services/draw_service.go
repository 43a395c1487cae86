package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"golang.org/x/sync/errgroup"
)

type DrawResult struct {
	Round     *models.Round       `json:"round"`
	Generator string              `json:"generator"`
	Pairings  []*models.Pairing   `json:"pairings"`
	Warnings  int                 `json:"warnings"`
	Flags     []brackets.DrawFlag `json:"flags"`
}

type DrawService interface {
	// Generate (re)builds the draft draw of a round. Earlier draft pairings of
	// the same round and their panels are replaced atomically.
	Generate(ctx context.Context, roundID int) (*DrawResult, error)
	// Get returns the round with pairings, teams, panels and results.
	Get(ctx context.Context, roundID int) (*models.Round, error)
}

type drawService struct {
	db               *sql.DB
	generator        brackets.DrawGenerator
	tournamentRepo   repositories.TournamentRepository
	roundRepo        repositories.RoundRepository
	teamRepo         repositories.TeamRepository
	pairingRepo      repositories.PairingRepository
	pairingJudgeRepo repositories.PairingJudgeRepository
	notifier         brackets.Notifier
	defaultSwaps     int
	logger           *slog.Logger
}

func NewDrawService(
	db *sql.DB,
	generator brackets.DrawGenerator,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	teamRepo repositories.TeamRepository,
	pairingRepo repositories.PairingRepository,
	pairingJudgeRepo repositories.PairingJudgeRepository,
	notifier brackets.Notifier,
	defaultSwaps int,
	logger *slog.Logger,
) DrawService {
	return &drawService{
		db:               db,
		generator:        generator,
		tournamentRepo:   tournamentRepo,
		roundRepo:        roundRepo,
		teamRepo:         teamRepo,
		pairingRepo:      pairingRepo,
		pairingJudgeRepo: pairingJudgeRepo,
		notifier:         notifier,
		defaultSwaps:     defaultSwaps,
		logger:           logger,
	}
}

func (s *drawService) Generate(ctx context.Context, roundID int) (*DrawResult, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if round.IsPublished() {
		return nil, ErrRoundPublished
	}

	var (
		tournament *models.Tournament
		teams      []*models.Team
		history    []*models.Pairing
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(gCtx, nil, round.TournamentID)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, nil, round.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = s.pairingRepo.ListHistory(gCtx, nil, round.TournamentID, round.Number)
		if err != nil {
			return fmt.Errorf("failed to load round history: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := pairingRecords(history)
	draw, err := s.generator.GenerateDraw(ctx, brackets.GenerateDrawParams{
		RoundNumber:     round.Number,
		Teams:           teams,
		Standings:       brackets.CalculateStandings(records),
		History:         records,
		MaxSwapAttempts: s.swapAttempts(tournament),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate draw for round %d: %w", round.Number, err)
	}

	pairings := make([]*models.Pairing, len(draw.Pairings))
	for i, dp := range draw.Pairings {
		pairings[i] = &models.Pairing{
			RoundID:         round.ID,
			RoundNumber:     round.Number,
			PropTeamID:      dp.PropTeamID,
			OppTeamID:       dp.OppTeamID,
			Bracket:         dp.Bracket,
			RoomOrder:       i,
			Rematch:         draw.Flags[i].Rematch,
			SameInstitution: draw.Flags[i].SameInstitution,
		}
	}

	var removed int64
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := lockDraftRound(ctx, tx, s.roundRepo, roundID); err != nil {
			return err
		}
		if err := s.pairingJudgeRepo.DeleteByRound(ctx, tx, roundID); err != nil {
			return fmt.Errorf("failed to clear panels: %w", err)
		}
		var err error
		if removed, err = s.pairingRepo.DeleteByRound(ctx, tx, roundID); err != nil {
			return fmt.Errorf("failed to clear draft pairings: %w", err)
		}
		return s.pairingRepo.BatchCreate(ctx, tx, pairings)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draw generated",
		slog.Int("round_id", roundID),
		slog.Int("pairings", len(pairings)),
		slog.Int("warnings", draw.Warnings()),
		slog.Int64("replaced", removed))

	result := &DrawResult{
		Round:     round,
		Generator: draw.Generator,
		Pairings:  pairings,
		Warnings:  draw.Warnings(),
		Flags:     draw.Flags,
	}
	notify(s.notifier, round.TournamentID, brackets.EventDrawGenerated, map[string]int{
		"round_id": round.ID, "round_number": round.Number, "pairings": len(pairings),
	})
	return result, nil
}

func (s *drawService) swapAttempts(t *models.Tournament) int {
	if t != nil && t.MaxSwapAttempts != nil && *t.MaxSwapAttempts > 0 {
		return *t.MaxSwapAttempts
	}
	return s.defaultSwaps
}

func (s *drawService) Get(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return loadRoundDraw(ctx, nil, round, s.pairingRepo, s.pairingJudgeRepo)
}

// loadRoundDraw fills round.Pairings with panels attached.
func loadRoundDraw(
	ctx context.Context,
	exec repositories.SQLExecutor,
	round *models.Round,
	pairingRepo repositories.PairingRepository,
	pairingJudgeRepo repositories.PairingJudgeRepository,
) (*models.Round, error) {
	pairings, err := pairingRepo.ListByRound(ctx, exec, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairings of round %d: %w", round.ID, err)
	}
	judges, err := pairingJudgeRepo.ListByRound(ctx, exec, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list panels of round %d: %w", round.ID, err)
	}
	attachJudges(pairings, judges)

	round.Pairings = make([]models.Pairing, len(pairings))
	for i, p := range pairings {
		round.Pairings[i] = *p
	}
	return round, nil
}
