package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"golang.org/x/sync/errgroup"
)

type StandingsService interface {
	// Recompute derives standings from finalized results and replaces the cache.
	Recompute(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error)
	// List returns the cached standings.
	List(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error)
	GetTeam(ctx context.Context, tournamentID, teamID int) (*models.TournamentStanding, error)
}

type standingsService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	pairingRepo    repositories.PairingRepository
	standingRepo   repositories.TournamentStandingRepository
	notifier       brackets.Notifier
	snapshots      SnapshotPublisher
	logger         *slog.Logger
}

func NewStandingsService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	pairingRepo repositories.PairingRepository,
	standingRepo repositories.TournamentStandingRepository,
	notifier brackets.Notifier,
	snapshots SnapshotPublisher,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		db:             db,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		pairingRepo:    pairingRepo,
		standingRepo:   standingRepo,
		notifier:       notifier,
		snapshots:      snapshots,
		logger:         logger,
	}
}

func (s *standingsService) Recompute(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}

	var (
		teams   []*models.Team
		history []*models.Pairing
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list teams for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = s.pairingRepo.ListHistory(gCtx, nil, tournamentID, 0)
		if err != nil {
			return fmt.Errorf("failed to load history for tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := brackets.CalculateStandings(pairingRecords(history))
	standings := toStandings(tournamentID, rows, teams)

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.standingRepo.DeleteByTournamentID(ctx, tx, tournamentID); err != nil {
			return fmt.Errorf("failed to clear standings cache: %w", err)
		}
		return s.standingRepo.BatchCreate(ctx, tx, standings)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "standings recomputed",
		slog.Int("tournament_id", tournamentID), slog.Int("teams", len(standings)))
	notify(s.notifier, tournamentID, brackets.EventStandingsUpdated, standings)
	s.publishSnapshot(ctx, tournamentID, standings)
	return standings, nil
}

func (s *standingsService) List(ctx context.Context, tournamentID int) ([]*models.TournamentStanding, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.standingRepo.ListByTournament(ctx, nil, tournamentID)
}

func (s *standingsService) GetTeam(ctx context.Context, tournamentID, teamID int) (*models.TournamentStanding, error) {
	standing, err := s.standingRepo.GetByTournamentAndTeam(ctx, nil, tournamentID, teamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return standing, nil
}

func (s *standingsService) publishSnapshot(ctx context.Context, tournamentID int, standings []*models.TournamentStanding) {
	if s.snapshots == nil {
		return
	}
	res, err := s.snapshots.PublishStandings(ctx, tournamentID, standings)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to upload standings snapshot",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "standings snapshot uploaded",
		slog.Int("tournament_id", tournamentID), slog.String("key", res.Key))
}

func toStandings(tournamentID int, rows []brackets.StandingRow, teams []*models.Team) []*models.TournamentStanding {
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	now := time.Now()
	out := make([]*models.TournamentStanding, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.TournamentStanding{
			TournamentID:     tournamentID,
			TeamID:           r.TeamID,
			TeamName:         names[r.TeamID],
			Wins:             r.Wins,
			Losses:           r.Losses,
			PropCount:        r.PropCount,
			OppCount:         r.OppCount,
			OpponentStrength: r.OpponentStrength,
			Rank:             r.Rank,
			Tied:             r.Tied,
			UpdatedAt:        now,
		})
	}
	return out
}
