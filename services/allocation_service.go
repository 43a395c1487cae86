package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
)

type AddJudgeInput struct {
	JudgeID int  `json:"judge_id"`
	Chair   bool `json:"chair"`
}

type AllocationService interface {
	// Allocate replaces every panel of a draft round.
	Allocate(ctx context.Context, roundID int) (*brackets.Allocation, error)
	AddJudge(ctx context.Context, pairingID int, input AddJudgeInput) ([]models.PairingJudge, error)
	// RemoveJudge promotes the highest-rated remaining panelist when the chair leaves.
	RemoveJudge(ctx context.Context, pairingID, judgeID int) ([]models.PairingJudge, error)
	SetChair(ctx context.Context, pairingID, judgeID int) ([]models.PairingJudge, error)
}

type allocationService struct {
	db                *sql.DB
	allocator         *brackets.Allocator
	roundRepo         repositories.RoundRepository
	pairingRepo       repositories.PairingRepository
	pairingJudgeRepo  repositories.PairingJudgeRepository
	participationRepo repositories.ParticipationRepository
	notifier          brackets.Notifier
	logger            *slog.Logger
}

func NewAllocationService(
	db *sql.DB,
	allocator *brackets.Allocator,
	roundRepo repositories.RoundRepository,
	pairingRepo repositories.PairingRepository,
	pairingJudgeRepo repositories.PairingJudgeRepository,
	participationRepo repositories.ParticipationRepository,
	notifier brackets.Notifier,
	logger *slog.Logger,
) AllocationService {
	return &allocationService{
		db:                db,
		allocator:         allocator,
		roundRepo:         roundRepo,
		pairingRepo:       pairingRepo,
		pairingJudgeRepo:  pairingJudgeRepo,
		participationRepo: participationRepo,
		notifier:          notifier,
		logger:            logger,
	}
}

// lockDraftRound locks the round row and rejects published rounds.
func lockDraftRound(ctx context.Context, tx *sql.Tx, roundRepo repositories.RoundRepository, roundID int) (*models.Round, error) {
	round, err := roundRepo.GetForUpdate(ctx, tx, roundID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if round.IsPublished() {
		return nil, ErrRoundPublished
	}
	return round, nil
}

func (s *allocationService) Allocate(ctx context.Context, roundID int) (*brackets.Allocation, error) {
	var (
		alloc *brackets.Allocation
		round *models.Round
	)
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		if round, err = lockDraftRound(ctx, tx, s.roundRepo, roundID); err != nil {
			return err
		}
		pairings, err := s.pairingRepo.ListByRound(ctx, tx, roundID)
		if err != nil {
			return fmt.Errorf("failed to list pairings: %w", err)
		}
		judges, err := s.participationRepo.ListJudges(ctx, tx, round.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to list judges: %w", err)
		}

		rooms := make([]brackets.Room, len(pairings))
		for i, p := range pairings {
			rooms[i] = brackets.RoomFromPairing(p)
		}
		if alloc, err = s.allocator.Allocate(rooms, judges); err != nil {
			return err
		}
		if err := brackets.ValidateAllocation(rooms, judges, alloc); err != nil {
			s.logger.ErrorContext(ctx, "allocation failed validation",
				slog.Int("round_id", roundID), slog.Any("error", err))
			return err
		}

		if err := s.pairingJudgeRepo.DeleteByRound(ctx, tx, roundID); err != nil {
			return fmt.Errorf("failed to clear panels: %w", err)
		}
		for _, panel := range alloc.Panels {
			for _, a := range panel.Judges {
				pj := models.PairingJudge{PairingID: panel.PairingID, JudgeID: a.JudgeID, IsChair: a.Chair}
				if err := s.pairingJudgeRepo.Add(ctx, tx, pj); err != nil {
					return handleRepositoryError(err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "judges allocated",
		slog.Int("round_id", roundID),
		slog.Int("panels", len(alloc.Panels)),
		slog.Int("unallocated", len(alloc.Unallocated)))
	notify(s.notifier, round.TournamentID, brackets.EventAllocationUpdated, map[string]int{
		"round_id": roundID, "panels": len(alloc.Panels),
	})
	return alloc, nil
}

// panelEdit applies a single-panel change under the round lock and checks the
// panel that results.
func (s *allocationService) panelEdit(ctx context.Context, pairingID int, edit func(tx *sql.Tx, pairing *models.Pairing, panel []models.PairingJudge) error) ([]models.PairingJudge, error) {
	pairing, err := s.pairingRepo.GetByID(ctx, nil, pairingID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if pairing.IsBye() {
		return nil, fmt.Errorf("%w: pairing %d is a bye", brackets.ErrAllocationInvalid, pairingID)
	}

	var (
		panel        []models.PairingJudge
		tournamentID int
	)
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		round, err := lockDraftRound(ctx, tx, s.roundRepo, pairing.RoundID)
		if err != nil {
			return err
		}
		tournamentID = round.TournamentID

		current, err := s.pairingJudgeRepo.ListByPairing(ctx, tx, pairingID)
		if err != nil {
			return err
		}
		if err := edit(tx, pairing, current); err != nil {
			return err
		}

		if panel, err = s.pairingJudgeRepo.ListByPairing(ctx, tx, pairingID); err != nil {
			return err
		}
		if len(panel) == 0 {
			return nil
		}
		return brackets.ValidatePanel(brackets.RoomFromPairing(pairing), panelAssignments(panel), panelJudges(panel))
	})
	if err != nil {
		return nil, err
	}
	notify(s.notifier, tournamentID, brackets.EventAllocationUpdated, map[string]interface{}{
		"round_id": pairing.RoundID, "pairing_id": pairingID, "judges": panel,
	})
	return panel, nil
}

func (s *allocationService) AddJudge(ctx context.Context, pairingID int, input AddJudgeInput) ([]models.PairingJudge, error) {
	return s.panelEdit(ctx, pairingID, func(tx *sql.Tx, pairing *models.Pairing, current []models.PairingJudge) error {
		judge, err := s.participationRepo.GetByID(ctx, tx, input.JudgeID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if judge.Role != models.RoleJudge || (pairing.PropTeam != nil && judge.TournamentID != pairing.PropTeam.TournamentID) {
			return ErrJudgeNotFound
		}
		if brackets.Conflicted(judge, brackets.RoomFromPairing(pairing)) {
			return fmt.Errorf("%w: judge %d is conflicted with pairing %d", brackets.ErrAllocationInvalid, judge.ID, pairingID)
		}

		seated, err := s.pairingJudgeRepo.ListByRound(ctx, tx, pairing.RoundID)
		if err != nil {
			return err
		}
		for _, pj := range seated {
			if pj.JudgeID == judge.ID {
				return fmt.Errorf("%w: judge %d sits on pairing %d", ErrJudgeAlreadySeated, judge.ID, pj.PairingID)
			}
		}

		makeChair := input.Chair || len(current) == 0
		if err := s.pairingJudgeRepo.Add(ctx, tx, models.PairingJudge{PairingID: pairingID, JudgeID: judge.ID}); err != nil {
			return handleRepositoryError(err)
		}
		if makeChair {
			return handleRepositoryError(s.pairingJudgeRepo.SetChair(ctx, tx, pairingID, judge.ID))
		}
		return nil
	})
}

func (s *allocationService) RemoveJudge(ctx context.Context, pairingID, judgeID int) ([]models.PairingJudge, error) {
	return s.panelEdit(ctx, pairingID, func(tx *sql.Tx, _ *models.Pairing, current []models.PairingJudge) error {
		wasChair := false
		var successor *models.PairingJudge
		for i := range current {
			pj := &current[i]
			if pj.JudgeID == judgeID {
				wasChair = pj.IsChair
				continue
			}
			// current is ordered chair first, then by rating.
			if successor == nil && !pj.IsChair {
				successor = pj
			}
		}
		if err := s.pairingJudgeRepo.Remove(ctx, tx, pairingID, judgeID); err != nil {
			return handleRepositoryError(err)
		}
		if wasChair && successor != nil {
			return handleRepositoryError(s.pairingJudgeRepo.SetChair(ctx, tx, pairingID, successor.JudgeID))
		}
		return nil
	})
}

func (s *allocationService) SetChair(ctx context.Context, pairingID, judgeID int) ([]models.PairingJudge, error) {
	return s.panelEdit(ctx, pairingID, func(tx *sql.Tx, _ *models.Pairing, _ []models.PairingJudge) error {
		return handleRepositoryError(s.pairingJudgeRepo.SetChair(ctx, tx, pairingID, judgeID))
	})
}

func panelAssignments(panel []models.PairingJudge) []brackets.Assignment {
	out := make([]brackets.Assignment, len(panel))
	for i, pj := range panel {
		out[i] = brackets.Assignment{JudgeID: pj.JudgeID, Chair: pj.IsChair}
	}
	return out
}

func panelJudges(panel []models.PairingJudge) []*models.Participation {
	out := make([]*models.Participation, 0, len(panel))
	for _, pj := range panel {
		if pj.Judge != nil {
			out = append(out, pj.Judge)
		}
	}
	return out
}
