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
)

type BallotInput struct {
	JudgeID      int     `json:"judge_id"`
	WinnerTeamID int     `json:"winner_team_id"`
	PropScore    float64 `json:"prop_score"`
	OppScore     float64 `json:"opp_score"`
}

type ManualResultInput struct {
	WinnerTeamID int `json:"winner_team_id"`
}

// BallotOutcome reports what a submitted ballot changed. Result stays nil
// while AwaitingBallots > 0.
type BallotOutcome struct {
	Ballot          *models.Ballot `json:"ballot"`
	Result          *models.Result `json:"result,omitempty"`
	AwaitingBallots int            `json:"awaiting_ballots"`
}

type ResultService interface {
	// SubmitBallot stores a panel judge's ballot. Once every judge on the panel
	// has voted the result is decided. A deadlocked panel stores an undecided
	// result and returns brackets.ErrManualResolutionRequired with the outcome.
	SubmitBallot(ctx context.Context, pairingID int, input BallotInput) (*BallotOutcome, error)
	RecordManualResult(ctx context.Context, pairingID int, input ManualResultInput) (*models.Result, error)
	Lock(ctx context.Context, pairingID int) (*models.Result, error)
	Reopen(ctx context.Context, pairingID int) (*models.Result, error)
}

type resultService struct {
	db               *sql.DB
	roundRepo        repositories.RoundRepository
	pairingRepo      repositories.PairingRepository
	pairingJudgeRepo repositories.PairingJudgeRepository
	ballotRepo       repositories.BallotRepository
	resultRepo       repositories.ResultRepository
	notifier         brackets.Notifier
	logger           *slog.Logger
}

func NewResultService(
	db *sql.DB,
	roundRepo repositories.RoundRepository,
	pairingRepo repositories.PairingRepository,
	pairingJudgeRepo repositories.PairingJudgeRepository,
	ballotRepo repositories.BallotRepository,
	resultRepo repositories.ResultRepository,
	notifier brackets.Notifier,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:               db,
		roundRepo:        roundRepo,
		pairingRepo:      pairingRepo,
		pairingJudgeRepo: pairingJudgeRepo,
		ballotRepo:       ballotRepo,
		resultRepo:       resultRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

// lockScorablePairing locks a debate of a published round whose result is open.
func (s *resultService) lockScorablePairing(ctx context.Context, tx *sql.Tx, pairingID int) (*models.Pairing, *models.Round, error) {
	pairing, err := s.pairingRepo.GetForUpdate(ctx, tx, pairingID)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	if pairing.IsBye() {
		return nil, nil, ErrByeHasNoResult
	}
	round, err := s.roundRepo.GetByID(ctx, tx, pairing.RoundID)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	if !round.IsPublished() {
		return nil, nil, ErrRoundNotPublished
	}
	if pairing.Result != nil && pairing.Result.Locked {
		return nil, nil, ErrResultLocked
	}
	return pairing, round, nil
}

func inDebate(p *models.Pairing, teamID int) bool {
	return *p.PropTeamID == teamID || *p.OppTeamID == teamID
}

func (s *resultService) SubmitBallot(ctx context.Context, pairingID int, input BallotInput) (*BallotOutcome, error) {
	if input.PropScore < 0 || input.OppScore < 0 {
		return nil, fmt.Errorf("%w: scores must not be negative", brackets.ErrInvalidBallot)
	}

	var (
		outcome  *BallotOutcome
		round    *models.Round
		deadlock bool
	)
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		pairing, r, err := s.lockScorablePairing(ctx, tx, pairingID)
		if err != nil {
			return err
		}
		round = r
		if !inDebate(pairing, input.WinnerTeamID) {
			return ErrWinnerNotInDebate
		}

		panel, err := s.pairingJudgeRepo.ListByPairing(ctx, tx, pairingID)
		if err != nil {
			return err
		}
		seated := false
		for _, pj := range panel {
			if pj.JudgeID == input.JudgeID {
				seated = true
				break
			}
		}
		if !seated {
			return ErrJudgeNotOnPanel
		}

		ballot := &models.Ballot{
			PairingID:    pairingID,
			JudgeID:      input.JudgeID,
			WinnerTeamID: input.WinnerTeamID,
			PropScore:    input.PropScore,
			OppScore:     input.OppScore,
		}
		if err := s.ballotRepo.Upsert(ctx, tx, ballot); err != nil {
			return handleRepositoryError(err)
		}
		outcome = &BallotOutcome{Ballot: ballot}

		stored, err := s.ballotRepo.ListByPairing(ctx, tx, pairingID)
		if err != nil {
			return err
		}
		ballots := panelBallots(panel, stored)
		if len(ballots) < len(panel) {
			outcome.AwaitingBallots = len(panel) - len(ballots)
			return nil
		}

		decision, err := brackets.DecideResult(*pairing.PropTeamID, *pairing.OppTeamID, ballots)
		switch {
		case errors.Is(err, brackets.ErrManualResolutionRequired):
			deadlock = true
		case err != nil:
			return err
		}

		result := &models.Result{
			PairingID:    pairingID,
			PropVotes:    decision.PropVotes,
			OppVotes:     decision.OppVotes,
			PropAvgScore: decision.PropAvgScore,
			OppAvgScore:  decision.OppAvgScore,
		}
		switch {
		case pairing.Result != nil && pairing.Result.Manual:
			// Решение администратора остаётся в силе.
			result.WinnerTeamID = pairing.Result.WinnerTeamID
			result.Manual = true
			deadlock = false
		case !deadlock:
			winner := decision.WinnerTeamID
			result.WinnerTeamID = &winner
		}
		if err := s.resultRepo.Upsert(ctx, tx, result); err != nil {
			return handleRepositoryError(err)
		}
		outcome.Result = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Result != nil {
		notify(s.notifier, round.TournamentID, brackets.EventResultRecorded, outcome.Result)
	}
	if deadlock {
		s.logger.WarnContext(ctx, "panel deadlocked, result needs manual resolution",
			slog.Int("pairing_id", pairingID))
		return outcome, brackets.ErrManualResolutionRequired
	}
	return outcome, nil
}

// panelBallots drops ballots of judges who are no longer on the panel.
func panelBallots(panel []models.PairingJudge, ballots []models.Ballot) []models.Ballot {
	seated := make(map[int]bool, len(panel))
	for _, pj := range panel {
		seated[pj.JudgeID] = true
	}
	out := make([]models.Ballot, 0, len(ballots))
	for _, b := range ballots {
		if seated[b.JudgeID] {
			out = append(out, b)
		}
	}
	return out
}

func (s *resultService) RecordManualResult(ctx context.Context, pairingID int, input ManualResultInput) (*models.Result, error) {
	var (
		result *models.Result
		round  *models.Round
	)
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		pairing, r, err := s.lockScorablePairing(ctx, tx, pairingID)
		if err != nil {
			return err
		}
		round = r
		if !inDebate(pairing, input.WinnerTeamID) {
			return ErrWinnerNotInDebate
		}

		winner := input.WinnerTeamID
		result = &models.Result{PairingID: pairingID, WinnerTeamID: &winner, Manual: true}
		if prev := pairing.Result; prev != nil {
			result.PropVotes, result.OppVotes = prev.PropVotes, prev.OppVotes
			result.PropAvgScore, result.OppAvgScore = prev.PropAvgScore, prev.OppAvgScore
		}
		return handleRepositoryError(s.resultRepo.Upsert(ctx, tx, result))
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "manual result recorded",
		slog.Int("pairing_id", pairingID), slog.Int("winner_team_id", input.WinnerTeamID))
	notify(s.notifier, round.TournamentID, brackets.EventResultRecorded, result)
	return result, nil
}

func (s *resultService) Lock(ctx context.Context, pairingID int) (*models.Result, error) {
	return s.setLocked(ctx, pairingID, true)
}

func (s *resultService) Reopen(ctx context.Context, pairingID int) (*models.Result, error) {
	return s.setLocked(ctx, pairingID, false)
}

func (s *resultService) setLocked(ctx context.Context, pairingID int, locked bool) (*models.Result, error) {
	var (
		result *models.Result
		round  *models.Round
	)
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		pairing, err := s.pairingRepo.GetForUpdate(ctx, tx, pairingID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if pairing.Result == nil {
			return ErrResultNotFound
		}
		if locked && !pairing.Result.IsDecided() {
			return ErrResultUndecided
		}
		if round, err = s.roundRepo.GetByID(ctx, tx, pairing.RoundID); err != nil {
			return handleRepositoryError(err)
		}
		if err := s.resultRepo.SetLocked(ctx, tx, pairingID, locked); err != nil {
			return handleRepositoryError(err)
		}
		result = pairing.Result
		result.Locked = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "result lock changed",
		slog.Int("pairing_id", pairingID), slog.Bool("locked", locked))
	notify(s.notifier, round.TournamentID, brackets.EventResultRecorded, result)
	return result, nil
}
