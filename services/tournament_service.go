package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/repositories"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"
)

const maxSwapAttemptsLimit = 64

type CreateTournamentInput struct {
	Name            string `json:"name"`
	MaxSwapAttempts *int   `json:"max_swap_attempts,omitempty"`
}

type UpdateTournamentInput struct {
	Status          *models.TournamentStatus `json:"status,omitempty"`
	MaxSwapAttempts *int                     `json:"max_swap_attempts,omitempty"`
	// ResetSwapAttempts returns the tournament to the server default.
	ResetSwapAttempts bool `json:"reset_swap_attempts,omitempty"`
}

// RosterInput references institutions and teams by name. Institutions are
// looked up among those already attached to teams of the tournament and those
// created by the same import.
type RosterInput struct {
	Institutions []string             `json:"institutions"`
	Teams        []RosterTeamInput    `json:"teams"`
	Judges       []RosterJudgeInput   `json:"judges"`
	Debaters     []RosterDebaterInput `json:"debaters"`
}

type RosterTeamInput struct {
	Name        string `json:"name"`
	Institution string `json:"institution,omitempty"`
	Seed        *int   `json:"seed,omitempty"`
}

type RosterJudgeInput struct {
	Name        string `json:"name"`
	Institution string `json:"institution,omitempty"`
	Rating      int    `json:"rating"`
	Independent bool   `json:"independent"`
}

type RosterDebaterInput struct {
	Name string `json:"name"`
	Team string `json:"team"`
}

type RosterSummary struct {
	Institutions int `json:"institutions"`
	Teams        int `json:"teams"`
	Judges       int `json:"judges"`
	Debaters     int `json:"debaters"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	// GetByID returns the tournament with its teams in seed order.
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	// ImportRoster adds institutions, teams, judges and debaters in one transaction.
	ImportRoster(ctx context.Context, tournamentID int, input RosterInput) (*RosterSummary, error)
	ListParticipants(ctx context.Context, tournamentID int) (*ParticipantList, error)
}

type ParticipantList struct {
	Debaters []*models.Participation `json:"debaters"`
	Judges   []*models.Participation `json:"judges"`
}

type tournamentService struct {
	db                *sql.DB
	tournamentRepo    repositories.TournamentRepository
	teamRepo          repositories.TeamRepository
	participationRepo repositories.ParticipationRepository
	logger            *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	participationRepo repositories.ParticipationRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:                db,
		tournamentRepo:    tournamentRepo,
		teamRepo:          teamRepo,
		participationRepo: participationRepo,
		logger:            logger,
	}
}

func validSwapAttempts(n *int) error {
	if n != nil && (*n < 1 || *n > maxSwapAttemptsLimit) {
		return fmt.Errorf("%w: max_swap_attempts must be between 1 and %d", ErrValidationFailed, maxSwapAttemptsLimit)
	}
	return nil
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if err := validSwapAttempts(input.MaxSwapAttempts); err != nil {
		return nil, err
	}

	t := &models.Tournament{
		Name:            name,
		Status:          models.StatusRegistration,
		MaxSwapAttempts: input.MaxSwapAttempts,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.String("name", t.Name))
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	var (
		t     *models.Tournament
		teams []*models.Team
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.tournamentRepo.GetByID(gCtx, nil, id)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to list teams for tournament %d: %w", id, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.Teams = make([]models.Team, len(teams))
	for i, team := range teams {
		t.Teams[i] = *team
	}
	return t, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	if err := validSwapAttempts(input.MaxSwapAttempts); err != nil {
		return nil, err
	}
	if input.Status != nil {
		switch *input.Status {
		case models.StatusRegistration, models.StatusActive, models.StatusCompleted, models.StatusCanceled:
		default:
			return nil, fmt.Errorf("%w: unknown tournament status %q", ErrValidationFailed, *input.Status)
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, *input.Status); err != nil {
			return nil, handleRepositoryError(err)
		}
	}
	switch {
	case input.ResetSwapAttempts:
		if err := s.tournamentRepo.SetMaxSwapAttempts(ctx, id, nil); err != nil {
			return nil, handleRepositoryError(err)
		}
	case input.MaxSwapAttempts != nil:
		if err := s.tournamentRepo.SetMaxSwapAttempts(ctx, id, input.MaxSwapAttempts); err != nil {
			return nil, handleRepositoryError(err)
		}
	}
	return s.GetByID(ctx, id)
}

func (s *tournamentService) ImportRoster(ctx context.Context, tournamentID int, input RosterInput) (*RosterSummary, error) {
	if err := validateRoster(input); err != nil {
		return nil, err
	}

	summary := &RosterSummary{}
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := s.tournamentRepo.GetByID(ctx, tx, tournamentID); err != nil {
			return handleRepositoryError(err)
		}
		existing, err := s.teamRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}

		institutions := make(map[string]int)
		teams := make(map[string]*models.Team, len(existing)+len(input.Teams))
		nextSeed := 1
		for _, t := range existing {
			teams[t.Name] = t
			if t.Institution != nil {
				institutions[t.Institution.Name] = t.Institution.ID
			}
			if t.Seed >= nextSeed {
				nextSeed = t.Seed + 1
			}
		}

		for _, name := range input.Institutions {
			name = strings.TrimSpace(name)
			inst := &models.Institution{TournamentID: tournamentID, Name: name}
			if err := s.teamRepo.CreateInstitution(ctx, tx, inst); err != nil {
				return handleRepositoryError(err)
			}
			institutions[name] = inst.ID
			summary.Institutions++
		}

		lookup := func(name string) (*int, error) {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, nil
			}
			id, ok := institutions[name]
			if !ok {
				return nil, fmt.Errorf("%w: institution %q%s", ErrRosterReferenceInvalid, name, suggestName(name, institutions))
			}
			return &id, nil
		}

		for _, in := range input.Teams {
			instID, err := lookup(in.Institution)
			if err != nil {
				return err
			}
			team := &models.Team{
				TournamentID:  tournamentID,
				InstitutionID: instID,
				Name:          strings.TrimSpace(in.Name),
				Seed:          nextSeed,
			}
			if in.Seed != nil {
				team.Seed = *in.Seed
			}
			nextSeed++
			if err := s.teamRepo.Create(ctx, tx, team); err != nil {
				return handleRepositoryError(err)
			}
			teams[team.Name] = team
			summary.Teams++
		}

		for _, in := range input.Judges {
			instID, err := lookup(in.Institution)
			if err != nil {
				return err
			}
			judge := &models.Participation{
				TournamentID:  tournamentID,
				Name:          strings.TrimSpace(in.Name),
				Role:          models.RoleJudge,
				InstitutionID: instID,
				Rating:        in.Rating,
				Independent:   in.Independent,
			}
			if err := s.participationRepo.Create(ctx, tx, judge); err != nil {
				return handleRepositoryError(err)
			}
			summary.Judges++
		}

		for _, in := range input.Debaters {
			team, ok := teams[strings.TrimSpace(in.Team)]
			if !ok {
				return fmt.Errorf("%w: team %q%s", ErrRosterReferenceInvalid, in.Team, suggestName(in.Team, teams))
			}
			teamID := team.ID
			debater := &models.Participation{
				TournamentID:  tournamentID,
				Name:          strings.TrimSpace(in.Name),
				Role:          models.RoleDebater,
				TeamID:        &teamID,
				InstitutionID: team.InstitutionID,
			}
			if err := s.participationRepo.Create(ctx, tx, debater); err != nil {
				return handleRepositoryError(err)
			}
			summary.Debaters++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "roster imported",
		slog.Int("tournament_id", tournamentID),
		slog.Int("teams", summary.Teams),
		slog.Int("judges", summary.Judges),
		slog.Int("debaters", summary.Debaters))
	return summary, nil
}

// suggestName returns a " (did you mean ...)" hint for a mistyped roster name.
func suggestName[V any](name string, known map[string]V) string {
	candidates := make([]string, 0, len(known))
	for k := range known {
		candidates = append(candidates, k)
	}
	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(name), candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return fmt.Sprintf(" (did you mean %q?)", ranks[0].Target)
}

func validateRoster(input RosterInput) error {
	for _, name := range input.Institutions {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: institution name is required", ErrValidationFailed)
		}
	}
	for _, t := range input.Teams {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("%w: team name is required", ErrValidationFailed)
		}
		if t.Seed != nil && *t.Seed < 1 {
			return fmt.Errorf("%w: team %q has a non-positive seed", ErrValidationFailed, t.Name)
		}
	}
	for _, j := range input.Judges {
		if strings.TrimSpace(j.Name) == "" {
			return fmt.Errorf("%w: judge name is required", ErrValidationFailed)
		}
		if j.Rating < models.MinJudgeRating || j.Rating > models.MaxJudgeRating {
			return fmt.Errorf("%w: judge %q rating must be between %d and %d",
				ErrValidationFailed, j.Name, models.MinJudgeRating, models.MaxJudgeRating)
		}
	}
	for _, d := range input.Debaters {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%w: debater name is required", ErrValidationFailed)
		}
	}
	return nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID int) (*ParticipantList, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	all, err := s.participationRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	debaters, judges := models.Roster(all)
	list := &ParticipantList{Debaters: debaters, Judges: judges}
	if list.Debaters == nil {
		list.Debaters = []*models.Participation{}
	}
	if list.Judges == nil {
		list.Judges = []*models.Participation{}
	}
	return list, nil
}
