package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Аутентификация
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrPasswordTooShort       = errors.New("password is too short")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrPairingNotFound    = errors.New("pairing not found")
	ErrJudgeNotFound      = errors.New("judge not found in this tournament")
	ErrResultNotFound     = errors.New("pairing has no result yet")

	// Жизненный цикл раунда
	ErrRoundNumberConflict = errors.New("round number already exists in this tournament")
	ErrRoundPublished      = errors.New("round is published; its draw and panels are frozen")
	ErrRoundNotPublished   = errors.New("round has not been published")
	ErrRoundHasResults     = errors.New("round already has results and cannot be withdrawn")
	ErrDrawEmpty           = errors.New("round has no pairings")
	ErrPanelIncomplete     = errors.New("every pairing needs at least one judge and exactly one chair")

	// Панели судей
	ErrJudgeAlreadySeated = errors.New("judge is already seated in this round")
	ErrJudgeNotOnPanel    = errors.New("judge is not on this pairing's panel")

	// Результаты
	ErrByeHasNoResult    = errors.New("a bye has no ballots or result")
	ErrResultLocked      = errors.New("result is locked")
	ErrResultUndecided   = errors.New("result has no winner yet")
	ErrWinnerNotInDebate = errors.New("winner must be one of the pairing's teams")

	// Состав турнира
	ErrTeamNameConflict        = errors.New("team name is already in use in this tournament")
	ErrInstitutionNameConflict = errors.New("institution name is already in use in this tournament")
	ErrRosterReferenceInvalid  = errors.New("roster entry references an unknown institution or team")
)
