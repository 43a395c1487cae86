package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/Dosada05/debate-tab/services"
)

type PairingHandler struct {
	allocationService services.AllocationService
	resultService     services.ResultService
}

func NewPairingHandler(as services.AllocationService, rs services.ResultService) *PairingHandler {
	return &PairingHandler{
		allocationService: as,
		resultService:     rs,
	}
}

type setChairInput struct {
	JudgeID int `json:"judge_id"`
}

func (h *PairingHandler) writePanel(w http.ResponseWriter, r *http.Request, status int, panel []models.PairingJudge) {
	if panel == nil {
		panel = []models.PairingJudge{}
	}
	if err := writeJSON(w, status, jsonResponse{"judges": panel}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddJudgeHandler godoc
// @Summary Добавить судью в состав пары
// @Tags pairings
// @Description Первый судья пустого состава становится председателем.
// @Accept json
// @Produce json
// @Param pairingID path int true "Pairing ID"
// @Param input body services.AddJudgeInput true "Судья"
// @Success 201 {object} map[string]interface{} "Состав (judges)"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Пара или судья не найдены"
// @Failure 409 {object} map[string]string "Конфликт судьи / Уже судит в раунде / Раунд опубликован"
// @Security BearerAuth
// @Router /pairings/{pairingID}/judges [post]
func (h *PairingHandler) AddJudgeHandler(w http.ResponseWriter, r *http.Request) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AddJudgeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.JudgeID <= 0 {
		badRequestResponse(w, r, errors.New("judge_id is required"))
		return
	}

	panel, err := h.allocationService.AddJudge(r.Context(), pairingID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writePanel(w, r, http.StatusCreated, panel)
}

// RemoveJudgeHandler godoc
// @Summary Убрать судью из состава пары
// @Tags pairings
// @Description Если уходит председатель, его место занимает судья с самым высоким рейтингом.
// @Produce json
// @Param pairingID path int true "Pairing ID"
// @Param judgeID path int true "Judge ID"
// @Success 200 {object} map[string]interface{} "Состав (judges)"
// @Failure 400 {object} map[string]string "Некорректный ID"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Судья не в составе"
// @Failure 409 {object} map[string]string "Раунд опубликован"
// @Security BearerAuth
// @Router /pairings/{pairingID}/judges/{judgeID} [delete]
func (h *PairingHandler) RemoveJudgeHandler(w http.ResponseWriter, r *http.Request) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	judgeID, err := getIDFromURL(r, "judgeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	panel, err := h.allocationService.RemoveJudge(r.Context(), pairingID, judgeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writePanel(w, r, http.StatusOK, panel)
}

// SetChairHandler godoc
// @Summary Назначить председателя панели
// @Tags pairings
// @Accept json
// @Produce json
// @Param pairingID path int true "Pairing ID"
// @Param input body map[string]int true "judge_id"
// @Success 200 {object} map[string]interface{} "Состав (judges)"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Судья не в составе"
// @Failure 409 {object} map[string]string "Раунд опубликован"
// @Security BearerAuth
// @Router /pairings/{pairingID}/chair [put]
func (h *PairingHandler) SetChairHandler(w http.ResponseWriter, r *http.Request) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input setChairInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.JudgeID <= 0 {
		badRequestResponse(w, r, errors.New("judge_id is required"))
		return
	}

	panel, err := h.allocationService.SetChair(r.Context(), pairingID, input.JudgeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writePanel(w, r, http.StatusOK, panel)
}

// SubmitBallotHandler godoc
// @Summary Подать бюллетень судьи
// @Tags pairings
// @Description Результат считается, когда проголосовали все судьи текущего состава. Ничья панели сохраняется, но ответ 409 вместе с текущим исходом.
// @Accept json
// @Produce json
// @Param pairingID path int true "Pairing ID"
// @Param input body services.BallotInput true "Бюллетень"
// @Success 201 {object} map[string]interface{} "Результат определён (outcome)"
// @Success 202 {object} map[string]interface{} "Ждём остальных судей (outcome)"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Пара не найдена / Судья не в составе"
// @Failure 422 {object} map[string]string "Победитель не участвует в паре / Пара bye"
// @Failure 409 {object} map[string]string "Нужно ручное решение / Результат заблокирован / Раунд не опубликован"
// @Security BearerAuth
// @Router /pairings/{pairingID}/ballots [post]
func (h *PairingHandler) SubmitBallotHandler(w http.ResponseWriter, r *http.Request) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.BallotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.JudgeID <= 0 || input.WinnerTeamID <= 0 {
		badRequestResponse(w, r, errors.New("judge_id and winner_team_id are required"))
		return
	}

	outcome, err := h.resultService.SubmitBallot(r.Context(), pairingID, input)
	switch {
	case errors.Is(err, brackets.ErrManualResolutionRequired) && outcome != nil:
		resp := jsonResponse{"error": err.Error(), "outcome": outcome}
		if err := writeJSON(w, http.StatusConflict, resp, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	case err != nil:
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusAccepted
	if outcome.Result != nil {
		status = http.StatusCreated
	}
	if err := writeJSON(w, status, jsonResponse{"outcome": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ManualResultHandler godoc
// @Summary Записать результат вручную
// @Tags pairings
// @Accept json
// @Produce json
// @Param pairingID path int true "Pairing ID"
// @Param input body services.ManualResultInput true "Победитель"
// @Success 200 {object} map[string]interface{} "Результат"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Пара не найдена"
// @Failure 409 {object} map[string]string "Результат заблокирован"
// @Security BearerAuth
// @Router /pairings/{pairingID}/result/manual [post]
func (h *PairingHandler) ManualResultHandler(w http.ResponseWriter, r *http.Request) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ManualResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinnerTeamID <= 0 {
		badRequestResponse(w, r, errors.New("winner_team_id is required"))
		return
	}

	result, err := h.resultService.RecordManualResult(r.Context(), pairingID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LockResultHandler godoc
// @Summary Заблокировать результат
// @Tags pairings
// @Produce json
// @Param pairingID path int true "Pairing ID"
// @Success 200 {object} map[string]interface{} "Результат"
// @Failure 404 {object} map[string]string "Результата нет"
// @Failure 409 {object} map[string]string "Результат не определён"
// @Security BearerAuth
// @Router /pairings/{pairingID}/result/lock [post]
func (h *PairingHandler) LockResultHandler(w http.ResponseWriter, r *http.Request) {
	h.changeLock(w, r, h.resultService.Lock)
}

func (h *PairingHandler) ReopenResultHandler(w http.ResponseWriter, r *http.Request) {
	h.changeLock(w, r, h.resultService.Reopen)
}

func (h *PairingHandler) changeLock(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, pairingID int) (*models.Result, error)) {
	pairingID, err := getIDFromURL(r, "pairingID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := op(r.Context(), pairingID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
