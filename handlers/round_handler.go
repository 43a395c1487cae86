package handlers

import (
	"net/http"

	"github.com/Dosada05/debate-tab/services"
)

type RoundHandler struct {
	roundService      services.RoundService
	drawService       services.DrawService
	allocationService services.AllocationService
}

func NewRoundHandler(rs services.RoundService, ds services.DrawService, as services.AllocationService) *RoundHandler {
	return &RoundHandler{
		roundService:      rs,
		drawService:       ds,
		allocationService: as,
	}
}

// CreateHandler обрабатывает POST /tournaments/{tournamentID}/rounds
func (h *RoundHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateRoundInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.Create(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetPublishedHandler обрабатывает GET /tournaments/{tournamentID}/rounds/{roundNumber}
func (h *RoundHandler) GetPublishedHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	number, err := getIDFromURL(r, "roundNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.GetPublished(r.Context(), tournamentID, number)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateDrawHandler godoc
// @Summary Сгенерировать жеребьёвку раунда
// @Tags rounds
// @Description Power pairing по текущей таблице. Повторная генерация заменяет черновые пары и составы судей.
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 201 {object} map[string]interface{} "Жеребьёвка (draw)"
// @Failure 400 {object} map[string]string "Некорректный ID"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Раунд не найден"
// @Failure 409 {object} map[string]string "Раунд опубликован / Недостаточно команд"
// @Security BearerAuth
// @Router /rounds/{roundID}/draw [post]
func (h *RoundHandler) GenerateDrawHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	draw, err := h.drawService.Generate(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"draw": draw}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDrawHandler godoc
// @Summary Получить жеребьёвку раунда, включая черновик
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} map[string]interface{} "Раунд с парами и судьями"
// @Failure 400 {object} map[string]string "Некорректный ID"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Раунд не найден"
// @Security BearerAuth
// @Router /rounds/{roundID}/draw [get]
func (h *RoundHandler) GetDrawHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.drawService.Get(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AllocateHandler godoc
// @Summary Распределить судей по парам раунда
// @Tags rounds
// @Description Заменяет все составы черновика. При нехватке судей один судья может судить несколько пар (shared).
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} map[string]interface{} "Распределение (allocation)"
// @Failure 400 {object} map[string]string "Некорректный ID"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Раунд не найден"
// @Failure 409 {object} map[string]string "Раунд опубликован / Нет судей / Нет пар / Паре не найден судья без конфликта"
// @Security BearerAuth
// @Router /rounds/{roundID}/allocation [post]
func (h *RoundHandler) AllocateHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	allocation, err := h.allocationService.Allocate(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"allocation": allocation}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RoundHandler) UpdateMotionHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateMotionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.UpdateMotion(r.Context(), roundID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublishHandler godoc
// @Summary Опубликовать жеребьёвку
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} map[string]interface{} "Опубликованный раунд"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Раунд не найден"
// @Failure 409 {object} map[string]string "Пустая жеребьёвка / Неполный состав / Уже опубликован"
// @Security BearerAuth
// @Router /rounds/{roundID}/publish [post]
func (h *RoundHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.Publish(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnpublishHandler godoc
// @Summary Снять жеребьёвку с публикации
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} map[string]interface{} "Раунд в статусе draft"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав"
// @Failure 404 {object} map[string]string "Раунд не найден"
// @Failure 409 {object} map[string]string "Не опубликован / Уже есть результаты"
// @Security BearerAuth
// @Router /rounds/{roundID}/unpublish [post]
func (h *RoundHandler) UnpublishHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.Unpublish(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
