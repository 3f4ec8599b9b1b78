package handlers

import (
	"net/http"

	"github.com/Dosada05/federation-registry/services"
)

type ResultsHandler struct {
	resultsService *services.ResultsService
}

func NewResultsHandler(rs *services.ResultsService) *ResultsHandler {
	return &ResultsHandler{resultsService: rs}
}

type submitResultsRequest struct {
	Results []services.ResultInput `json:"results"`
}

// Submit godoc
// @Summary Записать результаты категории
// @Tags results
// @Description Полностью заменяет результаты категории. Очки считаются по месту: 100, 90 ... 30 за места 1-8, далее 0.
// @Accept json
// @Produce json
// @Param categoryID path int true "Tournament category ID"
// @Param body body submitResultsRequest true "Места спортсменов"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "Дубли мест или спортсменов / неизвестный спортсмен"
// @Security BearerAuth
// @Router /categories/{categoryID}/results [put]
func (h *ResultsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input submitResultsRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.resultsService.SubmitResults(r.Context(), actor, categoryID, input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary Результаты категории
// @Tags results
// @Produce json
// @Param categoryID path int true "Tournament category ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /categories/{categoryID}/results [get]
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	categoryID, err := getIDFromURL(r, "categoryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.resultsService.Results(r.Context(), categoryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Standings godoc
// @Summary Рейтинг спортсменов за сезон
// @Tags results
// @Produce json
// @Param season query int false "Год (по умолчанию текущий)"
// @Param age_category query string false "Возрастная категория"
// @Param gender query string false "Пол"
// @Param bow_type query string false "Тип лука"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /standings [get]
func (h *ResultsHandler) Standings(w http.ResponseWriter, r *http.Request) {
	season, err := queryInt(r, "season")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter := services.StandingsFilter{
		AgeCategory: queryString(r, "age_category"),
		Gender:      queryString(r, "gender"),
		BowType:     queryString(r, "bow_type"),
	}
	if season != nil {
		filter.Season = *season
	}

	standings, err := h.resultsService.Standings(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
