package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
	exportService       *services.ExportService
}

// NewRegistrationHandler: exportService may be nil when object storage is not configured.
func NewRegistrationHandler(rs *services.RegistrationService, es *services.ExportService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: rs,
		exportService:       es,
	}
}

func (h *RegistrationHandler) ExportEnabled() bool {
	return h.exportService != nil
}

// Create godoc
// @Summary Подать заявку региона на категорию турнира
// @Tags registrations
// @Description Регистрирует состав (спортсмены с тренерами, судьи). Заявка создаётся в статусе PENDING.
// @Accept json
// @Produce json
// @Param body body services.CreateRegistrationInput true "Состав заявки"
// @Success 201 {object} map[string]interface{} "Заявка создана"
// @Failure 400 {object} map[string]string "Некорректный JSON"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав / регистрация закрыта"
// @Failure 404 {object} map[string]string "Категория не найдена"
// @Failure 409 {object} map[string]string "У региона уже есть активная заявка"
// @Failure 422 {object} map[string]string "Превышена квота / дубли / неизвестные ссылки"
// @Security BearerAuth
// @Router /registrations [post]
func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var input services.CreateRegistrationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.RegionID <= 0 || input.TournamentCategoryID <= 0 {
		badRequestResponse(w, r, errors.New("region_id and tournament_category_id are required"))
		return
	}

	reg, err := h.registrationService.Create(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary Список заявок
// @Tags registrations
// @Description Представители регионов видят только заявки своего региона. Сортировка: новые первыми.
// @Produce json
// @Param status query string false "PENDING | APPROVED | REJECTED | WITHDRAWN"
// @Param region_id query int false "Регион"
// @Param category_id query int false "Категория турнира"
// @Param tournament_id query int false "Турнир"
// @Param mine query bool false "Только поданные текущим пользователем"
// @Param limit query int false "Лимит (по умолчанию 50)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /registrations [get]
func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var filter services.ListRegistrationsFilter
	var err error
	if status := queryString(r, "status"); status != nil {
		s := models.RegistrationStatus(*status)
		filter.Status = &s
	}
	if filter.RegionID, err = queryInt(r, "region_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.CategoryID, err = queryInt(r, "category_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if filter.TournamentID, err = queryInt(r, "tournament_id"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if limit != nil {
		filter.Limit = *limit
	}
	if offset != nil {
		filter.Offset = *offset
	}
	filter.Mine = r.URL.Query().Get("mine") == "true"

	regs, err := h.registrationService.List(r.Context(), actor, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": regs, "count": len(regs)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary Получить заявку
// @Tags registrations
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /registrations/{registrationID} [get]
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.registrationService.Get(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EditRoster godoc
// @Summary Изменить состав заявки
// @Tags registrations
// @Description Заменяет список спортсменов и/или судей. Только для заявок в статусе PENDING.
// @Accept json
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Param body body services.EditRosterInput true "Новые списки"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Заявка уже не PENDING"
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /registrations/{registrationID}/roster [patch]
func (h *RegistrationHandler) EditRoster(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EditRosterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.registrationService.EditRoster(r.Context(), actor, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Approve godoc
// @Summary Одобрить заявку
// @Tags registrations
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string "Нет ни одного судьи"
// @Security BearerAuth
// @Router /registrations/{registrationID}/approve [post]
func (h *RegistrationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor models.Actor, id int) (*models.Registration, error) {
		return h.registrationService.Approve(r.Context(), actor, id)
	})
}

// Reject godoc
// @Summary Отклонить заявку
// @Tags registrations
// @Accept json
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Param body body object true "{\"reason\": \"...\"}"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string "Не указана причина"
// @Security BearerAuth
// @Router /registrations/{registrationID}/reject [post]
func (h *RegistrationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.transition(w, r, func(actor models.Actor, id int) (*models.Registration, error) {
		return h.registrationService.Reject(r.Context(), actor, id, input.Reason)
	})
}

// Withdraw godoc
// @Summary Отозвать заявку
// @Tags registrations
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /registrations/{registrationID}/withdraw [post]
func (h *RegistrationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(actor models.Actor, id int) (*models.Registration, error) {
		return h.registrationService.Withdraw(r.Context(), actor, id)
	})
}

func (h *RegistrationHandler) transition(w http.ResponseWriter, r *http.Request, do func(models.Actor, int) (*models.Registration, error)) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := do(actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// History godoc
// @Summary Журнал изменений заявки
// @Tags registrations
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /registrations/{registrationID}/history [get]
func (h *RegistrationHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.registrationService.History(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"history": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Export godoc
// @Summary Выгрузить состав заявки в Excel
// @Tags registrations
// @Produce json
// @Param registrationID path int true "Registration ID"
// @Success 200 {object} services.ExportResult
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /registrations/{registrationID}/export [post]
func (h *RegistrationHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exportService == nil {
		notFoundResponse(w, r, "roster export is not configured")
		return
	}
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	res, err := h.exportService.Export(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"export": res}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
