package handler

import (
	"net/http"
	"strconv"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/service"

	"github.com/gin-gonic/gin"
)

// Обработчики заявок на изменение команды. Каждый эндпоинт собирает заявку
// своего типа и отдает ее движку; вся машина состояний живет в service.

func paymentData(p *dto.PaymentDataRequest) *service.PaymentData {
	if p == nil {
		return nil
	}
	return &service.PaymentData{
		Amount:         p.Amount,
		SourceID:       p.SourceID,
		IdempotencyKey: p.IdempotencyKey,
		Note:           p.Note,
	}
}

func toRequestResponse(req *ds.ChangeRequest) dto.RequestResponse {
	return dto.RequestResponse{
		ID:                 req.ID,
		RequestType:        req.RequestType,
		TeamID:             req.TeamID,
		RequestedBy:        req.RequestedBy,
		RequiresPayment:    req.RequiresPayment,
		Status:             req.Status,
		PaymentID:          req.PaymentID,
		LastError:          req.LastError,
		ProcessingAttempts: req.ProcessingAttempts,
		Result:             req.Result,
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
		ProcessedAt:        req.ProcessedAt,
	}
}

func (h *APIHandler) submit(c *gin.Context, req *ds.ChangeRequest, pay *service.PaymentData) {
	result, err := h.Requests.Submit(c.Request.Context(), req, pay)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	h.successResponse(c, http.StatusCreated, "заявка принята", result)
}

// SubmitTeamTransfer заявка на смену капитана
// @Summary Смена капитана команды
// @Description Создает заявку на передачу команды новому капитану
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.TeamTransferRequest true "Данные заявки"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Router /api/requests/team-transfer [post]
func (h *APIHandler) SubmitTeamTransfer(c *gin.Context) {
	var request dto.TeamTransferRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := h.getUserFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "пользователь не авторизован")
		return
	}

	h.submit(c, &ds.ChangeRequest{
		RequestType:     ds.TypeTeamTransfer,
		TeamID:          request.TeamID,
		RequestedBy:     userID,
		RequiresPayment: request.RequiresPayment,
		NewCaptainID:    &request.NewCaptainID,
	}, paymentData(request.Payment))
}

// SubmitRosterChange заявка на изменение состава
// @Summary Изменение состава команды
// @Description Добавление, удаление игрока или смена его роли
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RosterChangeRequest true "Данные заявки"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/requests/roster-change [post]
func (h *APIHandler) SubmitRosterChange(c *gin.Context) {
	var request dto.RosterChangeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := h.getUserFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "пользователь не авторизован")
		return
	}

	req := &ds.ChangeRequest{
		RequestType:     ds.TypeRosterChange,
		TeamID:          request.TeamID,
		RequestedBy:     userID,
		RequiresPayment: request.RequiresPayment,
		Operation:       &request.Operation,
		PlayerID:        &request.PlayerID,
	}
	if request.NewRole != "" {
		req.NewRole = &request.NewRole
	}

	h.submit(c, req, paymentData(request.Payment))
}

// SubmitTournamentRegistration заявка на регистрацию в турнире
// @Summary Регистрация команды в турнире
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.TournamentRegistrationRequest true "Данные заявки"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Router /api/requests/tournament-registration [post]
func (h *APIHandler) SubmitTournamentRegistration(c *gin.Context) {
	var request dto.TournamentRegistrationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := h.getUserFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "пользователь не авторизован")
		return
	}

	h.submit(c, &ds.ChangeRequest{
		RequestType:     ds.TypeTournamentRegistration,
		TeamID:          request.TeamID,
		RequestedBy:     userID,
		RequiresPayment: request.RequiresPayment,
		TournamentID:    &request.TournamentID,
		PlayerIDs:       request.PlayerIDs,
	}, paymentData(request.Payment))
}

// SubmitLeagueRegistration заявка на регистрацию в лиге
// @Summary Регистрация команды в лиге на сезон
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LeagueRegistrationRequest true "Данные заявки"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Router /api/requests/league-registration [post]
func (h *APIHandler) SubmitLeagueRegistration(c *gin.Context) {
	var request dto.LeagueRegistrationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := h.getUserFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "пользователь не авторизован")
		return
	}

	h.submit(c, &ds.ChangeRequest{
		RequestType:     ds.TypeLeagueRegistration,
		TeamID:          request.TeamID,
		RequestedBy:     userID,
		RequiresPayment: request.RequiresPayment,
		LeagueID:        &request.LeagueID,
		Season:          &request.Season,
		PlayerIDs:       request.PlayerIDs,
	}, paymentData(request.Payment))
}

// SubmitTeamRebrand заявка на ребрендинг команды
// @Summary Смена названия и логотипа команды
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.TeamRebrandRequest true "Данные заявки"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/requests/team-rebrand [post]
func (h *APIHandler) SubmitTeamRebrand(c *gin.Context) {
	var request dto.TeamRebrandRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := h.getUserFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "пользователь не авторизован")
		return
	}

	req := &ds.ChangeRequest{
		RequestType:     ds.TypeTeamRebrand,
		TeamID:          request.TeamID,
		RequestedBy:     userID,
		RequiresPayment: request.RequiresPayment,
		NewName:         &request.NewName,
	}
	if request.NewLogo != "" {
		req.NewLogo = &request.NewLogo
	}

	h.submit(c, req, paymentData(request.Payment))
}

// SubmitOnlineIDChange заявка на смену игрового ID
// @Summary Смена игрового ID участника
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.OnlineIDChangeRequest true "Данные заявки"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/requests/online-id-change [post]
func (h *APIHandler) SubmitOnlineIDChange(c *gin.Context) {
	var request dto.OnlineIDChangeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := h.getUserFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "пользователь не авторизован")
		return
	}

	req := &ds.ChangeRequest{
		RequestType:     ds.TypeOnlineIDChange,
		TeamID:          request.TeamID,
		RequestedBy:     userID,
		RequiresPayment: request.RequiresPayment,
		PlayerID:        &request.PlayerID,
		NewOnlineID:     &request.NewOnlineID,
		Platform:        &request.Platform,
	}
	if request.OldOnlineID != "" {
		req.OldOnlineID = &request.OldOnlineID
	}

	h.submit(c, req, paymentData(request.Payment))
}

// SubmitTeamCreation заявка на создание команды
// @Summary Создание новой команды
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.TeamCreationRequest true "Данные заявки"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 402 {object} dto.ErrorResponse
// @Router /api/requests/team-creation [post]
func (h *APIHandler) SubmitTeamCreation(c *gin.Context) {
	var request dto.TeamCreationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	userID, _, ok := h.getUserFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "пользователь не авторизован")
		return
	}

	captainID := request.CaptainID
	if captainID == 0 {
		captainID = userID
	}

	h.submit(c, &ds.ChangeRequest{
		RequestType:     ds.TypeTeamCreation,
		RequestedBy:     userID,
		RequiresPayment: request.RequiresPayment,
		TeamName:        &request.TeamName,
		CaptainID:       &captainID,
	}, paymentData(request.Payment))
}

// GetRequest получение заявки по ID
// @Summary Получение заявки
// @Description Возвращает заявку со статусом, диагностикой и результатом
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Success 200 {object} dto.RequestResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/requests/{id} [get]
func (h *APIHandler) GetRequest(c *gin.Context) {
	req, err := h.Requests.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "заявка не найдена")
		return
	}

	c.JSON(http.StatusOK, toRequestResponse(req))
}

// GetTeamRequests список заявок команды
// @Summary Заявки команды
// @Description Возвращает заявки команды, опционально отфильтрованные по статусу
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID команды"
// @Param status query string false "Фильтр по статусу"
// @Success 200 {object} dto.RequestListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/teams/{id}/requests [get]
func (h *APIHandler) GetTeamRequests(c *gin.Context) {
	teamID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || teamID == 0 {
		h.errorResponse(c, http.StatusBadRequest, "неверный ID команды")
		return
	}

	requests, err := h.Requests.ListTeamRequests(c.Request.Context(), uint(teamID), c.Query("status"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	response := dto.RequestListResponse{Total: len(requests)}
	for i := range requests {
		response.Requests = append(response.Requests, toRequestResponse(&requests[i]))
	}

	c.JSON(http.StatusOK, response)
}
