package handler

import (
	"io"
	"net/http"
	"strconv"

	"backend/internal/app/ds"
	"backend/internal/app/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func toTeamResponse(team *ds.Team) dto.TeamResponse {
	resp := dto.TeamResponse{
		ID:        team.ID,
		Name:      team.Name,
		CaptainID: team.CaptainID,
		Status:    team.Status,
		LeagueID:  team.LeagueID,
	}
	if team.LogoURL != nil {
		resp.LogoURL = *team.LogoURL
	}
	return resp
}

// GetTeams список активных команд
// @Summary Список команд
// @Tags Teams
// @Produce json
// @Success 200 {object} dto.TeamListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/teams [get]
func (h *APIHandler) GetTeams(c *gin.Context) {
	teams, err := h.Repository.GetTeams(c.Request.Context())
	if err != nil {
		logrus.Error("Ошибка получения команд: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "ошибка получения команд")
		return
	}

	response := dto.TeamListResponse{Total: len(teams)}
	for i := range teams {
		response.Teams = append(response.Teams, toTeamResponse(&teams[i]))
	}

	c.JSON(http.StatusOK, response)
}

// GetTeam одна команда
// @Summary Получение команды
// @Tags Teams
// @Produce json
// @Param id path int true "ID команды"
// @Success 200 {object} dto.TeamResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/teams/{id} [get]
func (h *APIHandler) GetTeam(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		h.errorResponse(c, http.StatusBadRequest, "неверный ID команды")
		return
	}

	team, err := h.Repository.GetTeamByID(c.Request.Context(), uint(id))
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "команда не найдена")
		return
	}

	c.JSON(http.StatusOK, toTeamResponse(team))
}

// GetTeamPlayers состав команды
// @Summary Состав команды
// @Tags Teams
// @Produce json
// @Param id path int true "ID команды"
// @Success 200 {array} dto.TeamPlayerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/teams/{id}/players [get]
func (h *APIHandler) GetTeamPlayers(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		h.errorResponse(c, http.StatusBadRequest, "неверный ID команды")
		return
	}

	players, err := h.Repository.GetTeamPlayers(c.Request.Context(), uint(id))
	if err != nil {
		logrus.Error("Ошибка получения состава: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "ошибка получения состава")
		return
	}

	response := make([]dto.TeamPlayerResponse, 0, len(players))
	for _, p := range players {
		response = append(response, dto.TeamPlayerResponse{
			UserID:       p.UserID,
			Role:         p.Role,
			CanBeDeleted: p.CanBeDeleted,
		})
	}

	c.JSON(http.StatusOK, response)
}

// UploadTeamLogo загружает логотип команды в MinIO
// @Summary Загрузка логотипа команды
// @Tags Teams
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID команды"
// @Param logo formData file true "Файл логотипа"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/teams/{id}/logo [post]
func (h *APIHandler) UploadTeamLogo(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		h.errorResponse(c, http.StatusBadRequest, "неверный ID команды")
		return
	}

	team, err := h.Repository.GetTeamByID(c.Request.Context(), uint(id))
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "команда не найдена")
		return
	}

	file, err := c.FormFile("logo")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "файл не найден в запросе")
		return
	}

	openedFile, err := file.Open()
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "ошибка чтения файла")
		return
	}
	defer openedFile.Close()

	fileData, err := io.ReadAll(openedFile)
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "ошибка чтения файла")
		return
	}

	// Старый логотип убираем, чтобы не копить мусор в бакете
	if team.LogoURL != nil && *team.LogoURL != "" && h.MinIOClient != nil {
		if err := h.MinIOClient.DeleteFile(*team.LogoURL); err != nil {
			logrus.Warnf("Не удалось удалить старый логотип %s: %v", *team.LogoURL, err)
		}
	}

	if h.MinIOClient == nil {
		h.errorResponse(c, http.StatusInternalServerError, "хранилище файлов не настроено")
		return
	}

	logoName, err := h.MinIOClient.UploadFile(fileData, file.Filename)
	if err != nil {
		logrus.Error("Ошибка загрузки в MinIO: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "ошибка загрузки логотипа")
		return
	}

	if err := h.Repository.UpdateTeamLogo(c.Request.Context(), uint(id), logoName); err != nil {
		logrus.Error("Ошибка обновления логотипа: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "ошибка обновления логотипа")
		return
	}

	logoURL, err := h.MinIOClient.GetFileURL(logoName)
	if err != nil {
		logoURL = logoName
	}

	h.successResponse(c, http.StatusOK, "логотип обновлен", gin.H{
		"team_id":  team.ID,
		"logo_url": logoURL,
	})
}
