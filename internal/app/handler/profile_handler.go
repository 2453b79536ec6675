package handler

import (
	"net/http"

	"backend/internal/app/dto"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UpdateProfile обновление профиля пользователя
// @Summary Обновление профиля
// @Description Обновляет ФИО и/или пароль текущего пользователя
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateUserRequest true "Новые данные"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/profile [put]
func (h *APIHandler) UpdateProfile(c *gin.Context) {
	userID, _, ok := h.getUserFromContext(c)
	if !ok || userID == 0 {
		h.errorResponse(c, http.StatusUnauthorized, "ошибка авторизации")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверные данные: "+err.Error())
		return
	}

	var fullName, password *string
	if req.FullName != "" {
		fullName = &req.FullName
	}
	if req.Password != "" {
		hashed := generateHashString(req.Password)
		password = &hashed
	}

	if err := h.Repository.UpdateUser(userID, fullName, password); err != nil {
		logrus.Error("Error updating user: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "ошибка обновления профиля")
		return
	}

	h.successResponse(c, http.StatusOK, "профиль успешно обновлен", nil)
}
