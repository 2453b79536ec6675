package handler

import (
	"net/http"

	"backend/internal/app/dto"
	"backend/internal/app/middleware"
	"backend/internal/app/repository"
	"backend/internal/app/role"
	"backend/internal/app/service"
	"backend/internal/app/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// APIHandler содержит обработчики REST API
type APIHandler struct {
	Requests    *service.RequestService
	Webhooks    *service.WebhookService
	Repository  *repository.Repository
	MinIOClient *storage.MinIOClient
	AuthHandler *AuthHandler
}

func NewAPIHandler(requests *service.RequestService, webhooks *service.WebhookService, r *repository.Repository, minioClient *storage.MinIOClient, authHandler *AuthHandler) *APIHandler {
	return &APIHandler{
		Requests:    requests,
		Webhooks:    webhooks,
		Repository:  r,
		MinIOClient: minioClient,
		AuthHandler: authHandler,
	}
}

// RegisterAPIRoutes регистрирует все REST API маршруты с авторизацией
func (h *APIHandler) RegisterAPIRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := router.Group("/api")

	// ============ Заявки на изменение команды ============
	requests := api.Group("/requests")
	requests.Use(authMiddleware.WithAuthCheck(role.Player, role.Captain, role.Admin))
	{
		requests.POST("/team-transfer", h.SubmitTeamTransfer)
		requests.POST("/roster-change", h.SubmitRosterChange)
		requests.POST("/tournament-registration", h.SubmitTournamentRegistration)
		requests.POST("/league-registration", h.SubmitLeagueRegistration)
		requests.POST("/team-rebrand", h.SubmitTeamRebrand)
		requests.POST("/online-id-change", h.SubmitOnlineIDChange)
		requests.POST("/team-creation", h.SubmitTeamCreation)

		requests.GET("/:id", h.GetRequest)
	}

	// ============ Команды ============
	teams := api.Group("/teams")
	{
		// Публичные эндпоинты
		teams.GET("", h.GetTeams)
		teams.GET("/:id", h.GetTeam)
		teams.GET("/:id/players", h.GetTeamPlayers)

		// Для авторизованных пользователей
		teams.GET("/:id/requests", authMiddleware.WithAuthCheck(role.Player, role.Captain, role.Admin), h.GetTeamRequests)

		// Логотип меняют капитаны и администраторы
		teams.POST("/:id/logo", authMiddleware.WithAuthCheck(role.Captain, role.Admin), h.UploadTeamLogo)
	}

	// ============ Вебхуки платежного провайдера ============
	// Авторизация не нужна: подлинность проверяется подписью
	api.POST("/webhook/square", h.SquareWebhook)

	// ============ Аутентификация ============
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.AuthHandler.RegisterUser)
		auth.POST("/login", h.AuthHandler.LoginUser)
		auth.POST("/session-login", h.AuthHandler.SessionLoginUser)
		auth.POST("/session-logout", h.AuthHandler.SessionLogoutUser)

		auth.GET("/profile", authMiddleware.WithAuthCheck(role.Player, role.Captain, role.Admin), h.AuthHandler.GetUserProfile)
		auth.PUT("/profile", authMiddleware.WithAuthCheck(role.Player, role.Captain, role.Admin), h.UpdateProfile)
		auth.POST("/logout", authMiddleware.WithAuthCheck(role.Player, role.Captain, role.Admin), h.AuthHandler.LogoutUser)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/ping", h.Ping)
}

// Ping проверяет работоспособность API
// @Summary Проверка работоспособности
// @Description Возвращает простой ответ для проверки работы сервера
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *APIHandler) Ping(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"message": "pong"})
}

// Получение текущего пользователя из контекста
func (h *APIHandler) getUserFromContext(c *gin.Context) (uint, role.Role, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		logrus.Warn("userID not found in context")
		return 0, role.Player, false
	}

	userRole, _ := c.Get("userRole")
	r, _ := userRole.(role.Role)

	id, ok := userID.(uint)
	if !ok {
		logrus.Errorf("getUserFromContext: invalid userID type: %T", userID)
		return 0, r, false
	}

	return id, r, true
}

func (h *APIHandler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Status:  "fail",
		Message: message,
	})
}

func (h *APIHandler) successResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := dto.SuccessResponse{
		Status:  "success",
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(statusCode, response)
}

// serviceError переводит ошибку сервисного слоя в HTTP-код
func (h *APIHandler) serviceError(c *gin.Context, err error) {
	switch {
	case service.IsValidationError(err):
		h.errorResponse(c, http.StatusBadRequest, err.Error())
	case service.IsPaymentError(err):
		h.errorResponse(c, http.StatusPaymentRequired, err.Error())
	default:
		logrus.Error(err)
		h.errorResponse(c, http.StatusInternalServerError, "внутренняя ошибка сервера")
	}
}
