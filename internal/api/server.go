package api

import (
	"context"

	"backend/internal/app/config"
	"backend/internal/app/dsn"
	"backend/internal/app/handler"
	"backend/internal/app/middleware"
	"backend/internal/app/payments"
	"backend/internal/app/redis"
	"backend/internal/app/repository"
	"backend/internal/app/service"
	"backend/internal/app/storage"
	"backend/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StartServer собирает все зависимости и запускает HTTP-сервер.
// Все сервисы создаются один раз здесь и передаются по ссылке,
// глобальных синглтонов нет.
func StartServer() {
	logrus.Info("Starting server")

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("ошибка загрузки конфигурации: %v", err)
	}

	repo, err := repository.New(dsn.FromEnv())
	if err != nil {
		logrus.Fatalf("ошибка инициализации репозитория: %v", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logrus.Fatalf("ошибка подключения к Redis: %v", err)
	}

	minioClient, err := storage.NewMinIOClient(
		cfg.Minio.Endpoint,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.Bucket,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		logrus.Warnf("MinIO недоступен, загрузка логотипов отключена: %v", err)
		minioClient = nil
	}

	squareClient := payments.NewClient(cfg.Square)

	// Ядро: диспетчер исполняет действия, движок ведет заявки,
	// вебхук-сервис сверяет платежи. Все трое работают через один
	// CAS-защищенный Dispatch.
	dispatcher := service.NewDispatcher(repo, repo)
	requestService := service.NewRequestService(repo, repo, squareClient, dispatcher, cfg.Square.PaymentLinkBase)
	webhookService := service.NewWebhookService(repo, repo, dispatcher, squareClient)

	authHandler := handler.NewAuthHandler(repo, redisClient, cfg)
	apiHandler := handler.NewAPIHandler(requestService, webhookService, repo, minioClient, authHandler)
	authMiddleware := middleware.NewAuthMiddleware(redisClient, cfg)

	router := gin.Default()
	app := pkg.NewApp(cfg, router, apiHandler, authMiddleware)
	app.RunApp()
}
