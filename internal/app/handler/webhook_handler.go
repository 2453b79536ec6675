package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"backend/internal/app/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const webhookSignatureHeader = "X-Square-Hmacsha256-Signature"

// SquareWebhook принимает вебхуки платежного провайдера
// @Summary Вебхук Square
// @Description Принимает события платежей. Подлинность проверяется подписью HMAC.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/webhook/square [post]
func (h *APIHandler) SquareWebhook(c *gin.Context) {
	// Подпись считается от сырого тела, читаем его до разбора JSON
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "не удалось прочитать тело запроса")
		return
	}

	if !h.Webhooks.VerifySignature(rawBody, c.GetHeader(webhookSignatureHeader)) {
		logrus.Warn("вебхук с неверной подписью отклонен")
		h.errorResponse(c, http.StatusUnauthorized, "неверная подпись")
		return
	}

	var event service.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "некорректное тело вебхука")
		return
	}

	// Провайдер получает 200 сразу: он не должен ждать исполнения заявки,
	// иначе его ретраи начнут дублировать нагрузку. Результат обработки
	// виден через статус заявки, а не через ответ на вебхук.
	c.JSON(http.StatusOK, gin.H{"status": "ok"})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.Webhooks.ProcessEvent(ctx, &event)
	}()
}
