package service

import (
	"context"
	"testing"

	"backend/internal/app/ds"
	"backend/internal/app/refid"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPendingPayment создает заявку в payment_pending с записью платежа,
// как после Submit без платежного токена
func seedPendingPayment(t *testing.T, store *memStore) (requestID string, reference string) {
	t.Helper()
	ctx := context.Background()

	id := uuid.New()
	requestID = id.String()
	reference = refid.Encode(id)

	require.NoError(t, store.CreateRequest(ctx, &ds.ChangeRequest{
		ID:           requestID,
		RequestType:  ds.TypeTeamTransfer,
		TeamID:       10,
		RequestedBy:  3,
		NewCaptainID: uptr(7),
		Status:       ds.StatusPending,
	}))

	paymentID := uuid.NewString()
	require.NoError(t, store.CreatePayment(ctx, &ds.Payment{
		ID:             paymentID,
		RequestID:      requestID,
		Amount:         25.00,
		Currency:       "USD",
		Status:         ds.PaymentStatusPending,
		IdempotencyKey: uuid.NewString(),
		ReferenceID:    reference,
	}))

	_, err := store.TransitionRequest(ctx, requestID,
		[]string{ds.StatusPending},
		map[string]interface{}{"status": ds.StatusPaymentPending, "payment_id": paymentID})
	require.NoError(t, err)
	return requestID, reference
}

func paymentEvent(reference, providerID, status string) *WebhookEvent {
	event := &WebhookEvent{Type: "payment.updated", EventID: uuid.NewString()}
	event.Data.Object.Payment = WebhookPayment{
		ID:          providerID,
		Status:      status,
		ReferenceID: reference,
	}
	return event
}

// Вебхук COMPLETED доводит ожидающую оплаты заявку до исполнения
func TestWebhookCompletedSettlesAndDispatches(t *testing.T) {
	_, webhooks, _, store, teams, _ := newTestEngine()
	requestID, reference := seedPendingPayment(t, store)

	webhooks.ProcessEvent(context.Background(), paymentEvent(reference, "sq-pay-1", ds.PaymentStatusCompleted))

	req := store.getRequest(requestID)
	assert.Equal(t, ds.StatusCompleted, req.Status)
	assert.Equal(t, 1, teams.totalTransfers())

	// ID провайдера привязался к нашей записи платежа
	payment, err := store.GetPaymentByProviderID(context.Background(), "sq-pay-1")
	require.NoError(t, err)
	assert.Equal(t, requestID, payment.RequestID)
	assert.Equal(t, ds.PaymentStatusCompleted, payment.Status)
}

// Повторная доставка того же вебхука не исполняет действие второй раз
func TestWebhookReplay(t *testing.T) {
	_, webhooks, _, store, teams, _ := newTestEngine()
	requestID, reference := seedPendingPayment(t, store)

	event := paymentEvent(reference, "sq-pay-1", ds.PaymentStatusCompleted)
	webhooks.ProcessEvent(context.Background(), event)
	webhooks.ProcessEvent(context.Background(), event)

	assert.Equal(t, 1, teams.totalTransfers(), "повтор вебхука не должен исполнять действие повторно")
	assert.Equal(t, ds.StatusCompleted, store.getRequest(requestID).Status)
}

// Вебхук FAILED гасит заявку без исполнения
func TestWebhookFailedPayment(t *testing.T) {
	_, webhooks, _, store, teams, _ := newTestEngine()
	requestID, reference := seedPendingPayment(t, store)

	webhooks.ProcessEvent(context.Background(), paymentEvent(reference, "sq-pay-1", ds.PaymentStatusFailed))

	req := store.getRequest(requestID)
	assert.Equal(t, ds.StatusPaymentFailed, req.Status)
	require.NotNil(t, req.LastError)
	assert.Contains(t, *req.LastError, ds.PaymentStatusFailed)
	assert.Zero(t, teams.totalTransfers())
}

// CANCELED обрабатывается как отказ
func TestWebhookCanceledPayment(t *testing.T) {
	_, webhooks, _, store, teams, _ := newTestEngine()
	requestID, reference := seedPendingPayment(t, store)

	webhooks.ProcessEvent(context.Background(), paymentEvent(reference, "sq-pay-1", ds.PaymentStatusCanceled))

	assert.Equal(t, ds.StatusPaymentFailed, store.getRequest(requestID).Status)
	assert.Zero(t, teams.totalTransfers())
}

// Промежуточный статус платежа заявку не двигает
func TestWebhookIntermediateStatus(t *testing.T) {
	_, webhooks, _, store, teams, _ := newTestEngine()
	requestID, reference := seedPendingPayment(t, store)

	webhooks.ProcessEvent(context.Background(), paymentEvent(reference, "sq-pay-1", "APPROVED"))

	assert.Equal(t, ds.StatusPaymentPending, store.getRequest(requestID).Status)
	assert.Zero(t, teams.totalTransfers())
}

// Событие не про платежи молча пропускается
func TestWebhookIrrelevantEvent(t *testing.T) {
	_, webhooks, _, store, teams, _ := newTestEngine()
	requestID, _ := seedPendingPayment(t, store)

	event := &WebhookEvent{Type: "order.created", EventID: uuid.NewString()}
	webhooks.ProcessEvent(context.Background(), event)

	assert.Equal(t, ds.StatusPaymentPending, store.getRequest(requestID).Status)
	assert.Zero(t, teams.totalTransfers())
}

// Цепочка сопоставления платежа с заявкой отрабатывает по порядку
func TestWebhookResolutionChain(t *testing.T) {
	t.Run("metadata", func(t *testing.T) {
		_, webhooks, _, store, teams, _ := newTestEngine()
		requestID, _ := seedPendingPayment(t, store)

		event := paymentEvent("garbled-reference", "sq-pay-1", ds.PaymentStatusCompleted)
		event.Data.Object.Payment.Metadata = map[string]string{"request_id": requestID}
		webhooks.ProcessEvent(context.Background(), event)

		assert.Equal(t, ds.StatusCompleted, store.getRequest(requestID).Status)
		assert.Equal(t, 1, teams.totalTransfers())
	})

	t.Run("uuid в note", func(t *testing.T) {
		_, webhooks, _, store, teams, _ := newTestEngine()
		requestID, _ := seedPendingPayment(t, store)

		event := paymentEvent("", "sq-pay-1", ds.PaymentStatusCompleted)
		event.Data.Object.Payment.Note = "Оплата заявки " + requestID + " от капитана"
		webhooks.ProcessEvent(context.Background(), event)

		assert.Equal(t, ds.StatusCompleted, store.getRequest(requestID).Status)
		assert.Equal(t, 1, teams.totalTransfers())
	})

	t.Run("поиск по id провайдера", func(t *testing.T) {
		_, webhooks, _, store, teams, _ := newTestEngine()
		requestID, _ := seedPendingPayment(t, store)

		// Платеж уже привязан к провайдеру прошлым вебхуком или синхронным списанием
		req := store.getRequest(requestID)
		require.NoError(t, store.MarkPaymentAccepted(context.Background(), *req.PaymentID, "sq-pay-9", ds.PaymentStatusPending))

		webhooks.ProcessEvent(context.Background(), paymentEvent("", "sq-pay-9", ds.PaymentStatusCompleted))

		assert.Equal(t, ds.StatusCompleted, store.getRequest(requestID).Status)
		assert.Equal(t, 1, teams.totalTransfers())
	})

	t.Run("ничего не подошло", func(t *testing.T) {
		_, webhooks, _, store, teams, _ := newTestEngine()
		requestID, _ := seedPendingPayment(t, store)

		event := paymentEvent("tournament_42_17", "sq-unknown", ds.PaymentStatusCompleted)
		event.Data.Object.Payment.Note = "без идентификатора"
		webhooks.ProcessEvent(context.Background(), event)

		// Неподобранный платеж подтверждается, но состояние заявок не меняется
		assert.Equal(t, ds.StatusPaymentPending, store.getRequest(requestID).Status)
		assert.Zero(t, teams.totalTransfers())
	})
}

// Legacy-формат reference (голый UUID) тоже сопоставляется
func TestWebhookLegacyReference(t *testing.T) {
	_, webhooks, _, store, teams, _ := newTestEngine()
	requestID, _ := seedPendingPayment(t, store)

	webhooks.ProcessEvent(context.Background(), paymentEvent(requestID, "sq-pay-1", ds.PaymentStatusCompleted))

	assert.Equal(t, ds.StatusCompleted, store.getRequest(requestID).Status)
	assert.Equal(t, 1, teams.totalTransfers())
}
