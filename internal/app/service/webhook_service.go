package service

import (
	"context"
	"regexp"

	"backend/internal/app/ds"
	"backend/internal/app/refid"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WebhookService сверяет вебхуки провайдера с заявками.
//
// Вебхук может прийти с опозданием, повторно или вообще по чужому платежу.
// Поэтому любой структурно корректный вебхук с верной подписью подтверждается
// провайдеру кодом 200, что бы ни случилось внутри: иначе провайдер будет
// бесконечно перепосылать событие.
type WebhookService struct {
	requests   RequestStore
	payments   PaymentStore
	dispatcher *Dispatcher
	verifier   SignatureVerifier
}

func NewWebhookService(requests RequestStore, paymentStore PaymentStore, dispatcher *Dispatcher, verifier SignatureVerifier) *WebhookService {
	return &WebhookService{
		requests:   requests,
		payments:   paymentStore,
		dispatcher: dispatcher,
		verifier:   verifier,
	}
}

// VerifySignature — граница безопасности, проверяется до любого чтения состояния
func (s *WebhookService) VerifySignature(rawBody []byte, signatureHeader string) bool {
	return s.verifier.VerifySignature(rawBody, signatureHeader)
}

// WebhookPayment — объект платежа в событии payment.updated
type WebhookPayment struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	ReferenceID string            `json:"reference_id"`
	Note        string            `json:"note"`
	Metadata    map[string]string `json:"metadata"`
}

// WebhookEvent — событие вебхука Square
type WebhookEvent struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	Data    struct {
		Type   string `json:"type"`
		ID     string `json:"id"`
		Object struct {
			Payment WebhookPayment `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// IsPaymentUpdate: Square шлет все события без фильтрации на своей стороне,
// остальные типы молча подтверждаем
func (e *WebhookEvent) IsPaymentUpdate() bool {
	return e.Type == "payment.updated"
}

// ProcessEvent обрабатывает событие платежа. Ошибка здесь не влияет на ответ
// провайдеру (он уже получил 200), она уходит в журнал и в last_error заявки.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *WebhookEvent) {
	if !event.IsPaymentUpdate() {
		logrus.Debugf("вебхук %s: событие %s не про платежи, пропускаем", event.EventID, event.Type)
		return
	}

	payment := &event.Data.Object.Payment
	logrus.Infof("вебхук %s: платеж %s в статусе %s", event.EventID, payment.ID, payment.Status)

	// Статус платежа фиксируем независимо от того, найдется ли заявка
	if err := s.payments.SettlePayment(ctx, payment.ID, payment.Status); err != nil {
		logrus.Errorf("не удалось обновить платеж %s: %v", payment.ID, err)
	}

	requestID, ok := s.resolveRequestID(ctx, payment)
	if !ok {
		// Неподобранный платеж не ошибка для провайдера, но сигнал для дежурного
		logrus.Warnf("вебхук %s: платеж %s не удалось сопоставить с заявкой (reference=%q)",
			event.EventID, payment.ID, payment.ReferenceID)
		return
	}

	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		logrus.Warnf("вебхук %s: заявка %s не найдена: %v", event.EventID, requestID, err)
		return
	}

	// Привязываем ID провайдера к нашей записи платежа: при оплате по ссылке
	// он становится известен только из вебхука
	if req.PaymentID != nil {
		if err := s.payments.MarkPaymentAccepted(ctx, *req.PaymentID, payment.ID, payment.Status); err != nil {
			logrus.Errorf("не удалось привязать платеж провайдера %s: %v", payment.ID, err)
		}
	}

	if ds.IsTerminalStatus(req.Status) {
		// Поздний или повторный вебхук, состояние не трогаем
		logrus.Debugf("вебхук %s: заявка %s уже в статусе %s", event.EventID, requestID, req.Status)
		return
	}

	switch payment.Status {
	case ds.PaymentStatusCompleted:
		moved, err := s.requests.TransitionRequest(ctx, requestID,
			[]string{ds.StatusPaymentPending},
			map[string]interface{}{"status": ds.StatusPaymentComplete})
		if err != nil {
			logrus.Errorf("вебхук %s: не удалось перевести заявку %s: %v", event.EventID, requestID, err)
			return
		}
		if !moved {
			logrus.Debugf("вебхук %s: заявка %s уже не в payment_pending", event.EventID, requestID)
		}
		// Dispatch идемпотентен, вызываем в любом случае: заявка могла зависнуть
		// между payment_complete и processing после сбоя процесса
		if _, err := s.dispatcher.Dispatch(ctx, requestID); err != nil {
			logrus.Errorf("вебхук %s: исполнение заявки %s: %v", event.EventID, requestID, err)
		}

	case ds.PaymentStatusFailed, ds.PaymentStatusCanceled:
		moved, err := s.requests.RecordRequestFailure(ctx, requestID,
			[]string{ds.StatusPending, ds.StatusPaymentPending},
			ds.StatusPaymentFailed, "провайдер отклонил платеж: "+payment.Status)
		if err != nil {
			logrus.Errorf("вебхук %s: не удалось перевести заявку %s: %v", event.EventID, requestID, err)
			return
		}
		if moved {
			logrus.Infof("заявка %s: оплата не прошла (%s)", requestID, payment.Status)
		}

	default:
		// PENDING, APPROVED и прочие промежуточные статусы заявку не двигают
		logrus.Debugf("вебхук %s: промежуточный статус %s, заявка %s не меняется",
			event.EventID, payment.Status, requestID)
	}
}

// В note UUID заявки может быть вписан в произвольный текст
var uuidPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// Ключи metadata, под которыми исторически писался ID заявки
var metadataKeys = []string{"request_id", "change_request_id", "requestId"}

// resolveFromReference — основной путь: reference_id платежа несет ID заявки
func resolveFromReference(p *WebhookPayment) (string, bool) {
	id, ok := refid.Decode(p.ReferenceID)
	if !ok {
		return "", false
	}
	return id.String(), true
}

// resolveFromMetadata — запасной путь по полю metadata
func resolveFromMetadata(p *WebhookPayment) (string, bool) {
	for _, key := range metadataKeys {
		raw, exists := p.Metadata[key]
		if !exists {
			continue
		}
		if id, err := uuid.Parse(raw); err == nil && id != uuid.Nil {
			return id.String(), true
		}
	}
	return "", false
}

// resolveFromNote — UUID, вписанный в свободный текст заметки
func resolveFromNote(p *WebhookPayment) (string, bool) {
	match := uuidPattern.FindString(p.Note)
	if match == "" {
		return "", false
	}
	id, err := uuid.Parse(match)
	if err != nil || id == uuid.Nil {
		return "", false
	}
	return id.String(), true
}

// resolveRequestID подбирает заявку к платежу. Стратегии проверяются строго
// по порядку; последняя лезет в базу, поэтому стоит в конце.
func (s *WebhookService) resolveRequestID(ctx context.Context, p *WebhookPayment) (string, bool) {
	for _, resolve := range []func(*WebhookPayment) (string, bool){
		resolveFromReference,
		resolveFromMetadata,
		resolveFromNote,
	} {
		if id, ok := resolve(p); ok {
			return id, true
		}
	}

	// Платеж мог быть создан нами раньше: ищем по ID провайдера
	if stored, err := s.payments.GetPaymentByProviderID(ctx, p.ID); err == nil {
		return stored.RequestID, true
	}

	return "", false
}
