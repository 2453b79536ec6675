package service

import (
	"context"
	"fmt"

	"backend/internal/app/ds"
	"backend/internal/app/payments"
	"backend/internal/app/refid"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestService — движок жизненного цикла заявки: валидация, создание,
// решение об оплате и синхронная часть потока. Асинхронную часть (вебхуки)
// ведет WebhookService, исполнение действий — Dispatcher; все три сходятся
// на одном CAS-защищенном Dispatch.
type RequestService struct {
	requests        RequestStore
	payments        PaymentStore
	charger         Charger
	dispatcher      *Dispatcher
	paymentLinkBase string
}

func NewRequestService(requests RequestStore, paymentStore PaymentStore, charger Charger, dispatcher *Dispatcher, paymentLinkBase string) *RequestService {
	return &RequestService{
		requests:        requests,
		payments:        paymentStore,
		charger:         charger,
		dispatcher:      dispatcher,
		paymentLinkBase: paymentLinkBase,
	}
}

// PaymentData — платежные данные из заявки.
// SourceID пустой, если оплата пойдет по внешней ссылке.
type PaymentData struct {
	Amount         float64
	SourceID       string
	IdempotencyKey string
	Note           string
}

// SubmitResult — исход подачи заявки
type SubmitResult struct {
	RequestID  string  `json:"request_id"`
	Status     string  `json:"status"`
	PaymentID  *string `json:"payment_id,omitempty"`
	PaymentURL *string `json:"payment_url,omitempty"`
}

// Submit проводит заявку через синхронную часть жизненного цикла.
//
// Без оплаты заявка сразу уходит в исполнение. С оплатой и платежным токеном
// списание делается здесь же; без токена заявка остается в payment_pending,
// и двигать ее дальше будет только вебхук.
func (s *RequestService) Submit(ctx context.Context, req *ds.ChangeRequest, pay *PaymentData) (*SubmitResult, error) {
	if err := validateDraft(req, pay); err != nil {
		return nil, err
	}

	// Повтор с тем же ключом идемпотентности возвращает прежнюю заявку,
	// а не создает вторую
	if req.RequiresPayment && pay != nil && pay.IdempotencyKey != "" {
		if existing, err := s.payments.GetPaymentByIdempotencyKey(ctx, pay.IdempotencyKey); err == nil {
			prev, err := s.requests.GetRequest(ctx, existing.RequestID)
			if err != nil {
				return nil, err
			}
			logrus.Infof("повтор заявки по ключу идемпотентности %s -> %s", pay.IdempotencyKey, prev.ID)
			return &SubmitResult{RequestID: prev.ID, Status: prev.Status, PaymentID: &existing.ID}, nil
		}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	} else if _, err := uuid.Parse(req.ID); err != nil {
		return nil, NewValidationError("id", "ID заявки должен быть UUID")
	}
	req.Status = ds.StatusPending

	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("не удалось сохранить заявку: %w", err)
	}

	if !req.RequiresPayment {
		ok, err := s.requests.TransitionRequest(ctx, req.ID,
			[]string{ds.StatusPending},
			map[string]interface{}{"status": ds.StatusReadyForExecution})
		if err != nil {
			return nil, err
		}
		if !ok {
			// кто-то уже двинул заявку, отдаем текущее состояние
			cur, err := s.requests.GetRequest(ctx, req.ID)
			if err != nil {
				return nil, err
			}
			return &SubmitResult{RequestID: req.ID, Status: cur.Status}, nil
		}

		status, err := s.dispatcher.Dispatch(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{RequestID: req.ID, Status: status}, nil
	}

	return s.startPayment(ctx, req, pay)
}

// startPayment создает запись платежа и, если есть платежный токен,
// сразу проводит списание
func (s *RequestService) startPayment(ctx context.Context, req *ds.ChangeRequest, pay *PaymentData) (*SubmitResult, error) {
	requestID := uuid.MustParse(req.ID)
	reference := refid.Encode(requestID)

	idempotencyKey := pay.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	payment := &ds.Payment{
		ID:             uuid.NewString(),
		RequestID:      req.ID,
		Amount:         pay.Amount,
		Currency:       "USD",
		Status:         ds.PaymentStatusPending,
		IdempotencyKey: idempotencyKey,
		ReferenceID:    reference,
	}
	if pay.Note != "" {
		payment.Note = &pay.Note
	}

	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("не удалось сохранить платеж: %w", err)
	}

	if _, err := s.requests.TransitionRequest(ctx, req.ID,
		[]string{ds.StatusPending},
		map[string]interface{}{"status": ds.StatusPaymentPending, "payment_id": payment.ID}); err != nil {
		return nil, err
	}

	// Без токена оплата идет через внешнюю ссылку, дальше заявку двигает вебхук
	if pay.SourceID == "" {
		url := s.paymentURL(reference)
		logrus.Infof("заявка %s ждет оплаты по ссылке", req.ID)
		return &SubmitResult{
			RequestID:  req.ID,
			Status:     ds.StatusPaymentPending,
			PaymentID:  &payment.ID,
			PaymentURL: &url,
		}, nil
	}

	result, err := s.charger.CreatePayment(ctx, payments.CreatePaymentParams{
		SourceID:       pay.SourceID,
		Amount:         pay.Amount,
		Currency:       payment.Currency,
		IdempotencyKey: idempotencyKey,
		ReferenceID:    reference,
		Note:           pay.Note,
	})
	if err != nil {
		// Провайдер отказал: заявка в payment_failed, ошибка уходит вызывающему
		if _, ferr := s.requests.RecordRequestFailure(ctx, req.ID,
			[]string{ds.StatusPaymentPending}, ds.StatusPaymentFailed, err.Error()); ferr != nil {
			logrus.Errorf("не удалось записать отказ оплаты по заявке %s: %v", req.ID, ferr)
		}
		if serr := s.payments.MarkPaymentFailed(ctx, payment.ID); serr != nil {
			logrus.Errorf("не удалось обновить платеж %s: %v", payment.ID, serr)
		}
		return nil, &PaymentError{Err: err}
	}

	if merr := s.payments.MarkPaymentAccepted(ctx, payment.ID, result.ProviderPaymentID, result.Status); merr != nil {
		logrus.Errorf("не удалось привязать платеж провайдера %s: %v", result.ProviderPaymentID, merr)
	}

	// Провайдер может принять платеж, но завершить его позже; тогда ждем вебхук
	if result.Status != ds.PaymentStatusCompleted {
		return &SubmitResult{RequestID: req.ID, Status: ds.StatusPaymentPending, PaymentID: &payment.ID}, nil
	}

	if _, err := s.requests.TransitionRequest(ctx, req.ID,
		[]string{ds.StatusPaymentPending},
		map[string]interface{}{"status": ds.StatusPaymentComplete}); err != nil {
		return nil, err
	}

	status, err := s.dispatcher.Dispatch(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{RequestID: req.ID, Status: status, PaymentID: &payment.ID}, nil
}

func (s *RequestService) paymentURL(reference string) string {
	return fmt.Sprintf("%s?reference=%s", s.paymentLinkBase, reference)
}

func (s *RequestService) GetRequest(ctx context.Context, id string) (*ds.ChangeRequest, error) {
	return s.requests.GetRequest(ctx, id)
}

func (s *RequestService) ListTeamRequests(ctx context.Context, teamID uint, status string) ([]ds.ChangeRequest, error) {
	return s.requests.ListTeamRequests(ctx, teamID, status)
}

// Платформы, для которых умеем менять игровой ID
var knownPlatforms = map[string]bool{
	"psn":   true,
	"xbox":  true,
	"steam": true,
	"epic":  true,
}

// validateDraft проверяет обязательные поля по типу заявки.
// Ошибка валидации локальна и синхронна, запись в базе не появляется.
func validateDraft(req *ds.ChangeRequest, pay *PaymentData) error {
	if req.RequestedBy == 0 {
		return NewValidationError("requested_by", "не указан автор заявки")
	}

	// Команды еще нет только при ее создании
	if req.RequestType != ds.TypeTeamCreation && req.TeamID == 0 {
		return NewValidationError("team_id", "не указана команда")
	}

	switch req.RequestType {
	case ds.TypeTeamTransfer:
		if req.NewCaptainID == nil || *req.NewCaptainID == 0 {
			return NewValidationError("new_captain_id", "не указан новый капитан")
		}

	case ds.TypeRosterChange:
		if req.Operation == nil {
			return NewValidationError("operation", "не указана операция")
		}
		switch *req.Operation {
		case "add", "remove":
		case "update":
			if req.NewRole == nil || *req.NewRole == "" {
				return NewValidationError("new_role", "не указана новая роль")
			}
		default:
			return NewValidationError("operation", "допустимы add, remove, update")
		}
		if req.PlayerID == nil || *req.PlayerID == 0 {
			return NewValidationError("player_id", "не указан игрок")
		}

	case ds.TypeTournamentRegistration:
		if req.TournamentID == nil || *req.TournamentID == 0 {
			return NewValidationError("tournament_id", "не указан турнир")
		}
		if len(req.PlayerIDs) == 0 {
			return NewValidationError("player_ids", "не указан состав")
		}

	case ds.TypeLeagueRegistration:
		if req.LeagueID == nil || *req.LeagueID == 0 {
			return NewValidationError("league_id", "не указана лига")
		}
		if req.Season == nil || *req.Season == 0 {
			return NewValidationError("season", "не указан сезон")
		}
		if len(req.PlayerIDs) == 0 {
			return NewValidationError("player_ids", "не указан состав")
		}

	case ds.TypeTeamRebrand:
		if req.NewName == nil || *req.NewName == "" {
			return NewValidationError("new_name", "не указано новое имя")
		}

	case ds.TypeOnlineIDChange:
		if req.PlayerID == nil || *req.PlayerID == 0 {
			return NewValidationError("player_id", "не указан игрок")
		}
		if req.NewOnlineID == nil || *req.NewOnlineID == "" {
			return NewValidationError("new_online_id", "не указан новый игровой ID")
		}
		if req.Platform == nil || !knownPlatforms[*req.Platform] {
			return NewValidationError("platform", "допустимы psn, xbox, steam, epic")
		}

	case ds.TypeTeamCreation:
		if req.TeamName == nil || *req.TeamName == "" {
			return NewValidationError("team_name", "не указано имя команды")
		}
		if req.CaptainID == nil || *req.CaptainID == 0 {
			return NewValidationError("captain_id", "не указан капитан")
		}

	default:
		return NewValidationError("request_type", "неизвестный тип заявки")
	}

	if req.RequiresPayment {
		if pay == nil {
			return NewValidationError("payment", "не переданы платежные данные")
		}
		if pay.Amount <= 0 {
			return NewValidationError("payment.amount", "сумма должна быть больше нуля")
		}
	}

	return nil
}
