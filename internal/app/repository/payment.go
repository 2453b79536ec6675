package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/app/ds"

	"gorm.io/gorm"
)

// Методы для работы с платежами

var ErrPaymentNotFound = errors.New("платеж не найден")

func (r *Repository) CreatePayment(ctx context.Context, payment *ds.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetPaymentByIdempotencyKey — повторная отправка с тем же ключом должна
// вернуть уже существующий платеж, а не создать второй
func (r *Repository) GetPaymentByIdempotencyKey(ctx context.Context, key string) (*ds.Payment, error) {
	var payment ds.Payment
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (*ds.Payment, error) {
	var payment ds.Payment
	err := r.db.WithContext(ctx).Where("provider_payment_id = ?", providerPaymentID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkPaymentAccepted проставляет ID платежа на стороне провайдера и статус
func (r *Repository) MarkPaymentAccepted(ctx context.Context, id, providerPaymentID, status string) error {
	return r.db.WithContext(ctx).Model(&ds.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"provider_payment_id": providerPaymentID,
			"status":              status,
			"updated_at":          time.Now(),
		}).Error
}

// MarkPaymentFailed помечает платеж проваленным по внутреннему ID.
// Нужен, когда провайдер отклонил списание и provider_payment_id
// так и не появился.
func (r *Repository) MarkPaymentFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&ds.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     ds.PaymentStatusFailed,
			"updated_at": time.Now(),
		}).Error
}

// SettlePayment обновляет статус платежа по данным вебхука.
// Платеж ищем по provider_payment_id; если локальной записи нет (платеж созда-
// вался в обход бэкенда) — это не ошибка, вебхук все равно обрабатывается.
func (r *Repository) SettlePayment(ctx context.Context, providerPaymentID, status string) error {
	return r.db.WithContext(ctx).Model(&ds.Payment{}).
		Where("provider_payment_id = ?", providerPaymentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
