package service

import (
	"errors"
	"fmt"
)

// Ошибки делятся по способу распространения: ошибки валидации и оплаты
// возвращаются вызывающему синхронно, ошибки исполнения попадают только в
// last_error заявки, а конфликт CAS вообще не ошибка (второй писатель просто
// видит чужой результат).

// ValidationError — некорректные входные данные. Заявка при этом не создается.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError — для выбора HTTP-кода в обработчике
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PaymentError — провайдер отклонил платеж или недоступен.
// Заявка к этому моменту уже переведена в payment_failed.
type PaymentError struct {
	Err error
}

func (e *PaymentError) Error() string {
	return "ошибка оплаты: " + e.Err.Error()
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func IsPaymentError(err error) bool {
	var pe *PaymentError
	return errors.As(err, &pe)
}
