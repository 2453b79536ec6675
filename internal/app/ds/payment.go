package ds

import "time"

// Статусы платежа как их сообщает Square
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCanceled  = "CANCELED"
)

// 2. Таблица платежей (одна запись = одна попытка оплаты)
type Payment struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	RequestID string  `gorm:"type:uuid;not null;index"`
	Amount    float64 `gorm:"type:decimal(12,2);not null"` // в долларах, в центы переводит только адаптер Square
	Currency  string  `gorm:"type:varchar(3);not null;default:'USD'"`
	Status    string  `gorm:"type:varchar(20);not null"`

	// Один и тот же ключ при повторе не создает второй платеж
	IdempotencyKey string `gorm:"type:varchar(64);uniqueIndex;not null"`

	// ID платежа на стороне Square (появляется после принятия платежа провайдером)
	ProviderPaymentID *string `gorm:"type:varchar(100);index"`

	ReferenceID string  `gorm:"type:varchar(40)"` // закодированный ID заявки
	Note        *string `gorm:"type:varchar(255)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time
}
