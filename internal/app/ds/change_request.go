package ds

import "time"

// Типы заявок на изменение команды
const (
	TypeTeamTransfer           = "team_transfer"
	TypeRosterChange           = "roster_change"
	TypeTournamentRegistration = "tournament_registration"
	TypeLeagueRegistration     = "league_registration"
	TypeTeamRebrand            = "team_rebrand"
	TypeOnlineIDChange         = "online_id_change"
	TypeTeamCreation           = "team_creation"
)

// Статусы заявки. Переходы только вперед по графу:
// pending -> ready_for_execution | payment_pending | payment_failed
// payment_pending -> payment_complete | payment_failed
// payment_complete, ready_for_execution -> processing -> completed | failed
const (
	StatusPending           = "pending"
	StatusPaymentPending    = "payment_pending"
	StatusPaymentComplete   = "payment_complete"
	StatusReadyForExecution = "ready_for_execution"
	StatusProcessing        = "processing"
	StatusCompleted         = "completed"
	StatusPaymentFailed     = "payment_failed"
	StatusFailed            = "failed"
)

// IsTerminalStatus — из этих статусов заявка уже не двигается
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusPaymentFailed
}

// 1. Таблица заявок на изменение команды
type ChangeRequest struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	RequestType     string `gorm:"type:varchar(50);not null;index"`
	TeamID          uint   `gorm:"index"` // 0 для team_creation (команды еще нет)
	RequestedBy     uint   `gorm:"not null"`
	RequiresPayment bool   `gorm:"not null;default:false"`
	Status          string `gorm:"type:varchar(30);not null;index"`

	// Ссылка на платеж (заполняется после создания Payment)
	PaymentID *string `gorm:"type:uuid"`

	// Диагностика
	LastError          *string `gorm:"type:text"`
	ProcessingAttempts int     `gorm:"not null;default:0"`
	Result             *string `gorm:"type:jsonb"` // результат исполнителя

	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
	ProcessedAt *time.Time `gorm:"default:null"` // только при успешном завершении

	// Поля по предметной области (nullable, заполняются по типу заявки)
	PlayerID     *uint   `gorm:"default:null"`
	NewRole      *string `gorm:"type:varchar(30)"`
	Operation    *string `gorm:"type:varchar(20)"` // add, remove, update
	NewCaptainID *uint   `gorm:"default:null"`
	OldCaptainID *uint   `gorm:"default:null"`
	TournamentID *uint   `gorm:"default:null"`
	LeagueID     *uint   `gorm:"default:null"`
	Season       *int    `gorm:"default:null"`
	PlayerIDs    []uint  `gorm:"serializer:json"`
	OldName      *string `gorm:"type:varchar(100)"`
	NewName      *string `gorm:"type:varchar(100)"`
	NewLogo      *string `gorm:"type:varchar(255)"` // имя объекта в MinIO
	TeamName     *string `gorm:"type:varchar(100)"`
	CaptainID    *uint   `gorm:"default:null"`
	OldOnlineID  *string `gorm:"type:varchar(100)"`
	NewOnlineID  *string `gorm:"type:varchar(100)"`
	Platform     *string `gorm:"type:varchar(20)"` // psn, xbox, steam, epic
}
