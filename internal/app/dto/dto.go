package dto

import "time"

// ============ Общие структуры ============

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ============ Платежные данные ============

// PaymentDataRequest — платежная часть заявки.
// SourceID (платежный токен Square) может отсутствовать: тогда оплата
// идет по внешней ссылке и заявка ждет вебхука.
type PaymentDataRequest struct {
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	SourceID       string  `json:"source_id"`
	IdempotencyKey string  `json:"idempotency_key" binding:"omitempty,max=64"`
	Note           string  `json:"note" binding:"omitempty,max=255"`
}

// ============ Заявки на изменение команды ============

type TeamTransferRequest struct {
	TeamID          uint                `json:"team_id" binding:"required"`
	NewCaptainID    uint                `json:"new_captain_id" binding:"required"`
	RequiresPayment bool                `json:"requires_payment"`
	Payment         *PaymentDataRequest `json:"payment"`
}

type RosterChangeRequest struct {
	TeamID          uint                `json:"team_id" binding:"required"`
	Operation       string              `json:"operation" binding:"required,oneof=add remove update"`
	PlayerID        uint                `json:"player_id" binding:"required"`
	NewRole         string              `json:"new_role"`
	RequiresPayment bool                `json:"requires_payment"`
	Payment         *PaymentDataRequest `json:"payment"`
}

type TournamentRegistrationRequest struct {
	TeamID          uint                `json:"team_id" binding:"required"`
	TournamentID    uint                `json:"tournament_id" binding:"required"`
	PlayerIDs       []uint              `json:"player_ids" binding:"required,min=1"`
	RequiresPayment bool                `json:"requires_payment"`
	Payment         *PaymentDataRequest `json:"payment"`
}

type LeagueRegistrationRequest struct {
	TeamID          uint                `json:"team_id" binding:"required"`
	LeagueID        uint                `json:"league_id" binding:"required"`
	Season          int                 `json:"season" binding:"required,gt=0"`
	PlayerIDs       []uint              `json:"player_ids" binding:"required,min=1"`
	RequiresPayment bool                `json:"requires_payment"`
	Payment         *PaymentDataRequest `json:"payment"`
}

type TeamRebrandRequest struct {
	TeamID          uint                `json:"team_id" binding:"required"`
	NewName         string              `json:"new_name" binding:"required,min=2,max=100"`
	NewLogo         string              `json:"new_logo"`
	RequiresPayment bool                `json:"requires_payment"`
	Payment         *PaymentDataRequest `json:"payment"`
}

type OnlineIDChangeRequest struct {
	TeamID          uint                `json:"team_id" binding:"required"`
	PlayerID        uint                `json:"player_id" binding:"required"`
	OldOnlineID     string              `json:"old_online_id"`
	NewOnlineID     string              `json:"new_online_id" binding:"required,max=100"`
	Platform        string              `json:"platform" binding:"required,oneof=psn xbox steam epic"`
	RequiresPayment bool                `json:"requires_payment"`
	Payment         *PaymentDataRequest `json:"payment"`
}

type TeamCreationRequest struct {
	TeamName        string              `json:"team_name" binding:"required,min=2,max=100"`
	CaptainID       uint                `json:"captain_id"` // по умолчанию сам заявитель
	RequiresPayment bool                `json:"requires_payment"`
	Payment         *PaymentDataRequest `json:"payment"`
}

// RequestResponse — заявка в ответах API
type RequestResponse struct {
	ID                 string     `json:"id"`
	RequestType        string     `json:"request_type"`
	TeamID             uint       `json:"team_id,omitempty"`
	RequestedBy        uint       `json:"requested_by"`
	RequiresPayment    bool       `json:"requires_payment"`
	Status             string     `json:"status"`
	PaymentID          *string    `json:"payment_id,omitempty"`
	LastError          *string    `json:"last_error,omitempty"`
	ProcessingAttempts int        `json:"processing_attempts"`
	Result             *string    `json:"result,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
}

type RequestListResponse struct {
	Requests []RequestResponse `json:"requests"`
	Total    int               `json:"total"`
}

// ============ Команды ============

type TeamResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CaptainID uint   `json:"captain_id"`
	Status    string `json:"status"`
	LogoURL   string `json:"logo_url,omitempty"`
	LeagueID  *uint  `json:"league_id,omitempty"`
}

type TeamListResponse struct {
	Teams []TeamResponse `json:"teams"`
	Total int            `json:"total"`
}

type TeamPlayerResponse struct {
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	CanBeDeleted bool   `json:"can_be_deleted"`
}

// ============ Пользователи ============

type UserResponse struct {
	ID       uint   `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Role     int    `json:"role"`
}

type RegisterRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Role     int    `json:"role"`
}

type UpdateUserRequest struct {
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
