// Package service реализует жизненный цикл заявок на изменение команды:
// машину состояний, оплату через Square и сверку по вебхукам.
//
// У заявки два независимых писателя: синхронный путь подачи и асинхронный
// вебхук провайдера. Оба меняют статус только условными обновлениями
// (compare-and-swap по текущему статусу), поэтому гонка между ними не может
// ни потерять обновление, ни исполнить действие дважды.
package service

import (
	"context"

	"backend/internal/app/ds"
	"backend/internal/app/payments"
)

// Хранилище заявок
type RequestStore interface {
	CreateRequest(ctx context.Context, req *ds.ChangeRequest) error
	GetRequest(ctx context.Context, id string) (*ds.ChangeRequest, error)
	ListTeamRequests(ctx context.Context, teamID uint, status string) ([]ds.ChangeRequest, error)
	TransitionRequest(ctx context.Context, id string, from []string, updates map[string]interface{}) (bool, error)
	RecordRequestFailure(ctx context.Context, id string, from []string, toStatus, errMsg string) (bool, error)
}

// Хранилище платежей
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *ds.Payment) error
	GetPaymentByIdempotencyKey(ctx context.Context, key string) (*ds.Payment, error)
	GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (*ds.Payment, error)
	MarkPaymentAccepted(ctx context.Context, id, providerPaymentID, status string) error
	MarkPaymentFailed(ctx context.Context, id string) error
	SettlePayment(ctx context.Context, providerPaymentID, status string) error
}

// Хранилище команд и составов, по одному методу на исполняемое действие
type TeamStore interface {
	TransferTeamOwnership(ctx context.Context, teamID, newCaptainID uint) error
	RenameTeam(ctx context.Context, teamID uint, newName string, newLogo *string) error
	UpsertTeamPlayer(ctx context.Context, teamID, userID uint, playerRole string) error
	RemoveTeamPlayer(ctx context.Context, teamID, userID uint) error
	UpdateTeamPlayerRole(ctx context.Context, teamID, userID uint, newRole string) error
	UpdatePlayerOnlineID(ctx context.Context, userID uint, platform, newOnlineID string) error
	CreateTeamWithCaptain(ctx context.Context, team *ds.Team) error
	RegisterTeamForTournament(ctx context.Context, tournamentID, teamID uint, playerIDs []uint) (uint, error)
	RegisterTeamForLeague(ctx context.Context, leagueID, teamID uint, season int, playerIDs []uint) (uint, error)
}

// Charger — создание платежа у провайдера
type Charger interface {
	CreatePayment(ctx context.Context, params payments.CreatePaymentParams) (*payments.PaymentResult, error)
}

// SignatureVerifier — проверка подписи вебхука
type SignatureVerifier interface {
	VerifySignature(rawBody []byte, signatureHeader string) bool
}
