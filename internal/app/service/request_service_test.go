package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"backend/internal/app/ds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Заявка с пропущенным обязательным полем отклоняется до записи в хранилище
func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name  string
		draft ds.ChangeRequest
	}{
		{"нет автора", ds.ChangeRequest{RequestType: ds.TypeTeamRebrand, TeamID: 1, NewName: sptr("X")}},
		{"нет команды", ds.ChangeRequest{RequestType: ds.TypeTeamRebrand, RequestedBy: 1, NewName: sptr("X")}},
		{"трансфер без капитана", ds.ChangeRequest{RequestType: ds.TypeTeamTransfer, TeamID: 1, RequestedBy: 1}},
		{"состав без операции", ds.ChangeRequest{RequestType: ds.TypeRosterChange, TeamID: 1, RequestedBy: 1, PlayerID: uptr(5)}},
		{"состав с левой операцией", ds.ChangeRequest{RequestType: ds.TypeRosterChange, TeamID: 1, RequestedBy: 1, PlayerID: uptr(5), Operation: sptr("promote")}},
		{"смена роли без роли", ds.ChangeRequest{RequestType: ds.TypeRosterChange, TeamID: 1, RequestedBy: 1, PlayerID: uptr(5), Operation: sptr("update")}},
		{"турнир без состава", ds.ChangeRequest{RequestType: ds.TypeTournamentRegistration, TeamID: 1, RequestedBy: 1, TournamentID: uptr(3)}},
		{"лига без сезона", ds.ChangeRequest{RequestType: ds.TypeLeagueRegistration, TeamID: 1, RequestedBy: 1, LeagueID: uptr(2), PlayerIDs: []uint{1}}},
		{"ребрендинг без имени", ds.ChangeRequest{RequestType: ds.TypeTeamRebrand, TeamID: 1, RequestedBy: 1}},
		{"игровой ID без платформы", ds.ChangeRequest{RequestType: ds.TypeOnlineIDChange, TeamID: 1, RequestedBy: 1, PlayerID: uptr(5), NewOnlineID: sptr("gamer")}},
		{"игровой ID с чужой платформой", ds.ChangeRequest{RequestType: ds.TypeOnlineIDChange, TeamID: 1, RequestedBy: 1, PlayerID: uptr(5), NewOnlineID: sptr("gamer"), Platform: sptr("wii")}},
		{"создание без имени", ds.ChangeRequest{RequestType: ds.TypeTeamCreation, RequestedBy: 1, CaptainID: uptr(1)}},
		{"неизвестный тип", ds.ChangeRequest{RequestType: "team_merge", TeamID: 1, RequestedBy: 1}},
		{"оплата без суммы", ds.ChangeRequest{RequestType: ds.TypeTeamTransfer, TeamID: 1, RequestedBy: 1, NewCaptainID: uptr(2), RequiresPayment: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _, store, _, _ := newTestEngine()

			var pay *PaymentData
			if tc.draft.RequiresPayment {
				pay = &PaymentData{}
			}

			draft := tc.draft
			_, err := svc.Submit(context.Background(), &draft, pay)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Zero(t, store.requestCount(), "после ошибки валидации записей быть не должно")
		})
	}
}

// Ребрендинг без оплаты доходит до completed за один вызов Submit
func TestSubmitRebrandWithoutPayment(t *testing.T) {
	svc, _, _, store, teams, _ := newTestEngine()

	result, err := svc.Submit(context.Background(), &ds.ChangeRequest{
		RequestType: ds.TypeTeamRebrand,
		TeamID:      10,
		RequestedBy: 3,
		NewName:     sptr("Ночные Волки"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, ds.StatusCompleted, result.Status)

	req := store.getRequest(result.RequestID)
	require.NotNil(t, req)
	assert.Equal(t, ds.StatusCompleted, req.Status)
	assert.NotNil(t, req.ProcessedAt)
	require.NotNil(t, req.Result)
	assert.Contains(t, *req.Result, "Ночные Волки")

	assert.Equal(t, 1, teams.renameCalls)
	assert.Zero(t, store.paymentCount(), "платеж для бесплатной заявки не создается")
}

// Оплата с платежным токеном списывается синхронно, заявка исполняется сразу
func TestSubmitWithSourceCharges(t *testing.T) {
	svc, _, _, store, teams, charger := newTestEngine()

	result, err := svc.Submit(context.Background(), &ds.ChangeRequest{
		RequestType:     ds.TypeTeamTransfer,
		TeamID:          10,
		RequestedBy:     3,
		NewCaptainID:    uptr(7),
		RequiresPayment: true,
	}, &PaymentData{Amount: 25.00, SourceID: "cnon:card-nonce"})
	require.NoError(t, err)
	assert.Equal(t, ds.StatusCompleted, result.Status)
	assert.Equal(t, 1, teams.totalTransfers())

	require.Equal(t, 1, charger.callCount())
	params := charger.calls[0]
	assert.True(t, strings.HasPrefix(params.ReferenceID, "tcr1"), "reference несет закодированный ID заявки")
	assert.NotEmpty(t, params.IdempotencyKey)

	req := store.getRequest(result.RequestID)
	require.NotNil(t, req.PaymentID)
	payment, err := store.GetPaymentByProviderID(context.Background(), "sq-1")
	require.NoError(t, err)
	assert.Equal(t, result.RequestID, payment.RequestID)
}

// Отказ провайдера: заявка в payment_failed, ошибка возвращается синхронно
func TestSubmitChargeDeclined(t *testing.T) {
	svc, _, _, store, teams, charger := newTestEngine()
	charger.err = errors.New("square: CARD_DECLINED: Card declined")

	_, err := svc.Submit(context.Background(), &ds.ChangeRequest{
		RequestType:     ds.TypeTeamTransfer,
		TeamID:          10,
		RequestedBy:     3,
		NewCaptainID:    uptr(7),
		RequiresPayment: true,
	}, &PaymentData{Amount: 25.00, SourceID: "cnon:card-nonce"})
	require.Error(t, err)
	assert.True(t, IsPaymentError(err))
	assert.Zero(t, teams.totalTransfers(), "действие при неоплаченной заявке не исполняется")

	require.Equal(t, 1, store.requestCount())
	var req *ds.ChangeRequest
	for id := range store.requests {
		req = store.getRequest(id)
	}
	assert.Equal(t, ds.StatusPaymentFailed, req.Status)
	require.NotNil(t, req.LastError)
	assert.Contains(t, *req.LastError, "CARD_DECLINED")
	assert.Equal(t, 1, req.ProcessingAttempts)
}

// Повтор с тем же ключом идемпотентности не создает ни второй заявки,
// ни второго списания
func TestSubmitIdempotencyKeyReuse(t *testing.T) {
	svc, _, _, store, _, charger := newTestEngine()

	draft := func() *ds.ChangeRequest {
		return &ds.ChangeRequest{
			RequestType:     ds.TypeTeamTransfer,
			TeamID:          10,
			RequestedBy:     3,
			NewCaptainID:    uptr(7),
			RequiresPayment: true,
		}
	}
	pay := &PaymentData{Amount: 25.00, SourceID: "cnon:card-nonce", IdempotencyKey: "retry-key-1"}

	first, err := svc.Submit(context.Background(), draft(), pay)
	require.NoError(t, err)

	second, err := svc.Submit(context.Background(), draft(), pay)
	require.NoError(t, err)

	assert.Equal(t, first.RequestID, second.RequestID)
	assert.Equal(t, 1, charger.callCount(), "провайдер видит ровно одно списание")
	assert.Equal(t, 1, store.requestCount())
	assert.Equal(t, 1, store.paymentCount())
}

// Без платежного токена заявка остается ждать оплаты по внешней ссылке
func TestSubmitWithoutSource(t *testing.T) {
	svc, _, _, store, teams, charger := newTestEngine()

	result, err := svc.Submit(context.Background(), &ds.ChangeRequest{
		RequestType:     ds.TypeTournamentRegistration,
		TeamID:          10,
		RequestedBy:     3,
		TournamentID:    uptr(5),
		PlayerIDs:       []uint{1, 2, 3},
		RequiresPayment: true,
	}, &PaymentData{Amount: 50.00})
	require.NoError(t, err)

	assert.Equal(t, ds.StatusPaymentPending, result.Status)
	require.NotNil(t, result.PaymentURL)
	assert.Contains(t, *result.PaymentURL, "tcr1")
	assert.Zero(t, charger.callCount())
	assert.Zero(t, teams.tourRegCalls)

	req := store.getRequest(result.RequestID)
	assert.Equal(t, ds.StatusPaymentPending, req.Status)
	require.NotNil(t, req.PaymentID)
	assert.Equal(t, 1, store.paymentCount())
}
