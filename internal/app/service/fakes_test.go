package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/payments"
)

// Хранилище в памяти для заявок и платежей, повторяет семантику репозитория:
// условные обновления атомарны, отсутствующая строка дает false без ошибки

type memStore struct {
	mu       sync.Mutex
	requests map[string]*ds.ChangeRequest
	payments map[string]*ds.Payment
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[string]*ds.ChangeRequest),
		payments: make(map[string]*ds.Payment),
	}
}

func (m *memStore) CreateRequest(_ context.Context, req *ds.ChangeRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.requests[req.ID]; exists {
		return errors.New("duplicate key")
	}
	cp := *req
	cp.CreatedAt = time.Now()
	m.requests[req.ID] = &cp
	return nil
}

func (m *memStore) GetRequest(_ context.Context, id string) (*ds.ChangeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, errors.New("заявка не найдена")
	}
	cp := *req
	return &cp, nil
}

func (m *memStore) ListTeamRequests(_ context.Context, teamID uint, status string) ([]ds.ChangeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ds.ChangeRequest
	for _, req := range m.requests {
		if req.TeamID == teamID && (status == "" || req.Status == status) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *memStore) TransitionRequest(_ context.Context, id string, from []string, updates map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || !contains(from, req.Status) {
		return false, nil
	}
	for key, value := range updates {
		switch key {
		case "status":
			req.Status = value.(string)
		case "payment_id":
			s := value.(string)
			req.PaymentID = &s
		case "result":
			s := value.(string)
			req.Result = &s
		case "processed_at":
			t := value.(time.Time)
			req.ProcessedAt = &t
		}
	}
	req.UpdatedAt = time.Now()
	return true, nil
}

func (m *memStore) RecordRequestFailure(_ context.Context, id string, from []string, toStatus, errMsg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok || !contains(from, req.Status) {
		return false, nil
	}
	req.Status = toStatus
	req.LastError = &errMsg
	req.ProcessingAttempts++
	req.UpdatedAt = time.Now()
	return true, nil
}

func (m *memStore) CreatePayment(_ context.Context, payment *ds.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == payment.IdempotencyKey {
			return errors.New("duplicate idempotency key")
		}
	}
	cp := *payment
	m.payments[payment.ID] = &cp
	return nil
}

func (m *memStore) GetPaymentByIdempotencyKey(_ context.Context, key string) (*ds.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("платеж не найден")
}

func (m *memStore) GetPaymentByProviderID(_ context.Context, providerPaymentID string) (*ds.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ProviderPaymentID != nil && *p.ProviderPaymentID == providerPaymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("платеж не найден")
}

func (m *memStore) MarkPaymentAccepted(_ context.Context, id, providerPaymentID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		p.ProviderPaymentID = &providerPaymentID
		p.Status = status
	}
	return nil
}

func (m *memStore) MarkPaymentFailed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		p.Status = ds.PaymentStatusFailed
	}
	return nil
}

func (m *memStore) SettlePayment(_ context.Context, providerPaymentID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ProviderPaymentID != nil && *p.ProviderPaymentID == providerPaymentID {
			p.Status = status
		}
	}
	return nil
}

func (m *memStore) getRequest(id string) *ds.ChangeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[id]; ok {
		cp := *req
		return &cp
	}
	return nil
}

func (m *memStore) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *memStore) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

// fakeTeams считает вызовы каждого действия

type fakeTeams struct {
	mu            sync.Mutex
	failWith      error
	transferCalls int
	renameCalls   int
	upsertCalls   int
	removeCalls   int
	roleCalls     int
	onlineIDCalls int
	createCalls   int
	tourRegCalls  int
	leagueCalls   int
}

func (f *fakeTeams) call(counter *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	*counter++
	return nil
}

func (f *fakeTeams) TransferTeamOwnership(_ context.Context, _, _ uint) error {
	return f.call(&f.transferCalls)
}

func (f *fakeTeams) RenameTeam(_ context.Context, _ uint, _ string, _ *string) error {
	return f.call(&f.renameCalls)
}

func (f *fakeTeams) UpsertTeamPlayer(_ context.Context, _, _ uint, _ string) error {
	return f.call(&f.upsertCalls)
}

func (f *fakeTeams) RemoveTeamPlayer(_ context.Context, _, _ uint) error {
	return f.call(&f.removeCalls)
}

func (f *fakeTeams) UpdateTeamPlayerRole(_ context.Context, _, _ uint, _ string) error {
	return f.call(&f.roleCalls)
}

func (f *fakeTeams) UpdatePlayerOnlineID(_ context.Context, _ uint, _, _ string) error {
	return f.call(&f.onlineIDCalls)
}

func (f *fakeTeams) CreateTeamWithCaptain(_ context.Context, team *ds.Team) error {
	if err := f.call(&f.createCalls); err != nil {
		return err
	}
	team.ID = 42
	return nil
}

func (f *fakeTeams) RegisterTeamForTournament(_ context.Context, _, _ uint, _ []uint) (uint, error) {
	if err := f.call(&f.tourRegCalls); err != nil {
		return 0, err
	}
	return 7, nil
}

func (f *fakeTeams) RegisterTeamForLeague(_ context.Context, _, _ uint, _ int, _ []uint) (uint, error) {
	if err := f.call(&f.leagueCalls); err != nil {
		return 0, err
	}
	return 8, nil
}

func (f *fakeTeams) totalTransfers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transferCalls
}

// fakeCharger отдает заранее настроенный результат и запоминает параметры

type fakeCharger struct {
	mu     sync.Mutex
	result *payments.PaymentResult
	err    error
	calls  []payments.CreatePaymentParams
}

func (f *fakeCharger) CreatePayment(_ context.Context, params payments.CreatePaymentParams) (*payments.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &payments.PaymentResult{
		ProviderPaymentID: fmt.Sprintf("sq-%d", len(f.calls)),
		Status:            ds.PaymentStatusCompleted,
		AmountCents:       payments.ToCents(params.Amount),
		Currency:          params.Currency,
	}, nil
}

func (f *fakeCharger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeVerifier struct {
	accept bool
}

func (f *fakeVerifier) VerifySignature(_ []byte, _ string) bool {
	return f.accept
}

// newTestEngine собирает движок на фейках
func newTestEngine() (*RequestService, *WebhookService, *Dispatcher, *memStore, *fakeTeams, *fakeCharger) {
	store := newMemStore()
	teams := &fakeTeams{}
	charger := &fakeCharger{}
	dispatcher := NewDispatcher(store, teams)
	svc := NewRequestService(store, store, charger, dispatcher, "https://pay.example.com/checkout")
	webhooks := NewWebhookService(store, store, dispatcher, &fakeVerifier{accept: true})
	return svc, webhooks, dispatcher, store, teams, charger
}

func uptr(v uint) *uint     { return &v }
func sptr(v string) *string { return &v }
func iptr(v int) *int       { return &v }
