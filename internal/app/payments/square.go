package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"backend/internal/app/config"

	"github.com/sirupsen/logrus"
)

const (
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	productionBaseURL = "https://connect.squareup.com"
)

// Client — клиент Square Payments API
type Client struct {
	httpClient      *http.Client
	baseURL         string
	accessToken     string
	locationID      string
	signatureKey    string
	notificationURL string
}

func NewClient(cfg config.SquareConfig) *Client {
	baseURL := sandboxBaseURL
	if cfg.Environment == "production" {
		baseURL = productionBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         baseURL,
		accessToken:     cfg.AccessToken,
		locationID:      cfg.LocationID,
		signatureKey:    cfg.SignatureKey,
		notificationURL: cfg.NotificationURL,
	}
}

// CreatePaymentParams — параметры создания платежа.
// Amount в долларах; в центы переводим только здесь.
type CreatePaymentParams struct {
	SourceID       string
	Amount         float64
	Currency       string
	IdempotencyKey string
	ReferenceID    string
	Note           string
}

// PaymentResult — принятый провайдером платеж
type PaymentResult struct {
	ProviderPaymentID string
	Status            string
	AmountCents       int64
	Currency          string
}

type amountMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createPaymentBody struct {
	SourceID       string      `json:"source_id"`
	AmountMoney    amountMoney `json:"amount_money"`
	IdempotencyKey string      `json:"idempotency_key"`
	LocationID     string      `json:"location_id"`
	ReferenceID    string      `json:"reference_id,omitempty"`
	Note           string      `json:"note,omitempty"`
}

type squareError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

type createPaymentResponse struct {
	Payment struct {
		ID          string      `json:"id"`
		Status      string      `json:"status"`
		AmountMoney amountMoney `json:"amount_money"`
	} `json:"payment"`
	Errors []squareError `json:"errors"`
}

// ToCents переводит сумму из долларов в центы.
// Округление half away from zero: 10.555 -> 1056.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreatePayment создает платеж в Square.
// IdempotencyKey передается провайдеру без изменений — повтор вызова с тем же
// ключом не создаст второе списание.
func (c *Client) CreatePayment(ctx context.Context, params CreatePaymentParams) (*PaymentResult, error) {
	currency := params.Currency
	if currency == "" {
		currency = "USD"
	}

	body := createPaymentBody{
		SourceID: params.SourceID,
		AmountMoney: amountMoney{
			Amount:   ToCents(params.Amount),
			Currency: currency,
		},
		IdempotencyKey: params.IdempotencyKey,
		LocationID:     c.locationID,
		ReferenceID:    params.ReferenceID,
		Note:           params.Note,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal payment body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("square request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read square response: %w", err)
	}

	var parsed createPaymentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse square response (http %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 || len(parsed.Errors) > 0 {
		detail := "payment declined"
		if len(parsed.Errors) > 0 {
			detail = fmt.Sprintf("%s: %s", parsed.Errors[0].Code, parsed.Errors[0].Detail)
		}
		logrus.Warnf("Square rejected payment (http %d): %s", resp.StatusCode, detail)
		return nil, fmt.Errorf("square: %s", detail)
	}

	logrus.Infof("Square payment created: %s (%s)", parsed.Payment.ID, parsed.Payment.Status)

	return &PaymentResult{
		ProviderPaymentID: parsed.Payment.ID,
		Status:            parsed.Payment.Status,
		AmountCents:       parsed.Payment.AmountMoney.Amount,
		Currency:          parsed.Payment.AmountMoney.Currency,
	}, nil
}

// VerifySignature проверяет подпись вебхука Square:
// base64(HMAC-SHA256(signature_key, notification_url + raw_body)).
// Это граница безопасности — вебхук с плохой подписью не должен трогать состояние.
func (c *Client) VerifySignature(rawBody []byte, signatureHeader string) bool {
	if c.signatureKey == "" || signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.signatureKey))
	mac.Write([]byte(c.notificationURL))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}
