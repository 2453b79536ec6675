package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"backend/internal/app/config"

	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{0, 0},
		{25, 2500},
		{9.99, 999},
		{10.555, 1056}, // половина — от нуля
		{0.005, 1},
		{149.994999, 14999},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, ToCents(c.amount), "amount=%v", c.amount)
	}
}

func testClient() *Client {
	return NewClient(config.SquareConfig{
		AccessToken:     "token",
		LocationID:      "L123",
		Environment:     "sandbox",
		SignatureKey:    "signature-key",
		NotificationURL: "https://example.com/api/webhook/square",
		Timeout:         time.Second,
	})
}

func signBody(key, url string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(url))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := testClient()
	body := []byte(`{"type":"payment.updated"}`)

	good := signBody("signature-key", "https://example.com/api/webhook/square", body)
	assert.True(t, c.VerifySignature(body, good))

	// подпись другим ключом
	bad := signBody("other-key", "https://example.com/api/webhook/square", body)
	assert.False(t, c.VerifySignature(body, bad))

	// подпись другого тела
	assert.False(t, c.VerifySignature([]byte(`{"type":"payment.created"}`), good))

	assert.False(t, c.VerifySignature(body, ""))
	assert.False(t, c.VerifySignature(body, "garbage"))
}
