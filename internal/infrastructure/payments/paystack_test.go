package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paystackSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackVerifyWebhookSignature(t *testing.T) {
	p := NewPaystack("sk_test_secret")
	body := []byte(`{"event":"charge.success"}`)

	assert.True(t, p.VerifyWebhookSignature(body, paystackSignature("sk_test_secret", body)))
	assert.False(t, p.VerifyWebhookSignature(body, paystackSignature("wrong_secret", body)))
	assert.False(t, p.VerifyWebhookSignature(body, ""))
	assert.False(t, p.VerifyWebhookSignature([]byte(`tampered`), paystackSignature("sk_test_secret", body)))

	unconfigured := NewPaystack("")
	assert.False(t, unconfigured.VerifyWebhookSignature(body, paystackSignature("", body)))
}

func TestPaystackParseWebhook(t *testing.T) {
	p := NewPaystack("sk")

	event, err := p.ParseWebhook([]byte(`{
		"event": "charge.success",
		"data": {
			"reference": "ps-ref-1",
			"metadata": {"transaction_id": "tx-1", "user_id": "user-1"}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "charge.success", event.Event)
	assert.Equal(t, "ps-ref-1", event.Reference)
	assert.Equal(t, "tx-1", event.TransactionID)
	assert.Equal(t, "user-1", event.UserID)

	_, err = p.ParseWebhook([]byte(`{not json`))
	assert.Error(t, err)
}

func TestPaystackInitializePayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// 101.50 in subunits
		assert.Equal(t, float64(10150), req["amount"])
		assert.Equal(t, "payer@example.com", req["email"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.com/abc",
				"reference":         "ps-ref-9",
			},
		})
	}))
	defer server.Close()

	p := NewPaystack("sk_test")
	p.BaseURL = server.URL

	session, err := p.InitializePayment(context.Background(), PaymentRequest{
		TransactionID: "tx-1",
		UserID:        "user-1",
		Amount:        decimal.RequireFromString("101.50"),
		Currency:      "NGN",
		Email:         "payer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", session.PaymentURL)
	assert.Equal(t, "ps-ref-9", session.Reference)
}

func TestPaystackVerifyPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ps-ref-9", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true,
			"data": map[string]interface{}{
				"status":   "success",
				"amount":   10150,
				"fees":     150,
				"metadata": map[string]string{"transaction_id": "tx-1", "user_id": "user-1"},
			},
		})
	}))
	defer server.Close()

	p := NewPaystack("sk_test")
	p.BaseURL = server.URL

	verification, err := p.VerifyPayment(context.Background(), "ps-ref-9")
	require.NoError(t, err)
	assert.Equal(t, "success", verification.Status)
	assert.Equal(t, "101.50", verification.Amount.StringFixed(2))
	assert.Equal(t, "1.50", verification.Fee.StringFixed(2))
	assert.Equal(t, "tx-1", verification.TransactionID)
}

func TestPaystackAPIErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer server.Close()

	p := NewPaystack("bad_key")
	p.BaseURL = server.URL

	_, err := p.VerifyPayment(context.Background(), "ps-ref-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}
