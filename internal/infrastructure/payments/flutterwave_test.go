package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlutterwaveVerifyWebhookSignature(t *testing.T) {
	f := NewFlutterwave("sk_test", "my-secret-hash")

	assert.True(t, f.VerifyWebhookSignature(nil, "my-secret-hash"))
	assert.False(t, f.VerifyWebhookSignature(nil, "another-hash"))
	assert.False(t, f.VerifyWebhookSignature(nil, ""))

	unconfigured := NewFlutterwave("sk_test", "")
	assert.False(t, unconfigured.VerifyWebhookSignature(nil, ""))
}

func TestFlutterwaveParseWebhook(t *testing.T) {
	f := NewFlutterwave("sk", "hash")

	event, err := f.ParseWebhook([]byte(`{
		"event": "charge.completed",
		"data": {
			"tx_ref": "tx-1",
			"meta": {"transaction_id": "tx-1", "user_id": "user-1"}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "charge.completed", event.Event)
	assert.Equal(t, "tx-1", event.Reference)
	assert.Equal(t, "user-1", event.UserID)
}

func TestFlutterwaveInitializePayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/payments", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tx-1", req["tx_ref"])
		assert.Equal(t, "101.8", req["amount"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data":   map[string]string{"link": "https://checkout.flutterwave.com/abc"},
		})
	}))
	defer server.Close()

	f := NewFlutterwave("sk_test", "hash")
	f.BaseURL = server.URL

	session, err := f.InitializePayment(context.Background(), PaymentRequest{
		TransactionID: "tx-1",
		UserID:        "user-1",
		Amount:        decimal.RequireFromString("101.8"),
		Currency:      "GHS",
		Email:         "payer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/abc", session.PaymentURL)
	assert.Equal(t, "tx-1", session.Reference)
}

func TestFlutterwaveVerifyPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/transactions/verify_by_reference", r.URL.Path)
		assert.Equal(t, "tx-1", r.URL.Query().Get("tx_ref"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"status":  "successful",
				"amount":  101.8,
				"app_fee": 1.8,
				"tx_ref":  "tx-1",
				"meta":    map[string]string{"transaction_id": "tx-1", "user_id": "user-1"},
			},
		})
	}))
	defer server.Close()

	f := NewFlutterwave("sk_test", "hash")
	f.BaseURL = server.URL

	verification, err := f.VerifyPayment(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "successful", verification.Status)
	assert.Equal(t, "101.80", verification.Amount.StringFixed(2))
	assert.Equal(t, "1.80", verification.Fee.StringFixed(2))

	t.Run("error envelope surfaces the message", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "error",
				"message": "No transaction was found for this id",
			})
		}))
		defer failing.Close()

		f.BaseURL = failing.URL
		_, err := f.VerifyPayment(context.Background(), "missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "No transaction was found")
	})
}
