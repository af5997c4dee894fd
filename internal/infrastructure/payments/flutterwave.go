package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/pkg/log"
)

const flutterwaveDefaultBaseURL = "https://api.flutterwave.com"

type Flutterwave struct {
	BaseURL    string
	secretKey  string
	secretHash string
	client     *http.Client
	logger     *zerolog.Logger
}

func NewFlutterwave(secretKey, secretHash string) *Flutterwave {
	l := log.GetLogger()
	return &Flutterwave{
		BaseURL:    flutterwaveDefaultBaseURL,
		secretKey:  secretKey,
		secretHash: secretHash,
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     &l,
	}
}

func (f *Flutterwave) Kind() Kind {
	return KindFlutterwave
}

type flutterwaveEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *Flutterwave) InitializePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	payload := map[string]interface{}{
		"tx_ref":       req.TransactionID,
		"amount":       req.Amount.String(),
		"currency":     req.Currency,
		"redirect_url": req.CallbackURL,
		"customer": map[string]string{
			"email": req.Email,
		},
		"meta": map[string]string{
			"transaction_id": req.TransactionID,
			"user_id":        req.UserID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal init request: %w", err)
	}

	var data struct {
		Link string `json:"link"`
	}
	if err = f.do(ctx, http.MethodPost, "/v3/payments", body, &data); err != nil {
		return nil, err
	}

	return &PaymentSession{PaymentURL: data.Link, Reference: req.TransactionID}, nil
}

func (f *Flutterwave) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	path := "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)

	var data struct {
		Status string          `json:"status"`
		Amount decimal.Decimal `json:"amount"`
		AppFee decimal.Decimal `json:"app_fee"`
		TxRef  string          `json:"tx_ref"`
		Meta   struct {
			TransactionID string `json:"transaction_id"`
			UserID        string `json:"user_id"`
		} `json:"meta"`
	}
	if err := f.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}

	return &Verification{
		Reference:     data.TxRef,
		Status:        data.Status,
		Amount:        data.Amount,
		Fee:           data.AppFee,
		TransactionID: data.Meta.TransactionID,
		UserID:        data.Meta.UserID,
	}, nil
}

// VerifyWebhookSignature checks the verif-hash header against the
// configured secret hash. Flutterwave sends the shared hash verbatim, so
// the comparison is constant-time equality.
func (f *Flutterwave) VerifyWebhookSignature(_ []byte, signature string) bool {
	if signature == "" || f.secretHash == "" {
		return false
	}
	return hmac.Equal([]byte(f.secretHash), []byte(signature))
}

func (f *Flutterwave) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			TxRef string `json:"tx_ref"`
			Meta  struct {
				TransactionID string `json:"transaction_id"`
				UserID        string `json:"user_id"`
			} `json:"meta"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse webhook body: %w", err)
	}

	return &WebhookEvent{
		Event:         payload.Event,
		Reference:     payload.Data.TxRef,
		TransactionID: payload.Data.Meta.TransactionID,
		UserID:        payload.Data.Meta.UserID,
	}, nil
}

func (f *Flutterwave) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, f.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("flutterwave request: %w", err)
	}
	defer resp.Body.Close()

	var envelope flutterwaveEnvelope
	if err = json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode flutterwave response: %w", err)
	}

	if resp.StatusCode >= 300 || envelope.Status != "success" {
		f.logger.Error().Int("status", resp.StatusCode).Str("message", envelope.Message).Msg("flutterwave call failed")
		return fmt.Errorf("flutterwave call failed: %s", envelope.Message)
	}

	if out != nil {
		if err = json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode flutterwave data: %w", err)
		}
	}
	return nil
}
