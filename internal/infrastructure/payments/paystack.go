package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/pkg/log"
)

const paystackDefaultBaseURL = "https://api.paystack.co"

type Paystack struct {
	BaseURL   string
	secretKey string
	client    *http.Client
	logger    *zerolog.Logger
}

func NewPaystack(secretKey string) *Paystack {
	l := log.GetLogger()
	return &Paystack{
		BaseURL:   paystackDefaultBaseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    &l,
	}
}

func (p *Paystack) Kind() Kind {
	return KindPaystack
}

type paystackInitRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializePayment begins a Paystack checkout. Paystack amounts are in
// subunits (kobo/cents).
func (p *Paystack) InitializePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	body, err := json.Marshal(paystackInitRequest{
		Email:       req.Email,
		Amount:      req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata: map[string]string{
			"transaction_id": req.TransactionID,
			"user_id":        req.UserID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal init request: %w", err)
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err = p.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}

	return &PaymentSession{PaymentURL: data.AuthorizationURL, Reference: data.Reference}, nil
}

// VerifyPayment re-queries Paystack for the authoritative payment state.
func (p *Paystack) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	var data struct {
		Status   string          `json:"status"`
		Amount   decimal.Decimal `json:"amount"`
		Fees     decimal.Decimal `json:"fees"`
		Metadata struct {
			TransactionID string `json:"transaction_id"`
			UserID        string `json:"user_id"`
		} `json:"metadata"`
	}
	if err := p.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &data); err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	return &Verification{
		Reference:     reference,
		Status:        data.Status,
		Amount:        data.Amount.Div(hundred),
		Fee:           data.Fees.Div(hundred),
		TransactionID: data.Metadata.TransactionID,
		UserID:        data.Metadata.UserID,
	}, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header: a hex
// HMAC-SHA512 of the raw body keyed with the secret key.
func (p *Paystack) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" || p.secretKey == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (p *Paystack) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Event string `json:"event"`
		Data  struct {
			Reference string `json:"reference"`
			Metadata  struct {
				TransactionID string `json:"transaction_id"`
				UserID        string `json:"user_id"`
			} `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse webhook body: %w", err)
	}

	return &WebhookEvent{
		Event:         payload.Event,
		Reference:     payload.Data.Reference,
		TransactionID: payload.Data.Metadata.TransactionID,
		UserID:        payload.Data.Metadata.UserID,
	}, nil
}

func (p *Paystack) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request: %w", err)
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err = json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode paystack response: %w", err)
	}

	if resp.StatusCode >= 300 || !envelope.Status {
		p.logger.Error().Int("status", resp.StatusCode).Str("message", envelope.Message).Msg("paystack call failed")
		return fmt.Errorf("paystack call failed: %s", envelope.Message)
	}

	if out != nil {
		if err = json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode paystack data: %w", err)
		}
	}
	return nil
}
