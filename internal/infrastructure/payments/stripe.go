package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/pkg/log"
)

const (
	stripeDefaultBaseURL = "https://api.stripe.com"

	// stripeSignatureTolerance bounds how old a signed webhook timestamp
	// may be before the delivery is rejected as a replay.
	stripeSignatureTolerance = 5 * time.Minute
)

type Stripe struct {
	BaseURL       string
	secretKey     string
	webhookSecret string
	client        *http.Client
	logger        *zerolog.Logger

	// now is swappable in tests to pin the signature tolerance window.
	now func() time.Time
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	l := log.GetLogger()
	return &Stripe{
		BaseURL:       stripeDefaultBaseURL,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: 15 * time.Second},
		logger:        &l,
		now:           time.Now,
	}
}

func (s *Stripe) Kind() Kind {
	return KindStripe
}

// InitializePayment creates a PaymentIntent. Stripe's API is form-encoded
// and amounts are in cents.
func (s *Stripe) InitializePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount.Mul(decimal.NewFromInt(100)).IntPart(), 10))
	form.Set("currency", strings.ToLower(req.Currency))
	if req.Email != "" {
		form.Set("receipt_email", req.Email)
	}
	form.Set("metadata[transaction_id]", req.TransactionID)
	form.Set("metadata[user_id]", req.UserID)

	var data struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := s.do(ctx, http.MethodPost, "/v1/payment_intents", form, &data); err != nil {
		return nil, err
	}

	return &PaymentSession{ClientSecret: data.ClientSecret, Reference: data.ID}, nil
}

func (s *Stripe) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	var data struct {
		ID       string          `json:"id"`
		Status   string          `json:"status"`
		Amount   decimal.Decimal `json:"amount"`
		Metadata struct {
			TransactionID string `json:"transaction_id"`
			UserID        string `json:"user_id"`
		} `json:"metadata"`
	}
	if err := s.do(ctx, http.MethodGet, "/v1/payment_intents/"+reference, nil, &data); err != nil {
		return nil, err
	}

	return &Verification{
		Reference:     data.ID,
		Status:        data.Status,
		Amount:        data.Amount.Div(decimal.NewFromInt(100)),
		TransactionID: data.Metadata.TransactionID,
		UserID:        data.Metadata.UserID,
	}, nil
}

// VerifyWebhookSignature implements Stripe's signing scheme: the
// stripe-signature header carries "t=<unix>,v1=<hex hmac>[,v1=…]" where the
// HMAC-SHA256 is computed over "<t>.<raw body>" with the webhook secret.
func (s *Stripe) VerifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" || s.webhookSecret == "" {
		return false
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signature, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := s.now().Sub(time.Unix(ts, 0))
	if age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return true
		}
	}
	return false
}

func (s *Stripe) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string `json:"id"`
				Metadata struct {
					TransactionID string `json:"transaction_id"`
					UserID        string `json:"user_id"`
				} `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse webhook body: %w", err)
	}

	return &WebhookEvent{
		Event:         payload.Type,
		Reference:     payload.Data.Object.ID,
		TransactionID: payload.Data.Object.Metadata.TransactionID,
		UserID:        payload.Data.Object.Metadata.UserID,
	}, nil
}

func (s *Stripe) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		s.logger.Error().Int("status", resp.StatusCode).Str("message", apiErr.Error.Message).Msg("stripe call failed")
		return fmt.Errorf("stripe call failed: %s", apiErr.Error.Message)
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode stripe response: %w", err)
		}
	}
	return nil
}
