package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/pkg/log"
)

const mpesaDefaultBaseURL = "https://sandbox.safaricom.co.ke"

// Mpesa drives the Daraja STK push flow. M-Pesa callbacks carry no
// signature header; authenticity rests on the callback URL staying secret
// and on the server-side STK query before any state change.
type Mpesa struct {
	BaseURL        string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	client         *http.Client
	logger         *zerolog.Logger
	now            func() time.Time
}

func NewMpesa(consumerKey, consumerSecret, shortcode, passkey string) *Mpesa {
	l := log.GetLogger()
	return &Mpesa{
		BaseURL:        mpesaDefaultBaseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		shortcode:      shortcode,
		passkey:        passkey,
		client:         &http.Client{Timeout: 15 * time.Second},
		logger:         &l,
		now:            time.Now,
	}
}

func (m *Mpesa) Kind() Kind {
	return KindMpesa
}

func (m *Mpesa) InitializePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	token, err := m.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := m.now().Format("20060102150405")
	payload := map[string]interface{}{
		"BusinessShortCode": m.shortcode,
		"Password":          m.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            req.Amount.IntPart(),
		"PartyA":            req.Phone,
		"PartyB":            m.shortcode,
		"PhoneNumber":       req.Phone,
		"CallBackURL":       req.CallbackURL,
		"AccountReference":  req.TransactionID,
		"TransactionDesc":   "Wallet deposit",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal stk request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mpesa stk push: %w", err)
	}
	defer resp.Body.Close()

	var data struct {
		CheckoutRequestID string `json:"CheckoutRequestID"`
		ResponseCode      string `json:"ResponseCode"`
		ResponseDesc      string `json:"ResponseDescription"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode stk response: %w", err)
	}
	if resp.StatusCode >= 300 || data.ResponseCode != "0" {
		m.logger.Error().Int("status", resp.StatusCode).Str("desc", data.ResponseDesc).Msg("mpesa stk push failed")
		return nil, fmt.Errorf("mpesa stk push failed: %s", data.ResponseDesc)
	}

	// No redirect URL: the payer approves the push on their handset.
	return &PaymentSession{Reference: data.CheckoutRequestID}, nil
}

// VerifyPayment issues an STK query for the checkout request.
func (m *Mpesa) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	token, err := m.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := m.now().Format("20060102150405")
	payload := map[string]interface{}{
		"BusinessShortCode": m.shortcode,
		"Password":          m.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": reference,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal stk query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/mpesa/stkpushquery/v1/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mpesa stk query: %w", err)
	}
	defer resp.Body.Close()

	var data struct {
		ResultCode string `json:"ResultCode"`
		ResultDesc string `json:"ResultDesc"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode stk query response: %w", err)
	}

	status := "failed"
	if data.ResultCode == "0" {
		status = "success"
	}
	return &Verification{Reference: reference, Status: status}, nil
}

// VerifyWebhookSignature always passes: Daraja callbacks are unsigned. The
// lifecycle still re-queries the STK status before trusting the callback.
func (m *Mpesa) VerifyWebhookSignature(_ []byte, _ string) bool {
	return true
}

// ParseWebhook unwraps the Body.stkCallback envelope. Correlation ids are
// not echoed back by Daraja, so the caller supplies them from the tagged
// callback URL.
func (m *Mpesa) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload struct {
		Body struct {
			StkCallback struct {
				CheckoutRequestID string `json:"CheckoutRequestID"`
				ResultCode        int    `json:"ResultCode"`
				ResultDesc        string `json:"ResultDesc"`
			} `json:"stkCallback"`
		} `json:"Body"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse callback body: %w", err)
	}
	if payload.Body.StkCallback.CheckoutRequestID == "" {
		return nil, fmt.Errorf("callback body missing stkCallback")
	}

	return &WebhookEvent{
		Event:      "stkCallback",
		Reference:  payload.Body.StkCallback.CheckoutRequestID,
		ResultCode: payload.Body.StkCallback.ResultCode,
		ResultDesc: payload.Body.StkCallback.ResultDesc,
	}, nil
}

func (m *Mpesa) stkPassword(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(m.shortcode + m.passkey + timestamp))
}

func (m *Mpesa) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(m.consumerKey, m.consumerSecret)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mpesa token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("mpesa token request failed: status %d", resp.StatusCode)
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	return data.AccessToken, nil
}
