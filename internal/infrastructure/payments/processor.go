// Package payments wraps the external payment gateways behind a single
// Processor interface. Adapters only talk to the network; they never touch
// the transaction store.
package payments

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindPaystack    Kind = "paystack"
	KindFlutterwave Kind = "flutterwave"
	KindStripe      Kind = "stripe"
	KindMpesa       Kind = "mpesa"
)

// KindForProvider resolves a payment-method provider id to its processor.
// The mapping happens once, at deposit initiation; the resolved kind is
// persisted with the transaction instead of being re-derived per call.
func KindForProvider(providerID string) (Kind, bool) {
	switch {
	case strings.HasPrefix(providerID, "paystack_"):
		return KindPaystack, true
	case strings.Contains(providerID, "flutterwave"):
		return KindFlutterwave, true
	case providerID == "stripe_us":
		return KindStripe, true
	case providerID == "mpesa_ke":
		return KindMpesa, true
	}
	return "", false
}

// PaymentRequest carries everything an adapter needs to begin an
// out-of-band payment. TransactionID and UserID are embedded into the
// processor-side metadata so the webhook can correlate the callback later.
type PaymentRequest struct {
	TransactionID string
	UserID        string
	Amount        decimal.Decimal
	Currency      string
	Email         string
	Phone         string
	CallbackURL   string
}

// PaymentSession is the processor's handle for an initialized payment.
// Exactly one of PaymentURL or ClientSecret is set, depending on how the
// processor hands control back to the payer.
type PaymentSession struct {
	PaymentURL   string
	ClientSecret string
	Reference    string
}

// Verification is the processor's authoritative view of a payment, fetched
// server-side. Webhook bodies are never trusted on their own.
type Verification struct {
	Reference     string
	Status        string
	Amount        decimal.Decimal
	Fee           decimal.Decimal
	TransactionID string
	UserID        string
}

// WebhookEvent is the correlation data extracted from a processor callback
// body after its signature has been verified.
type WebhookEvent struct {
	Event         string
	Reference     string
	TransactionID string
	UserID        string

	// M-Pesa only: 0 means success, anything else is a failure with the
	// description carried alongside.
	ResultCode int
	ResultDesc string
}

type Processor interface {
	Kind() Kind

	// InitializePayment begins an out-of-band payment. A nil session with a
	// non-nil error is a soft failure; callers fall back to a
	// verification-pending response rather than aborting the transaction.
	InitializePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error)

	// VerifyPayment re-queries the processor for the authoritative status
	// of a reference.
	VerifyPayment(ctx context.Context, reference string) (*Verification, error)

	// VerifyWebhookSignature validates an inbound callback before any of
	// its fields are trusted.
	VerifyWebhookSignature(body []byte, signature string) bool

	// ParseWebhook extracts correlation data from a callback body. It must
	// only be called after the signature check passed.
	ParseWebhook(body []byte) (*WebhookEvent, error)
}
