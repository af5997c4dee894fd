// Package fees holds the deposit and withdrawal fee schedule. All lookups
// are pure and deterministic; unknown providers fall through to a zero fee.
package fees

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/internal/domain/models"
)

// Quote is the fee and the cosmetic processing-time estimate for a
// transaction. The estimate is a fixed label per provider, not a
// measurement.
type Quote struct {
	Fee            decimal.Decimal
	ProcessingTime string
}

var (
	paystackRate    = decimal.NewFromFloat(0.015)
	flutterwaveRate = decimal.NewFromFloat(0.018)
	stripeRate      = decimal.NewFromFloat(0.029)
	stripeFixed     = decimal.NewFromFloat(0.30)

	bankAccountRate = decimal.NewFromFloat(0.01)
	mobileMoneyRate = decimal.NewFromFloat(0.015)
)

// DepositQuote returns the fee charged on top of a deposit for the given
// payment-method provider id.
func DepositQuote(providerID string, amount decimal.Decimal) Quote {
	switch {
	case strings.HasPrefix(providerID, "paystack_"):
		return Quote{Fee: amount.Mul(paystackRate).Round(2), ProcessingTime: "instant"}
	case strings.Contains(providerID, "flutterwave"):
		return Quote{Fee: amount.Mul(flutterwaveRate).Round(2), ProcessingTime: "1-5 minutes"}
	case providerID == "stripe_us":
		return Quote{Fee: amount.Mul(stripeRate).Add(stripeFixed).Round(2), ProcessingTime: "instant"}
	case providerID == "mpesa_ke":
		return Quote{Fee: decimal.Zero, ProcessingTime: "instant"}
	default:
		return Quote{Fee: decimal.Zero, ProcessingTime: "varies by provider"}
	}
}

// WithdrawalQuote returns the fee deducted from a withdrawal for the given
// recipient type.
func WithdrawalQuote(recipientType models.RecipientType, amount decimal.Decimal) Quote {
	switch recipientType {
	case models.RecipientUsername:
		return Quote{Fee: decimal.Zero, ProcessingTime: "instant"}
	case models.RecipientEmail:
		return Quote{Fee: decimal.Zero, ProcessingTime: "5-10 minutes"}
	case models.RecipientBankAccount:
		return Quote{Fee: amount.Mul(bankAccountRate).Round(2), ProcessingTime: "1-3 business days"}
	case models.RecipientMobileMoney:
		return Quote{Fee: amount.Mul(mobileMoneyRate).Round(2), ProcessingTime: "5-30 minutes"}
	default:
		return Quote{Fee: decimal.Zero, ProcessingTime: "varies by recipient"}
	}
}
