package dtos

import (
	"encoding/json"
	"time"

	"github.com/veltmarket/wallet-service/internal/domain/models"
)

type DepositRequest struct {
	Amount           json.Number `json:"amount"`
	Method           string      `json:"method"`
	MethodProviderID string      `json:"methodProviderId"`
	Destination      string      `json:"destination"`
	CountryCode      string      `json:"countryCode"`
	Currency         string      `json:"currency"`
	Email            string      `json:"email"`
	Phone            string      `json:"phone"`
}

type DepositView struct {
	ID                      string `json:"id"`
	ReferenceID             string `json:"referenceId"`
	Amount                  string `json:"amount"`
	FeeAmount               string `json:"feeAmount"`
	AmountWithFee           string `json:"amountWithFee"`
	Currency                string `json:"currency"`
	Status                  string `json:"status"`
	EstimatedProcessingTime string `json:"estimatedProcessingTime"`
	PaymentURL              string `json:"paymentUrl,omitempty"`
	PaymentData             string `json:"paymentData,omitempty"`
	Message                 string `json:"message,omitempty"`
}

type DepositResponse struct {
	Success bool        `json:"success"`
	Deposit DepositView `json:"deposit"`
}

type WithdrawRequest struct {
	Amount            json.Number `json:"amount"`
	RecipientType     string      `json:"recipientType"`
	BankAccountID     string      `json:"bankAccountId"`
	RecipientUsername string      `json:"recipientUsername"`
	RecipientEmail    string      `json:"recipientEmail"`
	RecipientPhone    string      `json:"recipientPhone"`
	Currency          string      `json:"currency"`
	Description       string      `json:"description"`
}

type WithdrawalView struct {
	ID                      string `json:"id"`
	ReferenceID             string `json:"referenceId"`
	Amount                  string `json:"amount"`
	FeeAmount               string `json:"feeAmount"`
	NetAmount               string `json:"netAmount"`
	Currency                string `json:"currency"`
	Status                  string `json:"status"`
	EstimatedProcessingTime string `json:"estimatedProcessingTime,omitempty"`
	RequiresVerification    bool   `json:"requiresVerification,omitempty"`
	VerificationExpiresAt   string `json:"verificationExpiresAt,omitempty"`
}

type WithdrawResponse struct {
	Success    bool           `json:"success"`
	Withdrawal WithdrawalView `json:"withdrawal"`
}

type ConfirmWithdrawalRequest struct {
	WithdrawalID     string `json:"withdrawalId"`
	VerificationCode string `json:"verificationCode"`
}

type CancelWithdrawalRequest struct {
	Reason string `json:"reason"`
}

type TransactionView struct {
	ID            string                 `json:"id"`
	ReferenceID   string                 `json:"referenceId"`
	Type          string                 `json:"transactionType"`
	Status        string                 `json:"status"`
	Amount        string                 `json:"amount"`
	Currency      string                 `json:"currency"`
	FeeAmount     string                 `json:"feeAmount"`
	NetAmount     string                 `json:"netAmount"`
	Description   string                 `json:"description,omitempty"`
	RecipientType string                 `json:"recipientType,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// NewTransactionView flattens a domain transaction into its API shape.
func NewTransactionView(t *models.Transaction) TransactionView {
	return TransactionView{
		ID:            t.ID,
		ReferenceID:   t.ReferenceID,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Amount:        t.Amount.StringFixed(2),
		Currency:      t.Currency,
		FeeAmount:     t.FeeAmount.StringFixed(2),
		NetAmount:     t.NetAmount.StringFixed(2),
		Description:   t.Description,
		RecipientType: string(t.RecipientType),
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type TransactionListResponse struct {
	Transactions []TransactionView `json:"transactions"`
	Pagination   Pagination        `json:"pagination"`
}

type TransactionEventView struct {
	Kind       string                 `json:"kind"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

type DailySummaryView struct {
	Date            string `json:"date"`
	Withdrawn       string `json:"withdrawn"`
	Deposited       string `json:"deposited"`
	WithdrawalCount int    `json:"withdrawalCount"`
	DepositCount    int    `json:"depositCount"`
}
