package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeEarned     TransactionType = "earned"
	TypeTransfer   TransactionType = "transfer"
)

type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
)

// transitions holds the allowed status transitions. Terminal statuses have
// no outgoing edges, so a retried processor callback can never re-complete
// or resurrect a transaction.
var transitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCancelled:  {},
}

// CanTransition reports whether a transaction may move from one status to
// another.
func CanTransition(from, to TransactionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status from which the given status is
// reachable. The repository uses it to build conditional updates.
func TransitionSources(to TransactionStatus) []TransactionStatus {
	sources := make([]TransactionStatus, 0, 2)
	for from, nexts := range transitions {
		for _, next := range nexts {
			if next == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// Terminal reports whether no further transitions are permitted.
func (s TransactionStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type RecipientType string

const (
	RecipientBankAccount RecipientType = "bank_account"
	RecipientUsername    RecipientType = "username"
	RecipientEmail       RecipientType = "email"
	RecipientMobileMoney RecipientType = "mobile_money"
)

var ValidRecipientTypes = map[RecipientType]struct{}{
	RecipientBankAccount: {},
	RecipientUsername:    {},
	RecipientEmail:       {},
	RecipientMobileMoney: {},
}

var ValidDestinations = map[string]struct{}{
	"ecommerce": {},
	"crypto":    {},
	"rewards":   {},
	"freelance": {},
}

type Transaction struct {
	ID          string            `db:"id"`
	ReferenceID string            `db:"reference_id"`
	UserID      string            `db:"user_id"`
	Type        TransactionType   `db:"type"`
	Status      TransactionStatus `db:"status"`

	Amount    decimal.Decimal `db:"amount"`
	Currency  string          `db:"currency"`
	FeeAmount decimal.Decimal `db:"fee_amount"`
	NetAmount decimal.Decimal `db:"net_amount"`

	DepositMethod    string        `db:"deposit_method"`
	WithdrawalMethod string        `db:"withdrawal_method"`
	RecipientType    RecipientType `db:"recipient_type"`

	BankAccountID     string `db:"bank_account_id"`
	RecipientUsername string `db:"recipient_username"`
	RecipientEmail    string `db:"recipient_email"`
	RecipientPhone    string `db:"recipient_phone"`

	Description string                 `db:"description"`
	Metadata    map[string]interface{} `db:"metadata"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RecipientIdentifier returns the identifier matching the withdrawal's
// recipient type.
func (t *Transaction) RecipientIdentifier() string {
	switch t.RecipientType {
	case RecipientBankAccount:
		return t.BankAccountID
	case RecipientUsername:
		return t.RecipientUsername
	case RecipientEmail:
		return t.RecipientEmail
	case RecipientMobileMoney:
		return t.RecipientPhone
	}
	return ""
}

// TransactionEvent is one row of the append-only audit log. Lifecycle
// timestamps live here as queryable rows instead of only inside the
// metadata bag.
type TransactionEvent struct {
	ID            int64                  `db:"id"`
	TransactionID string                 `db:"transaction_id"`
	UserID        string                 `db:"user_id"`
	Kind          string                 `db:"kind"`
	Payload       map[string]interface{} `db:"payload"`
	OccurredAt    time.Time              `db:"occurred_at"`
}
