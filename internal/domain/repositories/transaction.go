package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/internal/domain/models"
)

const (
	SerializationError   = "40001"
	UniqueViolationError = "23505"
)

// TransactionFilter narrows List queries. Zero values mean "no filter".
type TransactionFilter struct {
	Limit    int
	Offset   int
	Status   models.TransactionStatus
	Type     models.TransactionType
	DateFrom *time.Time
	DateTo   *time.Time
}

// DailySummary aggregates a user's activity for one calendar day.
type DailySummary struct {
	Withdrawn       decimal.Decimal
	Deposited       decimal.Decimal
	WithdrawalCount int
	DepositCount    int
}

type TransactionRepository interface {
	// Create inserts a new transaction and returns the stored row.
	Create(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)

	// GetByID returns the transaction scoped to its owning user, or nil
	// when it does not exist or belongs to someone else.
	GetByID(ctx context.Context, id, userID string) (*models.Transaction, error)

	// List returns a page of the user's transactions plus the unpaged total.
	List(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, int, error)

	// UpdateStatus applies a conditional status transition: the row is only
	// updated when its current status permits the move. A transition that
	// was already applied (current status equals next) is a no-op success,
	// which makes retried processor callbacks idempotent. Any other
	// disallowed transition returns an InvalidStateError. The metadata
	// patch is merged into the existing bag.
	UpdateStatus(ctx context.Context, id, userID string, next models.TransactionStatus, patch map[string]interface{}) (*models.Transaction, error)

	// ReserveWithdrawal atomically checks the user's withdrawn-today total
	// against the daily cap and inserts the pending withdrawal only when
	// the cap is not exceeded. On rejection it returns a LimitExceededError
	// carrying the already-withdrawn total.
	ReserveWithdrawal(ctx context.Context, transaction *models.Transaction, dailyCap decimal.Decimal) (*models.Transaction, error)

	// DailySummary aggregates the user's completed and in-flight activity
	// for the given day.
	DailySummary(ctx context.Context, userID string, day time.Time) (DailySummary, error)

	// ListStalePendingWithdrawals returns pending withdrawals created
	// before the cutoff, oldest first. The background expiry process feeds
	// on it.
	ListStalePendingWithdrawals(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error)

	// AppendEvent records one audit-log entry for a transaction.
	AppendEvent(ctx context.Context, event *models.TransactionEvent) error

	// ListEvents returns a transaction's audit log, oldest first, scoped to
	// the owning user.
	ListEvents(ctx context.Context, transactionID, userID string) ([]models.TransactionEvent, error)
}
