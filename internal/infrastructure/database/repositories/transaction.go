package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/pkg/log"
)

type TransactionRepositoryImpl struct {
	db     *pgxpool.Pool
	logger *zerolog.Logger
}

// NewTransactionRepositoryImpl creates new instance of TransactionRepositoryImpl.
func NewTransactionRepositoryImpl(db *pgxpool.Pool) repositories.TransactionRepository {
	l := log.GetLogger()
	return &TransactionRepositoryImpl{
		db:     db,
		logger: &l,
	}
}

const transactionColumns = `id, reference_id, user_id, type, status, amount, currency,
fee_amount, net_amount, deposit_method, withdrawal_method, recipient_type,
bank_account_id, recipient_username, recipient_email, recipient_phone,
description, metadata, created_at, updated_at`

const insertTransaction = `
INSERT INTO transactions (id, reference_id, user_id, type, status, amount, currency,
  fee_amount, net_amount, deposit_method, withdrawal_method, recipient_type,
  bank_account_id, recipient_username, recipient_email, recipient_phone,
  description, metadata)
VALUES ($1, $2, $3, $4, $5, $6::NUMERIC(14,2), $7, $8::NUMERIC(14,2), $9::NUMERIC(14,2),
  $10, $11, $12, $13, $14, $15, $16, $17, $18::jsonb)
RETURNING ` + transactionColumns

func (r *TransactionRepositoryImpl) Create(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	row := r.db.QueryRow(ctx, insertTransaction, insertArgs(transaction)...)
	stored, err := scanTransaction(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.SQLState() == repositories.UniqueViolationError {
			return nil, apperrors.NewBadRequestError("Duplicate transaction reference")
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return stored, nil
}

func (r *TransactionRepositoryImpl) GetByID(ctx context.Context, id, userID string) (*models.Transaction, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	transaction, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return transaction, nil
}

func (r *TransactionRepositoryImpl) List(ctx context.Context, userID string, filter repositories.TransactionFilter) ([]models.Transaction, int, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	var total int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		transactionColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0, filter.Limit)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *transaction)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	return transactions, total, nil
}

const updateStatusConditionally = `
UPDATE transactions
SET status = $3,
    metadata = COALESCE(metadata, '{}'::jsonb) || $4::jsonb,
    updated_at = now()
WHERE id = $1 AND user_id = $2 AND status = ANY($5)
RETURNING ` + transactionColumns

// UpdateStatus applies the transition only when the row's current status
// allows it (UPDATE ... WHERE status = ANY(sources)). A zero-row update
// against a row that already carries the target status is treated as an
// idempotent no-op, which is what makes duplicate webhook deliveries safe.
func (r *TransactionRepositoryImpl) UpdateStatus(ctx context.Context, id, userID string, next models.TransactionStatus, patch map[string]interface{}) (*models.Transaction, error) {
	if patch == nil {
		patch = map[string]interface{}{}
	}
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata patch: %w", err)
	}

	sources := make([]string, 0, 2)
	for _, s := range models.TransitionSources(next) {
		sources = append(sources, string(s))
	}

	row := r.db.QueryRow(ctx, updateStatusConditionally, id, userID, next, patchJSON, sources)
	transaction, err := scanTransaction(row)
	if err == nil {
		return transaction, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}

	// Zero rows: either absent, already in the target status, or in a
	// status with no edge to the target.
	current, err := r.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	if current.Status == next {
		return current, nil
	}
	return nil, apperrors.NewInvalidStateError(
		fmt.Sprintf("cannot move transaction from %s to %s", current.Status, next),
		string(current.Status),
	)
}

const withdrawnTodayQuery = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE user_id = $1
  AND type = 'withdrawal'
  AND status NOT IN ('failed', 'cancelled')
  AND created_at >= $2 AND created_at < $2 + INTERVAL '1 day'`

// ReserveWithdrawal runs the cap check and the insert inside one
// Serializable transaction, retrying on serialization failures
// (SQLSTATE 40001). The sum and the insert touch no common row, so
// anything weaker than Serializable would let two concurrent
// reservations both read the old sum and both commit (write skew);
// SSI aborts one of them and the retry re-reads the committed total.
func (r *TransactionRepositoryImpl) ReserveWithdrawal(ctx context.Context, transaction *models.Transaction, dailyCap decimal.Decimal) (*models.Transaction, error) {
	for {
		stored, err := r.reserveWithdrawalOnce(ctx, transaction, dailyCap)
		if err == nil {
			return stored, nil
		}

		if isSerializationError(err) {
			// retry transaction if serialization error occurs (SQLSTATE 40001)
			continue
		}
		return nil, err
	}
}

func (r *TransactionRepositoryImpl) reserveWithdrawalOnce(ctx context.Context, transaction *models.Transaction, dailyCap decimal.Decimal) (*models.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var withdrawn decimal.Decimal
	if err = tx.QueryRow(ctx, withdrawnTodayQuery, transaction.UserID, dayStartUTC(time.Now())).Scan(&withdrawn); err != nil {
		return nil, fmt.Errorf("sum withdrawn today: %w", err)
	}

	if withdrawn.Add(transaction.Amount).GreaterThan(dailyCap) {
		remaining := dailyCap.Sub(withdrawn)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return nil, apperrors.NewLimitExceededError(withdrawn, remaining, transaction.Amount)
	}

	row := tx.QueryRow(ctx, insertTransaction, insertArgs(transaction)...)
	stored, err := scanTransaction(row)
	if err != nil {
		r.logger.Error().Err(err).Msg("reserve withdrawal insert failed")
		return nil, fmt.Errorf("insert withdrawal: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit withdrawal: %w", err)
	}
	return stored, nil
}

const dailySummaryQuery = `
SELECT
  COALESCE(SUM(amount) FILTER (WHERE type = 'withdrawal' AND status NOT IN ('failed', 'cancelled')), 0),
  COALESCE(SUM(amount) FILTER (WHERE type = 'deposit' AND status = 'completed'), 0),
  COUNT(*) FILTER (WHERE type = 'withdrawal' AND status NOT IN ('failed', 'cancelled')),
  COUNT(*) FILTER (WHERE type = 'deposit' AND status = 'completed')
FROM transactions
WHERE user_id = $1 AND created_at >= $2 AND created_at < $2 + INTERVAL '1 day'`

func (r *TransactionRepositoryImpl) DailySummary(ctx context.Context, userID string, day time.Time) (repositories.DailySummary, error) {
	start := dayStartUTC(day)

	var summary repositories.DailySummary
	err := r.db.QueryRow(ctx, dailySummaryQuery, userID, start).Scan(
		&summary.Withdrawn,
		&summary.Deposited,
		&summary.WithdrawalCount,
		&summary.DepositCount,
	)
	if err != nil {
		return repositories.DailySummary{}, fmt.Errorf("daily summary: %w", err)
	}
	return summary, nil
}

func (r *TransactionRepositoryImpl) ListStalePendingWithdrawals(ctx context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE type = 'withdrawal' AND status = 'pending' AND created_at < $1
		 ORDER BY created_at
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stale withdrawals: %w", err)
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale withdrawal: %w", err)
		}
		transactions = append(transactions, *transaction)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale withdrawals: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepositoryImpl) AppendEvent(ctx context.Context, event *models.TransactionEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO transaction_events (transaction_id, user_id, kind, payload) VALUES ($1, $2, $3, $4::jsonb)`,
		event.TransactionID, event.UserID, event.Kind, payload,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (r *TransactionRepositoryImpl) ListEvents(ctx context.Context, transactionID, userID string) ([]models.TransactionEvent, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, transaction_id, user_id, kind, payload, occurred_at
		 FROM transaction_events
		 WHERE transaction_id = $1 AND user_id = $2
		 ORDER BY occurred_at, id`,
		transactionID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]models.TransactionEvent, 0)
	for rows.Next() {
		var event models.TransactionEvent
		if err = rows.Scan(&event.ID, &event.TransactionID, &event.UserID, &event.Kind, &event.Payload, &event.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func insertArgs(t *models.Transaction) []interface{} {
	metadata := t.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadataJSON, _ := json.Marshal(metadata)

	return []interface{}{
		t.ID, t.ReferenceID, t.UserID, t.Type, t.Status,
		t.Amount, t.Currency, t.FeeAmount, t.NetAmount,
		t.DepositMethod, t.WithdrawalMethod, t.RecipientType,
		t.BankAccountID, t.RecipientUsername, t.RecipientEmail, t.RecipientPhone,
		t.Description, metadataJSON,
	}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := row.Scan(
		&t.ID, &t.ReferenceID, &t.UserID, &t.Type, &t.Status,
		&t.Amount, &t.Currency, &t.FeeAmount, &t.NetAmount,
		&t.DepositMethod, &t.WithdrawalMethod, &t.RecipientType,
		&t.BankAccountID, &t.RecipientUsername, &t.RecipientEmail, &t.RecipientPhone,
		&t.Description, &t.Metadata, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == repositories.SerializationError
}

// dayStartUTC anchors a calendar day at UTC midnight. The cap check and
// the daily summary must agree on where a day starts regardless of the
// database server's timezone.
func dayStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
