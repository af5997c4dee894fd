package interactor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/internal/usecases/dtos"
	"github.com/veltmarket/wallet-service/pkg/log"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type TransactionInteractor struct {
	transactionRepository repositories.TransactionRepository
	logger                *zerolog.Logger
	now                   func() time.Time
}

func NewTransactionInteractor(transactionRepository repositories.TransactionRepository) *TransactionInteractor {
	l := log.GetLogger()
	return &TransactionInteractor{
		transactionRepository: transactionRepository,
		logger:                &l,
		now:                   time.Now,
	}
}

// List returns a page of the user's transactions. The limit is clamped to
// 100.
func (i *TransactionInteractor) List(ctx context.Context, userID string, filter repositories.TransactionFilter) (*dtos.TransactionListResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	transactions, total, err := i.transactionRepository.List(ctx, userID, filter)
	if err != nil {
		i.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list transactions")
		return nil, err
	}

	views := make([]dtos.TransactionView, 0, len(transactions))
	for idx := range transactions {
		views = append(views, dtos.NewTransactionView(&transactions[idx]))
	}

	return &dtos.TransactionListResponse{
		Transactions: views,
		Pagination: dtos.Pagination{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Total:  total,
		},
	}, nil
}

// Get returns one transaction scoped to its owner.
func (i *TransactionInteractor) Get(ctx context.Context, userID, id string) (*dtos.TransactionView, error) {
	transaction, err := i.transactionRepository.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, apperrors.NewNotFoundError("Transaction")
	}

	view := dtos.NewTransactionView(transaction)
	return &view, nil
}

// Events returns a transaction's audit log.
func (i *TransactionInteractor) Events(ctx context.Context, userID, id string) ([]dtos.TransactionEventView, error) {
	transaction, err := i.transactionRepository.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, apperrors.NewNotFoundError("Transaction")
	}

	events, err := i.transactionRepository.ListEvents(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	views := make([]dtos.TransactionEventView, 0, len(events))
	for _, event := range events {
		views = append(views, dtos.TransactionEventView{
			Kind:       event.Kind,
			Payload:    event.Payload,
			OccurredAt: event.OccurredAt,
		})
	}
	return views, nil
}

// DailySummary aggregates the user's activity for one day. An empty date
// means today.
func (i *TransactionInteractor) DailySummary(ctx context.Context, userID, date string) (*dtos.DailySummaryView, error) {
	day := i.now().UTC()
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, apperrors.NewBadRequestError("Invalid date, expected YYYY-MM-DD")
		}
		day = parsed
	}

	summary, err := i.transactionRepository.DailySummary(ctx, userID, day)
	if err != nil {
		i.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load daily summary")
		return nil, err
	}

	return &dtos.DailySummaryView{
		Date:            day.Format("2006-01-02"),
		Withdrawn:       summary.Withdrawn.StringFixed(2),
		Deposited:       summary.Deposited.StringFixed(2),
		WithdrawalCount: summary.WithdrawalCount,
		DepositCount:    summary.DepositCount,
	}, nil
}
