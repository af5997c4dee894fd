package interactor

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
)

// fakeRepository is an in-memory TransactionRepository with the same
// transition and daily-cap semantics as the Postgres implementation.
type fakeRepository struct {
	mu           sync.Mutex
	transactions map[string]*models.Transaction
	order        []string
	events       []models.TransactionEvent

	createErr  error
	reserveErr error
	listErr    error
	updateErr  error

	now func() time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		transactions: make(map[string]*models.Transaction),
		now:          time.Now,
	}
}

func (f *fakeRepository) Create(_ context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store(transaction), nil
}

func (f *fakeRepository) store(transaction *models.Transaction) *models.Transaction {
	stored := *transaction
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = f.now()
	}
	stored.UpdatedAt = stored.CreatedAt
	f.transactions[stored.ID] = &stored
	f.order = append(f.order, stored.ID)
	copied := stored
	return &copied
}

func (f *fakeRepository) GetByID(_ context.Context, id, userID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.transactions[id]
	if !ok || stored.UserID != userID {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (f *fakeRepository) List(_ context.Context, userID string, filter repositories.TransactionFilter) ([]models.Transaction, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]models.Transaction, 0)
	for _, id := range f.order {
		t := f.transactions[id]
		if t.UserID != userID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.DateFrom != nil && t.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && t.CreatedAt.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, *t)
	}

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (f *fakeRepository) UpdateStatus(_ context.Context, id, userID string, next models.TransactionStatus, patch map[string]interface{}) (*models.Transaction, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.transactions[id]
	if !ok || stored.UserID != userID {
		return nil, nil
	}
	if stored.Status == next {
		copied := *stored
		return &copied, nil
	}
	if !models.CanTransition(stored.Status, next) {
		return nil, apperrors.NewInvalidStateError("cannot move transaction", string(stored.Status))
	}

	stored.Status = next
	if stored.Metadata == nil {
		stored.Metadata = map[string]interface{}{}
	}
	for key, value := range patch {
		stored.Metadata[key] = value
	}
	stored.UpdatedAt = f.now()
	copied := *stored
	return &copied, nil
}

func (f *fakeRepository) ReserveWithdrawal(_ context.Context, transaction *models.Transaction, dailyCap decimal.Decimal) (*models.Transaction, error) {
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	withdrawn := decimal.Zero
	for _, t := range f.transactions {
		if t.UserID != transaction.UserID || t.Type != models.TypeWithdrawal {
			continue
		}
		if t.Status == models.StatusFailed || t.Status == models.StatusCancelled {
			continue
		}
		withdrawn = withdrawn.Add(t.Amount)
	}

	if withdrawn.Add(transaction.Amount).GreaterThan(dailyCap) {
		remaining := dailyCap.Sub(withdrawn)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return nil, apperrors.NewLimitExceededError(withdrawn, remaining, transaction.Amount)
	}
	return f.store(transaction), nil
}

func (f *fakeRepository) DailySummary(_ context.Context, userID string, _ time.Time) (repositories.DailySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var summary repositories.DailySummary
	for _, t := range f.transactions {
		if t.UserID != userID {
			continue
		}
		switch t.Type {
		case models.TypeWithdrawal:
			if t.Status != models.StatusFailed && t.Status != models.StatusCancelled {
				summary.Withdrawn = summary.Withdrawn.Add(t.Amount)
				summary.WithdrawalCount++
			}
		case models.TypeDeposit:
			if t.Status == models.StatusCompleted {
				summary.Deposited = summary.Deposited.Add(t.Amount)
				summary.DepositCount++
			}
		}
	}
	return summary, nil
}

func (f *fakeRepository) ListStalePendingWithdrawals(_ context.Context, cutoff time.Time, limit int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stale := make([]models.Transaction, 0)
	for _, id := range f.order {
		t := f.transactions[id]
		if t.Type != models.TypeWithdrawal || t.Status != models.StatusPending {
			continue
		}
		if !t.CreatedAt.Before(cutoff) {
			continue
		}
		stale = append(stale, *t)
		if len(stale) == limit {
			break
		}
	}
	return stale, nil
}

func (f *fakeRepository) AppendEvent(_ context.Context, event *models.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *event
	stored.ID = int64(len(f.events) + 1)
	stored.OccurredAt = f.now()
	f.events = append(f.events, stored)
	return nil
}

func (f *fakeRepository) ListEvents(_ context.Context, transactionID, userID string) ([]models.TransactionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make([]models.TransactionEvent, 0)
	for _, event := range f.events {
		if event.TransactionID == transactionID && event.UserID == userID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (f *fakeRepository) eventKinds(transactionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	kinds := make([]string, 0)
	for _, event := range f.events {
		if event.TransactionID == transactionID {
			kinds = append(kinds, event.Kind)
		}
	}
	return kinds
}
