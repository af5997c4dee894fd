package interactor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/pkg/log"
)

// expireGrace is how long after verification-code expiry a pending
// withdrawal may linger before the background process fails it.
const expireGrace = time.Hour

type ExpireWithdrawalsInteractor struct {
	transactionRepository repositories.TransactionRepository
	logger                *zerolog.Logger
	now                   func() time.Time
}

// NewExpireWithdrawalsInteractor creates a new ExpireWithdrawalsInteractor
func NewExpireWithdrawalsInteractor(transactionRepository repositories.TransactionRepository) *ExpireWithdrawalsInteractor {
	l := log.GetLogger()
	return &ExpireWithdrawalsInteractor{
		transactionRepository: transactionRepository,
		logger:                &l,
		now:                   time.Now,
	}
}

// Execute fails pending withdrawals that were never confirmed and whose
// verification window closed over an hour ago.
func (c *ExpireWithdrawalsInteractor) Execute(ctx context.Context) error {
	cutoff := c.now().Add(-(verificationCodeTTL + expireGrace))

	stale, err := c.transactionRepository.ListStalePendingWithdrawals(ctx, cutoff, 100)
	if err != nil {
		c.logger.Error().Err(err).Msg(apperrors.ErrFailedExpireWithdrawals)
		return err
	}

	for idx := range stale {
		t := &stale[idx]
		_, err = c.transactionRepository.UpdateStatus(ctx, t.ID, t.UserID, models.StatusFailed, map[string]interface{}{
			"failureReason": "verification code expired",
			"failedAt":      c.now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			c.logger.Error().Err(err).Str("transaction_id", t.ID).Msg(apperrors.ErrFailedExpireWithdrawals)
			continue
		}
		c.logger.Info().Str("transaction_id", t.ID).Msg("expired stale withdrawal")
	}

	return nil
}
