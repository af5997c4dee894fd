package interactor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/internal/infrastructure/payments"
	"github.com/veltmarket/wallet-service/pkg/log"
)

// WebhookHints carries correlation ids taken from the tagged callback URL.
// They are only used when the processor's own payload does not echo the
// embedded metadata back (M-Pesa).
type WebhookHints struct {
	TransactionID string
	UserID        string
}

type WebhookInteractor struct {
	transactionRepository repositories.TransactionRepository
	processors            map[payments.Kind]payments.Processor
	logger                *zerolog.Logger
	now                   func() time.Time
}

func NewWebhookInteractor(transactionRepository repositories.TransactionRepository, processors map[payments.Kind]payments.Processor) *WebhookInteractor {
	l := log.GetLogger()
	return &WebhookInteractor{
		transactionRepository: transactionRepository,
		processors:            processors,
		logger:                &l,
		now:                   time.Now,
	}
}

// Handle reconciles one processor callback. The signature gate runs before
// anything else: a delivery that fails it produces no side effects at all.
// The webhook body is never trusted on its own; the payment is re-verified
// against the processor before the completed transition, and the
// transition itself is conditional, so redelivered webhooks are no-ops.
func (i *WebhookInteractor) Handle(ctx context.Context, kind payments.Kind, body []byte, signature string, hints WebhookHints) error {
	processor, ok := i.processors[kind]
	if !ok {
		return apperrors.NewBadRequestError("Unknown payment processor")
	}

	if !processor.VerifyWebhookSignature(body, signature) {
		i.logger.Warn().Str("processor", string(kind)).Msg("webhook signature verification failed")
		return apperrors.NewUnauthorizedError("Invalid webhook signature")
	}

	event, err := processor.ParseWebhook(body)
	if err != nil {
		i.logger.Error().Err(err).Str("processor", string(kind)).Msg("failed to parse webhook body")
		return apperrors.NewBadRequestError("Invalid webhook payload")
	}

	transactionID := event.TransactionID
	if transactionID == "" {
		transactionID = hints.TransactionID
	}
	userID := event.UserID
	if userID == "" {
		userID = hints.UserID
	}
	if transactionID == "" || userID == "" {
		return apperrors.NewBadRequestError("Missing transaction metadata in webhook")
	}

	// M-Pesa reports failure through its result code; there is nothing to
	// re-verify for a failed STK push.
	if kind == payments.KindMpesa && event.ResultCode != 0 {
		return i.markFailed(ctx, transactionID, userID, event.ResultDesc)
	}

	verification, err := processor.VerifyPayment(ctx, event.Reference)
	if err != nil || verification == nil {
		i.logger.Error().Err(err).Str("processor", string(kind)).Str("reference", event.Reference).Msg("server-side payment verification failed")
		return apperrors.NewProcessorError("Failed to verify payment")
	}
	if !verifiedSuccessful(verification.Status) {
		i.logger.Warn().Str("processor", string(kind)).Str("status", verification.Status).Msg("payment not successful on verification")
		return apperrors.NewProcessorError("Failed to verify payment")
	}

	updated, err := i.transactionRepository.UpdateStatus(ctx, transactionID, userID, models.StatusCompleted, map[string]interface{}{
		"processor":          string(kind),
		"processorReference": event.Reference,
		"processorFee":       verification.Fee.StringFixed(2),
		"completedAt":        i.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if updated == nil {
		return apperrors.NewNotFoundError("Transaction")
	}

	i.appendEvent(ctx, updated, "deposit_completed", map[string]interface{}{
		"processor":          string(kind),
		"processorReference": event.Reference,
	})
	return nil
}

func (i *WebhookInteractor) markFailed(ctx context.Context, transactionID, userID, reason string) error {
	updated, err := i.transactionRepository.UpdateStatus(ctx, transactionID, userID, models.StatusFailed, map[string]interface{}{
		"failureReason": reason,
		"failedAt":      i.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if updated == nil {
		return apperrors.NewNotFoundError("Transaction")
	}

	i.appendEvent(ctx, updated, "deposit_failed", map[string]interface{}{"reason": reason})
	return nil
}

func (i *WebhookInteractor) appendEvent(ctx context.Context, t *models.Transaction, kind string, payload map[string]interface{}) {
	err := i.transactionRepository.AppendEvent(ctx, &models.TransactionEvent{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Kind:          kind,
		Payload:       payload,
	})
	if err != nil {
		i.logger.Error().Err(err).Str("transaction_id", t.ID).Str("kind", kind).Msg("failed to append transaction event")
	}
}

func verifiedSuccessful(status string) bool {
	switch status {
	case "success", "succeeded", "successful":
		return true
	}
	return false
}
