package interactor

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/internal/domain/fees"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/internal/usecases/dtos"
	"github.com/veltmarket/wallet-service/pkg/log"
)

const verificationCodeTTL = 10 * time.Minute

type WithdrawalInteractor struct {
	transactionRepository repositories.TransactionRepository
	dailyCap              decimal.Decimal
	logger                *zerolog.Logger

	// swappable in tests
	now          func() time.Time
	generateCode func() string
}

func NewWithdrawalInteractor(transactionRepository repositories.TransactionRepository, dailyCap decimal.Decimal) *WithdrawalInteractor {
	l := log.GetLogger()
	return &WithdrawalInteractor{
		transactionRepository: transactionRepository,
		dailyCap:              dailyCap,
		logger:                &l,
		now:                   time.Now,
		generateCode:          sixDigitCode,
	}
}

// Initiate validates the request, reserves daily-cap quota atomically and
// creates the pending withdrawal. The verification code is stored in the
// transaction metadata and never returned to the client; only its expiry
// is.
func (i *WithdrawalInteractor) Initiate(ctx context.Context, userID string, dto *dtos.WithdrawRequest) (*dtos.WithdrawResponse, error) {
	amount, err := decimal.NewFromString(dto.Amount.String())
	if err != nil || !amount.IsPositive() {
		return nil, apperrors.NewBadRequestError("Amount must be a positive number")
	}

	recipientType := models.RecipientType(dto.RecipientType)
	if _, ok := models.ValidRecipientTypes[recipientType]; !ok {
		return nil, apperrors.NewBadRequestError("Invalid recipient type")
	}
	if err = validateRecipient(recipientType, dto); err != nil {
		return nil, err
	}

	currency := dto.Currency
	if currency == "" {
		currency = "USD"
	}

	quote := fees.WithdrawalQuote(recipientType, amount)
	net := amount.Sub(quote.Fee)
	now := i.now().UTC()
	code := i.generateCode()
	expiresAt := now.Add(verificationCodeTTL)

	transaction := &models.Transaction{
		ID:                uuid.New().String(),
		ReferenceID:       models.NewReferenceID(models.ReferencePrefixWithdrawal),
		UserID:            userID,
		Type:              models.TypeWithdrawal,
		Status:            models.StatusPending,
		Amount:            amount,
		Currency:          currency,
		FeeAmount:         quote.Fee,
		NetAmount:         net,
		WithdrawalMethod:  dto.RecipientType,
		RecipientType:     recipientType,
		BankAccountID:     dto.BankAccountID,
		RecipientUsername: dto.RecipientUsername,
		RecipientEmail:    dto.RecipientEmail,
		RecipientPhone:    dto.RecipientPhone,
		Description:       dto.Description,
		Metadata: map[string]interface{}{
			"initiatedAt":           now.Format(time.RFC3339),
			"verificationCode":      code,
			"verificationExpiresAt": expiresAt.Format(time.RFC3339),
		},
	}

	stored, err := i.transactionRepository.ReserveWithdrawal(ctx, transaction, i.dailyCap)
	if err != nil {
		i.logger.Error().Err(err).Str("user_id", userID).Msg("failed to reserve withdrawal")
		return nil, err
	}

	i.appendEvent(ctx, stored, "withdrawal_initiated", map[string]interface{}{
		"amount":        amount.StringFixed(2),
		"fee":           quote.Fee.StringFixed(2),
		"recipientType": dto.RecipientType,
	})

	return &dtos.WithdrawResponse{
		Success: true,
		Withdrawal: dtos.WithdrawalView{
			ID:                      stored.ID,
			ReferenceID:             stored.ReferenceID,
			Amount:                  amount.StringFixed(2),
			FeeAmount:               quote.Fee.StringFixed(2),
			NetAmount:               net.StringFixed(2),
			Currency:                currency,
			Status:                  string(stored.Status),
			EstimatedProcessingTime: quote.ProcessingTime,
			RequiresVerification:    true,
			VerificationExpiresAt:   expiresAt.Format(time.RFC3339),
		},
	}, nil
}

// Confirm checks the 2FA code against the stored one and moves the
// withdrawal to processing. Only pending withdrawals can be confirmed.
func (i *WithdrawalInteractor) Confirm(ctx context.Context, userID string, dto *dtos.ConfirmWithdrawalRequest) (*dtos.WithdrawalView, error) {
	if dto.WithdrawalID == "" || dto.VerificationCode == "" {
		return nil, apperrors.NewBadRequestError("Withdrawal ID and verification code are required")
	}

	withdrawal, err := i.getWithdrawal(ctx, dto.WithdrawalID, userID)
	if err != nil {
		return nil, err
	}
	if withdrawal.Status != models.StatusPending {
		return nil, apperrors.NewInvalidStateError("Only pending withdrawals can be confirmed", string(withdrawal.Status))
	}

	storedCode, _ := withdrawal.Metadata["verificationCode"].(string)
	if storedCode == "" || storedCode != dto.VerificationCode {
		return nil, apperrors.NewBadRequestError("Invalid verification code")
	}

	expiresAtRaw, _ := withdrawal.Metadata["verificationExpiresAt"].(string)
	expiresAt, err := time.Parse(time.RFC3339, expiresAtRaw)
	if err != nil || i.now().After(expiresAt) {
		return nil, apperrors.NewBadRequestError("Verification code has expired")
	}

	updated, err := i.transactionRepository.UpdateStatus(ctx, withdrawal.ID, userID, models.StatusProcessing, map[string]interface{}{
		"verifiedAt": i.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NewNotFoundError("Withdrawal")
	}

	i.appendEvent(ctx, updated, "withdrawal_confirmed", nil)

	view := withdrawalView(updated)
	return &view, nil
}

// Cancel is only permitted while the withdrawal is still pending.
func (i *WithdrawalInteractor) Cancel(ctx context.Context, userID, withdrawalID, reason string) (*dtos.WithdrawalView, error) {
	withdrawal, err := i.getWithdrawal(ctx, withdrawalID, userID)
	if err != nil {
		return nil, err
	}
	if withdrawal.Status != models.StatusPending {
		return nil, apperrors.NewInvalidStateError("Only pending withdrawals can be cancelled", string(withdrawal.Status))
	}

	if reason == "" {
		reason = "Cancelled by user"
	}
	updated, err := i.transactionRepository.UpdateStatus(ctx, withdrawal.ID, userID, models.StatusCancelled, map[string]interface{}{
		"cancelledAt":        i.now().UTC().Format(time.RFC3339),
		"cancellationReason": reason,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperrors.NewNotFoundError("Withdrawal")
	}

	i.appendEvent(ctx, updated, "withdrawal_cancelled", map[string]interface{}{"reason": reason})

	view := withdrawalView(updated)
	return &view, nil
}

// Status returns the current state of a withdrawal.
func (i *WithdrawalInteractor) Status(ctx context.Context, userID, withdrawalID string) (*dtos.WithdrawalView, error) {
	withdrawal, err := i.getWithdrawal(ctx, withdrawalID, userID)
	if err != nil {
		return nil, err
	}
	view := withdrawalView(withdrawal)
	return &view, nil
}

func (i *WithdrawalInteractor) getWithdrawal(ctx context.Context, id, userID string) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if transaction == nil || transaction.Type != models.TypeWithdrawal {
		return nil, apperrors.NewNotFoundError("Withdrawal")
	}
	return transaction, nil
}

func (i *WithdrawalInteractor) appendEvent(ctx context.Context, t *models.Transaction, kind string, payload map[string]interface{}) {
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

func withdrawalView(t *models.Transaction) dtos.WithdrawalView {
	return dtos.WithdrawalView{
		ID:          t.ID,
		ReferenceID: t.ReferenceID,
		Amount:      t.Amount.StringFixed(2),
		FeeAmount:   t.FeeAmount.StringFixed(2),
		NetAmount:   t.NetAmount.StringFixed(2),
		Currency:    t.Currency,
		Status:      string(t.Status),
	}
}

func validateRecipient(recipientType models.RecipientType, dto *dtos.WithdrawRequest) error {
	var field, value string
	switch recipientType {
	case models.RecipientBankAccount:
		field, value = "bankAccountId", dto.BankAccountID
	case models.RecipientUsername:
		field, value = "recipientUsername", dto.RecipientUsername
	case models.RecipientEmail:
		field, value = "recipientEmail", dto.RecipientEmail
	case models.RecipientMobileMoney:
		field, value = "recipientPhone", dto.RecipientPhone
	}
	if value == "" {
		return apperrors.NewBadRequestError(fmt.Sprintf("%s is required for recipient type %s", field, recipientType))
	}
	return nil
}

func sixDigitCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
