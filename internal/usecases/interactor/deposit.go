package interactor

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/internal/domain/fees"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	"github.com/veltmarket/wallet-service/internal/domain/repositories"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/internal/infrastructure/payments"
	"github.com/veltmarket/wallet-service/internal/usecases/dtos"
	"github.com/veltmarket/wallet-service/pkg/log"
)

type DepositInteractor struct {
	transactionRepository repositories.TransactionRepository
	processors            map[payments.Kind]payments.Processor
	apiBaseURL            string
	logger                *zerolog.Logger
}

func NewDepositInteractor(transactionRepository repositories.TransactionRepository, processors map[payments.Kind]payments.Processor, apiBaseURL string) *DepositInteractor {
	l := log.GetLogger()
	return &DepositInteractor{
		transactionRepository: transactionRepository,
		processors:            processors,
		apiBaseURL:            apiBaseURL,
		logger:                &l,
	}
}

// webhookPaths maps each processor onto its callback route segment.
var webhookPaths = map[payments.Kind]string{
	payments.KindPaystack:    "paystack-webhook",
	payments.KindFlutterwave: "flutterwave-webhook",
	payments.KindStripe:      "stripe-webhook",
	payments.KindMpesa:       "mpesa-callback",
}

// Initiate creates a pending deposit and hands the payer off to the
// matching processor. A processor that fails to initialize is a soft
// failure: the deposit stays pending and the response carries a
// verification hint instead of a payment link.
func (i *DepositInteractor) Initiate(ctx context.Context, userID string, dto *dtos.DepositRequest) (*dtos.DepositResponse, error) {
	amount, err := decimal.NewFromString(dto.Amount.String())
	if err != nil || !amount.IsPositive() {
		return nil, apperrors.NewBadRequestError("Amount must be a positive number")
	}
	if dto.MethodProviderID == "" {
		return nil, apperrors.NewBadRequestError("Payment method provider is required")
	}
	if _, ok := models.ValidDestinations[dto.Destination]; !ok {
		return nil, apperrors.NewBadRequestError("Invalid deposit destination")
	}

	kind, ok := payments.KindForProvider(dto.MethodProviderID)
	if !ok {
		return nil, apperrors.NewBadRequestError("Unsupported payment provider")
	}
	processor, ok := i.processors[kind]
	if !ok {
		return nil, apperrors.NewBadRequestError("Unsupported payment provider")
	}

	currency := dto.Currency
	if currency == "" {
		currency = "USD"
	}

	quote := fees.DepositQuote(dto.MethodProviderID, amount)
	now := time.Now().UTC()

	transaction := &models.Transaction{
		ID:            uuid.New().String(),
		ReferenceID:   models.NewReferenceID(models.ReferencePrefixDeposit),
		UserID:        userID,
		Type:          models.TypeDeposit,
		Status:        models.StatusPending,
		Amount:        amount,
		Currency:      currency,
		FeeAmount:     quote.Fee,
		NetAmount:     amount, // deposit fee is collected on top, not deducted
		DepositMethod: dto.Method,
		Metadata: map[string]interface{}{
			"initiatedAt":      now.Format(time.RFC3339),
			"destination":      dto.Destination,
			"methodProviderId": dto.MethodProviderID,
			"processor":        string(kind),
			"countryCode":      dto.CountryCode,
		},
	}

	stored, err := i.transactionRepository.Create(ctx, transaction)
	if err != nil {
		i.logger.Error().Err(err).Msg("failed to create deposit transaction")
		return nil, err
	}

	i.appendEvent(ctx, stored, "deposit_initiated", map[string]interface{}{
		"amount":    amount.StringFixed(2),
		"fee":       quote.Fee.StringFixed(2),
		"processor": string(kind),
	})

	view := dtos.DepositView{
		ID:                      stored.ID,
		ReferenceID:             stored.ReferenceID,
		Amount:                  amount.StringFixed(2),
		FeeAmount:               quote.Fee.StringFixed(2),
		AmountWithFee:           amount.Add(quote.Fee).StringFixed(2),
		Currency:                currency,
		Status:                  string(stored.Status),
		EstimatedProcessingTime: quote.ProcessingTime,
	}

	session, err := processor.InitializePayment(ctx, payments.PaymentRequest{
		TransactionID: stored.ID,
		UserID:        userID,
		Amount:        amount.Add(quote.Fee),
		Currency:      currency,
		Email:         dto.Email,
		Phone:         dto.Phone,
		CallbackURL:   i.callbackURL(kind, stored.ID, userID),
	})
	if err != nil || session == nil {
		i.logger.Warn().Err(err).Str("transaction_id", stored.ID).Msg("processor initialization failed, deposit awaits verification")
		view.Message = "Complete payment verification to finish this deposit"
		return &dtos.DepositResponse{Success: true, Deposit: view}, nil
	}

	view.PaymentURL = session.PaymentURL
	view.PaymentData = session.ClientSecret
	i.appendEvent(ctx, stored, "payment_session_created", map[string]interface{}{
		"processorReference": session.Reference,
	})

	return &dtos.DepositResponse{Success: true, Deposit: view}, nil
}

// Status returns the current state of a deposit.
func (i *DepositInteractor) Status(ctx context.Context, userID, depositID string) (*dtos.TransactionView, error) {
	transaction, err := i.transactionRepository.GetByID(ctx, depositID, userID)
	if err != nil {
		return nil, err
	}
	if transaction == nil || transaction.Type != models.TypeDeposit {
		return nil, apperrors.NewNotFoundError("Deposit")
	}

	view := dtos.NewTransactionView(transaction)
	return &view, nil
}

func (i *DepositInteractor) callbackURL(kind payments.Kind, transactionID, userID string) string {
	query := url.Values{}
	query.Set("transactionId", transactionID)
	query.Set("userId", userID)
	return fmt.Sprintf("%s/api/v1/wallet/transactions/deposit/%s?%s", i.apiBaseURL, webhookPaths[kind], query.Encode())
}

func (i *DepositInteractor) appendEvent(ctx context.Context, t *models.Transaction, kind string, payload map[string]interface{}) {
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
