package di

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/veltmarket/wallet-service/internal/config"
	"github.com/veltmarket/wallet-service/internal/infrastructure/api/handlers"
	"github.com/veltmarket/wallet-service/internal/infrastructure/database/repositories"
	"github.com/veltmarket/wallet-service/internal/infrastructure/payments"
	"github.com/veltmarket/wallet-service/internal/usecases/interactor"
)

type Container struct {
	DepositHandler              *handlers.DepositHandler
	WithdrawalHandler           *handlers.WithdrawalHandler
	TransactionHandler          *handlers.TransactionHandler
	WebhookHandler              *handlers.WebhookHandler
	ExportHandler               *handlers.ExportHandler
	ExpireWithdrawalsInteractor *interactor.ExpireWithdrawalsInteractor
}

// NewContainer creates a new Container instance.
func NewContainer(db *pgxpool.Pool, cfg *config.Config) *Container {
	transactionRepository := repositories.NewTransactionRepositoryImpl(db)

	processors := map[payments.Kind]payments.Processor{
		payments.KindPaystack:    payments.NewPaystack(cfg.Payments.PaystackSecretKey),
		payments.KindFlutterwave: payments.NewFlutterwave(cfg.Payments.FlutterwaveSecretKey, cfg.Payments.FlutterwaveSecretHash),
		payments.KindStripe:      payments.NewStripe(cfg.Payments.StripeSecretKey, cfg.Payments.StripeWebhookSecret),
		payments.KindMpesa: payments.NewMpesa(
			cfg.Payments.MpesaConsumerKey,
			cfg.Payments.MpesaConsumerSecret,
			cfg.Payments.MpesaShortcode,
			cfg.Payments.MpesaPasskey,
		),
	}

	dailyCap, err := decimal.NewFromString(cfg.Limits.DailyWithdrawalCap)
	if err != nil {
		dailyCap = decimal.NewFromInt(10000)
	}

	depositInteractor := interactor.NewDepositInteractor(transactionRepository, processors, cfg.Payments.APIBaseURL)
	withdrawalInteractor := interactor.NewWithdrawalInteractor(transactionRepository, dailyCap)
	transactionInteractor := interactor.NewTransactionInteractor(transactionRepository)
	webhookInteractor := interactor.NewWebhookInteractor(transactionRepository, processors)
	exportInteractor := interactor.NewExportInteractor(transactionRepository)
	expireWithdrawalsInteractor := interactor.NewExpireWithdrawalsInteractor(transactionRepository)

	return &Container{
		DepositHandler:              handlers.NewDepositHandler(depositInteractor),
		WithdrawalHandler:           handlers.NewWithdrawalHandler(withdrawalInteractor),
		TransactionHandler:          handlers.NewTransactionHandler(transactionInteractor),
		WebhookHandler:              handlers.NewWebhookHandler(webhookInteractor),
		ExportHandler:               handlers.NewExportHandler(exportInteractor),
		ExpireWithdrawalsInteractor: expireWithdrawalsInteractor,
	}
}
