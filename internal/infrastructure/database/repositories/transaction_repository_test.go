package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veltmarket/wallet-service/internal/config"
	"github.com/veltmarket/wallet-service/internal/domain/models"
	apperrors "github.com/veltmarket/wallet-service/internal/errors"
)

var (
	userID = "f60ae2e1-ee72-4a6a-bef2-7cde5c83782f"
	db     *pgxpool.Pool
)

func TestDayStartUTC(t *testing.T) {
	t.Run("already UTC", func(t *testing.T) {
		in := time.Date(2024, 6, 1, 15, 42, 7, 0, time.UTC)
		assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), dayStartUTC(in))
	})

	t.Run("offset zone maps to the UTC calendar day", func(t *testing.T) {
		// 01:30 on June 1st in UTC+3 is still May 31st in UTC
		nairobi := time.FixedZone("EAT", 3*60*60)
		in := time.Date(2024, 6, 1, 1, 30, 0, 0, nairobi)
		assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), dayStartUTC(in))
	})

	t.Run("midnight is its own day start", func(t *testing.T) {
		in := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, in, dayStartUTC(in))
	})
}

func newPendingWithdrawal(amount decimal.Decimal) *models.Transaction {
	return &models.Transaction{
		ID:                uuid.New().String(),
		ReferenceID:       models.NewReferenceID(models.ReferencePrefixWithdrawal),
		UserID:            userID,
		Type:              models.TypeWithdrawal,
		Status:            models.StatusPending,
		Amount:            amount,
		Currency:          "USD",
		FeeAmount:         decimal.Zero,
		NetAmount:         amount,
		RecipientType:     models.RecipientUsername,
		RecipientUsername: "payee",
	}
}

func TestReserveWithdrawalDailyCap(t *testing.T) {
	setupDB()
	defer db.Close()

	err := truncateTransactionsTable(db)
	require.NoError(t, err)

	transactionRepo := NewTransactionRepositoryImpl(db)
	dailyCap := decimal.NewFromInt(10000)

	t.Run("reservation under the cap succeeds", func(t *testing.T) {
		stored, err := transactionRepo.ReserveWithdrawal(context.Background(), newPendingWithdrawal(decimal.NewFromInt(9000)), dailyCap)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("reservation over the remaining quota is rejected with quota detail", func(t *testing.T) {
		_, err := transactionRepo.ReserveWithdrawal(context.Background(), newPendingWithdrawal(decimal.NewFromInt(2000)), dailyCap)

		var limitErr *apperrors.LimitExceededError
		require.True(t, errors.As(err, &limitErr))
		assert.True(t, limitErr.WithdrawnToday.Equal(decimal.NewFromInt(9000)))
		assert.True(t, limitErr.Remaining.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("concurrent reservations never overshoot the cap", func(t *testing.T) {
		err = truncateTransactionsTable(db)
		require.NoError(t, err)

		// 40 workers racing for at most 20 slots of 500 each
		n := 40
		amount := decimal.NewFromInt(500)
		results := make(chan error, n)
		var wg sync.WaitGroup
		wg.Add(n)

		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, err := transactionRepo.ReserveWithdrawal(context.Background(), newPendingWithdrawal(amount), dailyCap)
				results <- err
			}()
		}

		wg.Wait()
		close(results)

		var accepted, rejected int
		for err := range results {
			if err == nil {
				accepted++
				continue
			}
			rejected++
			var limitErr *apperrors.LimitExceededError
			assert.True(t, errors.As(err, &limitErr), "unexpected error: %v", err)
		}
		assert.Equal(t, 20, accepted, "accepted reservations must exactly fill the cap")
		assert.Equal(t, n-20, rejected)

		var withdrawn decimal.Decimal
		err = db.QueryRow(
			context.Background(),
			"SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1 AND type = 'withdrawal'",
			userID,
		).Scan(&withdrawn)
		require.NoError(t, err)
		assert.True(t, withdrawn.LessThanOrEqual(dailyCap), "withdrawn %s exceeds the cap", withdrawn)
	})
}

func setupDB() {
	cnf := config.Load()

	poolConfig, err := pgxpool.ParseConfig(cnf.DSN())
	if err != nil {
		panic(err)
	}

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	db, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		panic(err)
	}
}

// Truncate transactions table
func truncateTransactionsTable(db *pgxpool.Pool) error {
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE transactions CASCADE")
	return err
}
