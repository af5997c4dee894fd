// Package postgresql dials a pgx pool with bounded retries, so the service
// survives the database coming up after it does.
package postgresql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/veltmarket/wallet-service/pkg/util/repeat"
)

const ClientTimeout = 5 * time.Second

// NewClient builds the pool and pings it, retrying up to maxConnAttempts
// times with ClientTimeout between attempts.
func NewClient(cfg *pgxpool.Config, maxConnAttempts int) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := repeat.Repeat(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), ClientTimeout)
		defer cancel()

		var err error
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}
		return pool.Ping(ctx)
	}, maxConnAttempts, ClientTimeout)
	if err != nil {
		return nil, err
	}

	return pool, nil
}
