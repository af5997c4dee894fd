package app

import (
	"context"
	"strconv"
	"time"

	"github.com/veltmarket/wallet-service/internal/config"
	"github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/pkg/log"
)

type ExpireWithdrawalsHandler interface {
	Execute(ctx context.Context) error
}

// ExpireWithdrawalsProcess periodically fails pending withdrawals whose
// verification codes have lapsed.
type ExpireWithdrawalsProcess struct {
	handler ExpireWithdrawalsHandler
	config  config.Process
}

func NewExpireWithdrawalsProcess(h ExpireWithdrawalsHandler, cfg config.Process) *ExpireWithdrawalsProcess {
	return &ExpireWithdrawalsProcess{handler: h, config: cfg}
}

// Run runs the expiry process until the context is cancelled.
func (p *ExpireWithdrawalsProcess) Run(ctx context.Context) error {
	logger := log.GetLogger()

	interval, err := strconv.Atoi(p.config.Interval)
	if err != nil {
		return err
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			timeout, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := p.handler.Execute(timeout); err != nil {
				logger.Error().Err(err).Msg(errors.ErrFailedExpireWithdrawals)
			}
			cancel()
		}
	}
}
