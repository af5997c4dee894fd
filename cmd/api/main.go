package main

import (
	"context"

	"github.com/veltmarket/wallet-service/internal/app"
	"github.com/veltmarket/wallet-service/internal/config"
	"github.com/veltmarket/wallet-service/internal/di"
	"github.com/veltmarket/wallet-service/internal/errors"
	"github.com/veltmarket/wallet-service/internal/infrastructure/api/routers"
	"github.com/veltmarket/wallet-service/internal/infrastructure/database/db_client"
	"github.com/veltmarket/wallet-service/pkg/log"
)

const (
	appName = "wallet-service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	log.Init(appName, log.WithConsoleLogger())
	logger := log.GetLogger()

	pgClient := db_client.NewPGClient(cfg.PostgreSQL)
	db, err := pgClient.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToConnectToTheDatabase)
	}

	container := di.NewContainer(db, cfg)

	expiry := app.NewExpireWithdrawalsProcess(container.ExpireWithdrawalsInteractor, cfg.Process)
	go expiry.Run(ctx)

	router := routers.NewRouter(container, db)
	service := app.NewService(cfg)
	service.Run(ctx, router)
}
