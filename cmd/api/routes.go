package main

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskcoin/backend/internal/auth"
	"github.com/taskcoin/backend/internal/config"
	"github.com/taskcoin/backend/internal/dashboard"
	"github.com/taskcoin/backend/internal/handlers"
	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/middleware"
	"github.com/taskcoin/backend/internal/repository"
	"github.com/taskcoin/backend/internal/router"
	"github.com/taskcoin/backend/internal/services"
)

// newAuthService builds the account service used by the API and the create-admin command.
func newAuthService(pool *pgxpool.Pool, cfg config.Config, logger *slog.Logger) (*ledger.Repository, auth.Service) {
	ledgerRepo := ledger.NewRepository(pool)
	authRepo := auth.NewRepository(pool)
	svc := auth.NewService(pool, authRepo, ledger.New(ledgerRepo), auth.Options{
		Secret:      cfg.Auth.JWTSecret,
		TokenTTL:    cfg.Auth.TokenTTL,
		WorkerBonus: cfg.Coins.WorkerBonus,
		BuyerBonus:  cfg.Coins.BuyerBonus,
	}, logger)
	return ledgerRepo, svc
}

// buildAPI wires repositories, services and handlers into the HTTP router.
// Coin-moving services share one ledger and one notifier.
func buildAPI(pool *pgxpool.Pool, cfg config.Config, notifier services.Notifier, logger *slog.Logger) (http.Handler, error) {
	validator, err := services.NewValidator()
	if err != nil {
		return nil, err
	}

	ledgerRepo, authSvc := newAuthService(pool, cfg, logger)
	coinLedger := ledger.New(ledgerRepo)

	accountRepo := repository.NewAccountRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)
	withdrawalRepo := repository.NewWithdrawalRepo(pool)
	reportRepo := repository.NewReportRepo(pool)
	purchaseRepo := repository.NewPurchaseRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)
	statsRepo := repository.NewStatsRepo(pool)

	taskStore := services.NewTaskStore(pool, taskRepo, submissionRepo, coinLedger, notifier, logger)
	workflow := services.NewSubmissionWorkflow(pool, taskRepo, taskStore, submissionRepo, accountRepo, coinLedger, notifier, logger)
	withdrawals := services.NewWithdrawalProcessor(pool, withdrawalRepo, coinLedger, notifier, services.WithdrawalPolicy{
		MinCoins:       cfg.Coins.WithdrawalMin,
		CoinsPerDollar: cfg.Coins.CoinsPerDollar,
		PaymentSystems: cfg.Coins.PaymentSystems,
	}, logger)
	reports := services.NewReportingSubsystem(reportRepo, submissionRepo, logger)
	purchases := services.NewCoinPurchaseLedger(pool, purchaseRepo, coinLedger, cfg.Coins.Packages, logger)
	accounts := services.NewAccountAdmin(pool, accountRepo, coinLedger, statsRepo, logger)

	return router.New(router.Deps{
		Auth:        auth.NewHandler(authSvc, validator, logger),
		Tasks:       &handlers.TaskHandler{Tasks: taskStore, Validator: validator, Logger: logger},
		Submissions: &handlers.SubmissionHandler{Submissions: workflow, Validator: validator, Logger: logger},
		Withdrawals: &handlers.WithdrawalHandler{Withdrawals: withdrawals, Validator: validator, Logger: logger},
		Reports:     &handlers.ReportHandler{Reports: reports, Validator: validator, Logger: logger},
		Payments:    &handlers.PaymentHandler{Purchases: purchases, Validator: validator, Logger: logger},
		Users:       &handlers.UserHandler{Accounts: accounts, Validator: validator, Logger: logger},
		Dashboard:   dashboard.NewHandler(statsRepo, notificationRepo, ledgerRepo, logger),

		Authenticate:   middleware.Authenticate(authSvc, accountRepo),
		RequestTimeout: cfg.Server.RequestTimeout,
	}), nil
}
