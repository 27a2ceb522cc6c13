package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/amoria-global/faxon-sub002/internal/domain/entity"
	pport "github.com/amoria-global/faxon-sub002/internal/domain/port/provider"
	"github.com/amoria-global/faxon-sub002/internal/domain/usecase/currency"
	"github.com/amoria-global/faxon-sub002/internal/domain/usecase/distribution"
	transactionUseCase "github.com/amoria-global/faxon-sub002/internal/domain/usecase/transaction"
	walletUseCase "github.com/amoria-global/faxon-sub002/internal/domain/usecase/wallet"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/api/handler"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/api/routes"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/database"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/logger"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/metrics"
	notificationAdapter "github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/notification"
	providerAdapter "github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/provider"
	ratesAdapter "github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/rates"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/repository"
	timeProvider "github.com/amoria-global/faxon-sub002/internal/infrastructure/adapter/time"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/config"
	"github.com/amoria-global/faxon-sub002/internal/infrastructure/scheduler"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == "production")
	tp := timeProvider.NewRealTimeProvider()

	// Database
	dbManager := database.NewManager(database.CreateConfigFromAppConfig(cfg), appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer func() {
		_ = dbManager.Close()
	}()

	if err := dbManager.Migrate(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	transactionRepo := repository.NewTransactionRepository(dbManager.DB(), appLogger)
	walletRepo := repository.NewWalletRepository(dbManager.DB(), appLogger)
	uow := dbManager.CreateUnitOfWork()

	// Outbound adapters
	promMetrics := metrics.NewPrometheusMetrics()
	notifier := notificationAdapter.NewHTTPPublisher(cfg.Notification, appLogger)
	rateSource := ratesAdapter.NewHTTPRateSource(cfg.Rates, appLogger, tp)

	registry := pport.NewRegistry(
		providerAdapter.NewMobileMoneyAdapter(cfg.Providers.MobileMoney, appLogger),
		providerAdapter.NewCardAdapter(cfg.Providers.Card, appLogger),
		providerAdapter.NewBankTransferAdapter(cfg.Providers.BankTransfer, appLogger),
	)

	// Use cases
	converter := currency.NewConverter(rateSource, tp, appLogger, currency.Config{
		SpreadBps: cfg.Currency.SpreadBps,
		CacheTTL:  cfg.Currency.RateCacheTTL,
	})

	rules, err := buildSplitRules(cfg.Split)
	if err != nil {
		appLogger.Error("Invalid split configuration", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	engine := distribution.NewEngine(uow, transactionRepo, notifier, appLogger, tp, promMetrics, distribution.Config{
		Rules:             rules,
		PlatformAccountID: cfg.Split.PlatformAccountID,
		MaxAttempts:       cfg.Distribution.MaxAttempts,
	})

	reconciler := transactionUseCase.NewReconciler(
		transactionRepo,
		converter,
		engine,
		notifier,
		appLogger,
		tp,
		promMetrics,
		cfg.Currency.SettlementCurrency,
	)

	transactionService := transactionUseCase.NewService(
		transactionRepo,
		registry,
		reconciler,
		appLogger,
		tp,
		cfg.Reconciliation.SubmitTimeout,
	)

	walletService := walletUseCase.NewService(walletRepo, appLogger)

	// Recovery sweeps
	sweeper := scheduler.NewSweeper(transactionRepo, registry, reconciler, engine, appLogger, tp, promMetrics, scheduler.SweeperConfig{
		PollBatchSize:           cfg.Reconciliation.PollBatchSize,
		QueryTimeout:            cfg.Reconciliation.QueryTimeout,
		MaxAge:                  cfg.Reconciliation.MaxAge,
		DistributionBatchSize:   cfg.Distribution.BatchSize,
		MaxDistributionAttempts: cfg.Distribution.MaxAttempts,
		BackoffBase:             cfg.Distribution.BackoffBase,
	})
	sched := scheduler.NewScheduler(sweeper, appLogger)
	if err := sched.Register(cfg.Reconciliation.PollInterval, cfg.Distribution.SweepInterval); err != nil {
		appLogger.Error("Failed to register sweeps", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	sched.Start()

	// HTTP layer
	transactionHandler := handler.NewTransactionHandler(transactionService, engine, appLogger)
	webhookHandler := handler.NewWebhookHandler(registry, reconciler, appLogger)
	walletHandler := handler.NewWalletHandler(walletService, cfg.Currency.SettlementCurrency, appLogger)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger)
	routes.SetupRoutes(router, transactionHandler, webhookHandler, walletHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	// Stop accepting sweep work before draining in-flight requests
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	_ = appLogger.Flush()
	appLogger.Info("Server exited gracefully", nil)
}

// buildSplitRules validates the configured split tables once at startup
func buildSplitRules(cfg config.SplitConfig) (distribution.Rules, error) {
	withAgent, err := entity.NewSplitRule(cfg.WithAgent.HostPct, cfg.WithAgent.AgentPct, cfg.WithAgent.PlatformPct)
	if err != nil {
		return distribution.Rules{}, fmt.Errorf("agent split table: %w", err)
	}
	withoutAgent, err := entity.NewSplitRule(cfg.WithoutAgent.HostPct, cfg.WithoutAgent.AgentPct, cfg.WithoutAgent.PlatformPct)
	if err != nil {
		return distribution.Rules{}, fmt.Errorf("agentless split table: %w", err)
	}
	return distribution.Rules{WithAgent: withAgent, WithoutAgent: withoutAgent}, nil
}
