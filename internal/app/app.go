package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/finovo/recharge-wallet/internal/api"
	"github.com/finovo/recharge-wallet/internal/config"
	"github.com/finovo/recharge-wallet/internal/db"
	"github.com/finovo/recharge-wallet/internal/gateway"
	"github.com/finovo/recharge-wallet/internal/idempotency"
	"github.com/finovo/recharge-wallet/internal/observability"
	"github.com/finovo/recharge-wallet/internal/repository"
	"github.com/finovo/recharge-wallet/internal/service"
	"github.com/finovo/recharge-wallet/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run bootstraps the HTTP server and the status poller, blocking until
// shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	store := repository.NewStore(pool)
	idemStore := idempotency.NewStore(redisClient, store.Queries(), cfg.IdempotencyTTL)

	gw := gateway.NewMockGateway()

	auditSvc := service.NewAuditService(store)
	walletSvc := service.NewWalletService(store)
	commissionSvc := service.NewCommissionService(store)
	chargeSlabSvc := service.NewChargeSlabService(store)
	operatorSvc := service.NewOperatorService(store)
	topupSvc := service.NewTopupService(store, auditSvc, cfg.TopupHMACKey, cfg.TopupSkipSignature)
	transactionSvc := service.NewTransactionService(store, commissionSvc, chargeSlabSvc, operatorSvc, auditSvc, gw, cfg.StatusCallTimeout)

	if err := operatorSvc.ValidateProviderProfiles(ctx); err != nil {
		return fmt.Errorf("validate provider profiles: %w", err)
	}

	poller := worker.NewStatusPoller(gw, transactionSvc, worker.StatusPollerOptions{
		PollInterval: cfg.StatusPollInterval,
		BatchSize:    cfg.StatusPollBatchSize,
		Quiescence:   cfg.StatusQuiescence,
		CallDelay:    cfg.StatusCallDelay,
		CallTimeout:  cfg.StatusCallTimeout,
		MaxErrors:    cfg.BreakerMaxErrors,
		Cooldown:     cfg.BreakerCooldown,
	})
	stopPoller := poller.Run(ctx)
	logger.Info("status poller started",
		zap.Duration("interval", cfg.StatusPollInterval),
		zap.Int32("batch", cfg.StatusPollBatchSize))

	router := api.NewRouter(cfg, logger, pool, redisClient, idemStore, api.Services{
		Wallets:      walletSvc,
		Transactions: transactionSvc,
		Commissions:  commissionSvc,
		ChargeSlabs:  chargeSlabSvc,
		Operators:    operatorSvc,
		Topups:       topupSvc,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping status poller")
	stopPoller()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
