package api

import (
	"net/http"

	"github.com/finovo/recharge-wallet/internal/api/handler"
	"github.com/finovo/recharge-wallet/internal/api/middleware"
	"github.com/finovo/recharge-wallet/internal/api/spec"
	"github.com/finovo/recharge-wallet/internal/config"
	"github.com/finovo/recharge-wallet/internal/idempotency"
	"github.com/finovo/recharge-wallet/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services groups the wired service layer handed to the router.
type Services struct {
	Wallets      *service.WalletService
	Transactions *service.TransactionService
	Commissions  *service.CommissionService
	ChargeSlabs  *service.ChargeSlabService
	Operators    *service.OperatorService
	Topups       *service.TopupService
}

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	redis     redis.Cmdable
	idemStore *idempotency.Store
	services  Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, rdb redis.Cmdable, idemStore *idempotency.Store, services Services) *Router {
	return &Router{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		redis:     rdb,
		idemStore: idemStore,
		services:  services,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	auth := middleware.NewAuthenticator(api.cfg.JWTSecret, api.cfg.JWTIssuer, api.cfg.JWTAudience)

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	walletHandler := handler.NewWalletHandler(api.services.Wallets, api.services.Topups)
	transactionHandler := handler.NewTransactionHandler(api.services.Transactions)
	commissionHandler := handler.NewCommissionHandler(api.services.Commissions)
	chargeSlabHandler := handler.NewChargeSlabHandler(api.services.ChargeSlabs)
	operatorHandler := handler.NewOperatorHandler(api.services.Operators)
	webhookHandler := handler.NewWebhookHandler(api.services.Topups)

	// Operational surface.
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Webhooks authenticate via HMAC signature, not JWT.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/webhooks/topup", webhookHandler.HandleTopupWebhook)
	})

	// Authenticated user surface.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/wallets/{id}", walletHandler.GetWallet)
		r.Get("/v1/wallets/{id}/balance", walletHandler.GetBalance)
		r.Get("/v1/wallets/{id}/transactions", transactionHandler.ListByWallet)
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/wallets/{id}/topups", walletHandler.InitiateTopup)

		r.Get("/v1/transactions/{id}", transactionHandler.Get)
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/transactions", transactionHandler.Create)

		r.Get("/v1/operators/{code}", operatorHandler.Get)
	})

	// Admin surface.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(middleware.RequireRole("admin"))
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Post("/v1/wallets", walletHandler.CreateWallet)

		r.Get("/v1/admin/transactions/awaiting-approval", transactionHandler.ListAwaitingApproval)
		r.Post("/v1/admin/transactions/{id}/approve", transactionHandler.Approve)
		r.Post("/v1/admin/transactions/{id}/reject", transactionHandler.Reject)

		r.Post("/v1/admin/commission/schemes", commissionHandler.CreateScheme)
		r.Post("/v1/admin/commission/rules", commissionHandler.CreateRule)
		r.Get("/v1/admin/commission/rules", commissionHandler.ListRules)

		r.Post("/v1/admin/charge-slabs", chargeSlabHandler.Create)
		r.Get("/v1/admin/charge-slabs", chargeSlabHandler.List)
		r.Delete("/v1/admin/charge-slabs/{id}", chargeSlabHandler.Deactivate)

		r.Post("/v1/admin/operators", operatorHandler.Create)
		r.Put("/v1/admin/operators/{code}", operatorHandler.Update)
		r.Get("/v1/admin/operators", operatorHandler.List)
	})

	return r
}
