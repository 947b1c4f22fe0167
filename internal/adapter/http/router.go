package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/stockledger/internal/adapter/http/handler"
	"github.com/iho/stockledger/internal/adapter/http/middleware"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	"github.com/iho/stockledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	StockHandler     *handler.StockHandler
	TradeHandler     *handler.TradeHandler
	PortfolioHandler *handler.PortfolioHandler
	AdminHandler     *handler.AdminHandler
	HealthHandler    *handler.HealthHandler

	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// JWTManager enables bearer tokens; nil trusts the development headers.
	JWTManager *auth.JWTManager
	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that sets them.
	TrustProxyHeaders bool
	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
	// IdempotencyStore is optional.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(middleware.AuthConfig{
			JWTManager: cfg.JWTManager,
			Metrics:    cfg.Metrics,
		}))

		// Keys are scoped to the principal, so this runs after auth
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/account", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.Get)
			r.Post("/topup", cfg.AccountHandler.TopUp)
		})

		r.Route("/stocks", func(r chi.Router) {
			r.Post("/", cfg.StockHandler.Create)
			r.Get("/", cfg.StockHandler.List)
			r.Put("/{symbol}", cfg.StockHandler.Upsert)
			r.Delete("/{symbol}", cfg.StockHandler.Delete)
		})

		r.Route("/trades", func(r chi.Router) {
			r.Post("/buy", cfg.TradeHandler.Buy)
			r.Post("/sell", cfg.TradeHandler.Sell)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", cfg.PortfolioHandler.Get)
			r.Get("/{symbol}", cfg.PortfolioHandler.GetStock)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Delete("/holdings", cfg.AdminHandler.ResetHoldings)
			r.Get("/reconciliation", cfg.AdminHandler.Reconcile)
		})
	})

	return r
}
