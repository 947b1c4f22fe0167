package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/stockledger/internal/adapter/http"
	"github.com/iho/stockledger/internal/adapter/http/handler"
	"github.com/iho/stockledger/internal/adapter/http/middleware"
	"github.com/iho/stockledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/stockledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/stockledger/internal/adapter/repository/redis"
	"github.com/iho/stockledger/internal/infrastructure/auth"
	"github.com/iho/stockledger/internal/infrastructure/config"
	"github.com/iho/stockledger/internal/infrastructure/eventpublisher"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	"github.com/iho/stockledger/internal/infrastructure/postgres"
	"github.com/iho/stockledger/internal/infrastructure/redis"
	"github.com/iho/stockledger/internal/usecase"
)

// repositories is the storage backend selected by STORAGE_BACKEND.
type repositories struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	stocks    usecase.StockRepository
	holdings  usecase.HoldingRepository
	outbox    usecase.OutboxRepository
	audit     usecase.AuditRepository
	retrier   usecase.Retrier
}

type app struct {
	handler   http.Handler
	publisher *eventpublisher.EventPublisher
	limiter   *middleware.RateLimiter
	closers   []func()
}

// Close releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{}
	checks := map[string]handler.Check{}

	repos, err := a.openStorage(ctx, cfg, log, checks)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, PoolSize: cfg.RedisPoolSize})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		cache = redisRepo.NewCache(client)
		idempotency = redisRepo.NewIdempotencyStore(client)
		log.Info().Msg("connected to redis")
	}

	ids := postgresRepo.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(repos.txManager, repos.accounts, repos.outbox, ids, repos.retrier, m)
	stockUC := usecase.NewStockUseCase(repos.txManager, repos.stocks, repos.holdings, repos.accounts,
		repos.outbox, repos.audit, cache, cfg.StockCacheTTL, ids, m)
	tradingUC := usecase.NewTradingUseCase(repos.txManager, repos.accounts, repos.stocks, repos.holdings,
		repos.outbox, cache, ids, repos.retrier, m)
	portfolioUC := usecase.NewPortfolioUseCase(repos.txManager, repos.accounts, repos.stocks, repos.holdings,
		repos.outbox, repos.audit, ids, m)
	reconUC := usecase.NewReconciliationUseCase(repos.accounts, repos.stocks, repos.holdings)

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}
	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	}

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: repos.outbox,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Logger:     log,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:    handler.NewAccountHandler(accountUC),
		StockHandler:      handler.NewStockHandler(stockUC),
		TradeHandler:      handler.NewTradeHandler(tradingUC),
		PortfolioHandler:  handler.NewPortfolioHandler(portfolioUC),
		AdminHandler:      handler.NewAdminHandler(portfolioUC, reconUC),
		HealthHandler:     handler.NewHealthHandler(checks),
		Logger:            log,
		Metrics:           m,
		JWTManager:        jwtManager,
		RateLimiter:       a.limiter,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		IdempotencyStore:  idempotency,
		IdempotencyTTL:    cfg.IdempotencyTTL,
	})

	return a, nil
}

func (a *app) openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]handler.Check) (*repositories, error) {
	if cfg.StorageBackend == config.StorageMemory {
		store := memory.NewStore()
		log.Warn().Msg("using in-memory storage; state is lost on restart")
		return &repositories{
			txManager: memory.NewTxManager(store),
			accounts:  memory.NewAccountRepository(store),
			stocks:    memory.NewStockRepository(store),
			holdings:  memory.NewHoldingRepository(store),
			outbox:    memory.NewOutboxRepository(store),
			audit:     memory.NewAuditRepository(store),
		}, nil
	}

	if cfg.MigrationsEnabled {
		if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()
	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	checks["postgres"] = pool.Ping
	log.Info().Msg("connected to postgres")

	return &repositories{
		txManager: postgresRepo.NewTxManager(pool),
		accounts:  postgresRepo.NewAccountRepository(pool),
		stocks:    postgresRepo.NewStockRepository(pool),
		holdings:  postgresRepo.NewHoldingRepository(pool),
		outbox:    postgresRepo.NewOutboxRepository(pool),
		audit:     postgresRepo.NewAuditRepository(pool),
		retrier:   postgresRepo.NewRetrier(log),
	}, nil
}
