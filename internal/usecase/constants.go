package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a store transaction
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultStockCacheTTL bounds how stale a cached catalog listing can be
	DefaultStockCacheTTL = 30 * time.Second

	stockListCacheKey      = "stocks:all"
	stockListGenerationKey = "stocks:generation"
)
