package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/stockledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	// Create inserts a new account, failing with domain.ErrAccountExists.
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, identity string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, identity string) (*domain.Account, error)
	// Update writes the account if its stored version still matches
	// account.Version and bumps the version, else domain.ErrConflict.
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	List(ctx context.Context) ([]*domain.Account, error)
}

// StockRepository defines data access for the stock catalog.
type StockRepository interface {
	// Create inserts a new listing, failing with domain.ErrStockExists.
	Create(ctx context.Context, tx Transaction, stock *domain.Stock) error
	// Upsert inserts or overwrites the listing for stock.Symbol.
	Upsert(ctx context.Context, tx Transaction, stock *domain.Stock) error
	GetBySymbol(ctx context.Context, symbol string) (*domain.Stock, error)
	GetBySymbolForUpdate(ctx context.Context, tx Transaction, symbol string) (*domain.Stock, error)
	Update(ctx context.Context, tx Transaction, stock *domain.Stock) error
	Delete(ctx context.Context, tx Transaction, symbol string) error
	List(ctx context.Context) ([]*domain.Stock, error)
}

// HoldingRepository defines data access for holdings.
type HoldingRepository interface {
	Get(ctx context.Context, key domain.HoldingKey) (*domain.Holding, error)
	GetForUpdate(ctx context.Context, tx Transaction, key domain.HoldingKey) (*domain.Holding, error)
	// Save inserts a holding with Version 0 or compare-and-sets an existing one.
	Save(ctx context.Context, tx Transaction, holding *domain.Holding) error
	Delete(ctx context.Context, tx Transaction, key domain.HoldingKey) error
	ListByOwner(ctx context.Context, owner string) ([]*domain.Holding, error)
	CountBySymbol(ctx context.Context, tx Transaction, symbol string) (int, error)
	DeleteAll(ctx context.Context, tx Transaction) (int, error)
	List(ctx context.Context) ([]*domain.Holding, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation that failed with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim whose request did not succeed.
	Release(ctx context.Context, key string) error
}
