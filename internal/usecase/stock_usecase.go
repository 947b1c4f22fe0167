package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// StockUseCase manages the stock catalog.
type StockUseCase struct {
	txManager   TransactionManager
	stockRepo   StockRepository
	holdingRepo HoldingRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	listCache   *stockListCache
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewStockUseCase creates a new StockUseCase. A nil cache disables list caching.
func NewStockUseCase(
	txManager TransactionManager,
	stockRepo StockRepository,
	holdingRepo HoldingRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	cache Cache,
	cacheTTL time.Duration,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *StockUseCase {
	return &StockUseCase{
		txManager:   txManager,
		stockRepo:   stockRepo,
		holdingRepo: holdingRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		listCache:   newStockListCache(cache, cacheTTL, idGen, metrics),
		idGen:       idGen,
		metrics:     metrics,
	}
}

// StockInput describes a listing.
type StockInput struct {
	Symbol   string
	Name     string
	Price    uint64
	Quantity uint64
}

func (in StockInput) validate() error {
	return domain.ValidateListing(in.Symbol, in.Name, in.Price, in.Quantity)
}

func stockPayload(s *domain.Stock) map[string]any {
	return map[string]any{
		"symbol":             s.Symbol,
		"name":               s.Name,
		"price":              s.Price,
		"available_quantity": s.AvailableQuantity,
	}
}

// CreateStock lists a new stock. An existing symbol fails with domain.ErrStockExists.
func (uc *StockUseCase) CreateStock(ctx context.Context, input StockInput) (*domain.Stock, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stock := &domain.Stock{
		Symbol:            input.Symbol,
		Name:              input.Name,
		Price:             input.Price,
		AvailableQuantity: input.Quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		if err := uc.stockRepo.Create(txCtx, tx, stock); err != nil {
			return err
		}
		return emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen,
			domain.AggregateTypeStock, stock.Symbol, domain.EventTypeStockCreated,
			stockPayload(stock), now)
	})
	if err != nil {
		return nil, err
	}

	uc.listCache.invalidate(ctx)
	if uc.metrics != nil {
		uc.metrics.StocksCreated.Inc()
	}

	return stock, nil
}

// UpsertStock creates the listing or overwrites its name, price and supply.
// Existing holdings keep their price snapshot until the next trade.
func (uc *StockUseCase) UpsertStock(ctx context.Context, input StockInput) (*domain.Stock, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stock := &domain.Stock{
		Symbol:            input.Symbol,
		Name:              input.Name,
		Price:             input.Price,
		AvailableQuantity: input.Quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		existing, err := uc.stockRepo.GetBySymbolForUpdate(txCtx, tx, input.Symbol)
		switch {
		case err == nil:
			stock.CreatedAt = existing.CreatedAt
			stock.Version = existing.Version
		case errors.Is(err, domain.ErrStockNotFound):
			existing = nil
		default:
			return err
		}

		if err := uc.stockRepo.Upsert(txCtx, tx, stock); err != nil {
			return err
		}

		if err := emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen,
			domain.AggregateTypeStock, stock.Symbol, domain.EventTypeStockUpserted,
			stockPayload(stock), now); err != nil {
			return err
		}

		var before domain.JSON
		if existing != nil {
			before = domain.MarshalState(existing)
		}
		return uc.audit(txCtx, tx, domain.AuditActionStockUpsert, domain.AggregateTypeStock, stock.Symbol,
			before, domain.MarshalState(stock), now)
	})
	if err != nil {
		return nil, err
	}

	uc.listCache.invalidate(ctx)
	if uc.metrics != nil {
		uc.metrics.StocksUpserted.Inc()
		uc.metrics.AuditLogsCreated.WithLabelValues(string(domain.AuditActionStockUpsert), string(domain.AuditStatusSuccess)).Inc()
	}

	return stock, nil
}

// DeleteStock removes a listing. It is refused while any holding references it.
func (uc *StockUseCase) DeleteStock(ctx context.Context, symbol string) (*domain.Stock, error) {
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}

	var deleted *domain.Stock
	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		stock, err := uc.stockRepo.GetBySymbolForUpdate(txCtx, tx, symbol)
		if err != nil {
			return err
		}

		held, err := uc.holdingRepo.CountBySymbol(txCtx, tx, symbol)
		if err != nil {
			return err
		}
		if held > 0 {
			return domain.ErrStockHasHoldings
		}

		if err := uc.stockRepo.Delete(txCtx, tx, symbol); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen,
			domain.AggregateTypeStock, symbol, domain.EventTypeStockDeleted,
			stockPayload(stock), now); err != nil {
			return err
		}

		if err := uc.audit(txCtx, tx, domain.AuditActionStockDelete, domain.AggregateTypeStock, symbol,
			domain.MarshalState(stock), nil, now); err != nil {
			return err
		}

		deleted = stock
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.listCache.invalidate(ctx)
	if uc.metrics != nil {
		uc.metrics.StocksDeleted.Inc()
		uc.metrics.AuditLogsCreated.WithLabelValues(string(domain.AuditActionStockDelete), string(domain.AuditStatusSuccess)).Inc()
	}

	return deleted, nil
}

// ListStocks returns every listing ordered by symbol. The caller must hold an account.
func (uc *StockUseCase) ListStocks(ctx context.Context, identity string) ([]*domain.Stock, error) {
	if _, err := uc.accountRepo.GetByID(ctx, identity); err != nil {
		return nil, err
	}

	stocks, generation, ok := uc.listCache.get(ctx)
	if ok {
		return stocks, nil
	}

	stocks, err := uc.stockRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	uc.listCache.put(ctx, generation, stocks)
	return stocks, nil
}

func (uc *StockUseCase) audit(
	ctx context.Context,
	tx Transaction,
	action domain.AuditAction,
	resourceType, resourceID string,
	before, after domain.JSON,
	now time.Time,
) error {
	return writeAudit(ctx, tx, uc.auditRepo, uc.idGen, action, resourceType, resourceID, before, after, now)
}
