package usecase

import (
	"context"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// PortfolioUseCase serves owner-filtered views of holdings.
type PortfolioUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	stockRepo   StockRepository
	holdingRepo HoldingRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewPortfolioUseCase creates a new PortfolioUseCase.
func NewPortfolioUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	stockRepo StockRepository,
	holdingRepo HoldingRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *PortfolioUseCase {
	return &PortfolioUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		stockRepo:   stockRepo,
		holdingRepo: holdingRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// GetPortfolio returns the caller's holdings ordered by symbol with their summed value.
func (uc *PortfolioUseCase) GetPortfolio(ctx context.Context, identity string) (*domain.Portfolio, error) {
	if _, err := uc.accountRepo.GetByID(ctx, identity); err != nil {
		return nil, err
	}

	holdings, err := uc.holdingRepo.ListByOwner(ctx, identity)
	if err != nil {
		return nil, err
	}

	portfolio := &domain.Portfolio{Holdings: holdings}
	for _, h := range holdings {
		total, err := domain.AddUint64(portfolio.TotalAsset, h.Total)
		if err != nil {
			return nil, err
		}
		portfolio.TotalAsset = total
	}

	return portfolio, nil
}

// GetStockDetails returns the caller's holding of symbol.
func (uc *PortfolioUseCase) GetStockDetails(ctx context.Context, identity, symbol string) (*domain.Holding, error) {
	if _, err := uc.accountRepo.GetByID(ctx, identity); err != nil {
		return nil, err
	}

	if _, err := uc.stockRepo.GetBySymbol(ctx, symbol); err != nil {
		return nil, err
	}

	return uc.holdingRepo.Get(ctx, domain.HoldingKey{Owner: identity, Symbol: symbol})
}

// ResetHoldings removes every holding in the ledger and returns how many were
// removed. Only administrators may call it.
func (uc *PortfolioUseCase) ResetHoldings(ctx context.Context, principal domain.Principal) (int, error) {
	if !principal.Role.CanAdminister() {
		return 0, domain.ErrInsufficientRole
	}

	ctx = domain.ContextWithPrincipal(ctx, principal)

	var removed int
	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		n, err := uc.holdingRepo.DeleteAll(txCtx, tx)
		if err != nil {
			return err
		}
		removed = n

		now := time.Now().UTC()
		if err := emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen,
			domain.AggregateTypeHolding, "*", domain.EventTypeHoldingsReset,
			map[string]any{"removed": n, "by": principal.ID}, now); err != nil {
			return err
		}

		return writeAudit(txCtx, tx, uc.auditRepo, uc.idGen,
			domain.AuditActionHoldingsReset, domain.AggregateTypeHolding, "*",
			nil, domain.JSON{"removed": n}, now)
	})
	if err != nil {
		return 0, err
	}

	if uc.metrics != nil {
		uc.metrics.HoldingsReset.Inc()
		uc.metrics.AuditLogsCreated.WithLabelValues(string(domain.AuditActionHoldingsReset), string(domain.AuditStatusSuccess)).Inc()
	}

	return removed, nil
}
