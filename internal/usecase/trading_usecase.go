package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
)

// TradingUseCase executes buy and sell orders against the catalog.
type TradingUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	stockRepo   StockRepository
	holdingRepo HoldingRepository
	outboxRepo  OutboxRepository
	listCache   *stockListCache
	idGen       IDGenerator
	retrier     Retrier
	metrics     *metrics.Metrics
}

// NewTradingUseCase creates a new TradingUseCase. Trades change available
// quantities, so they invalidate the catalog listing in cache; nil disables it.
func NewTradingUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	stockRepo StockRepository,
	holdingRepo HoldingRepository,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *TradingUseCase {
	return &TradingUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		stockRepo:   stockRepo,
		holdingRepo: holdingRepo,
		outboxRepo:  outboxRepo,
		listCache:   newStockListCache(cache, 0, idGen, metrics),
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
	}
}

// TradeInput represents a buy or sell order.
type TradeInput struct {
	Identity string
	Symbol   string
	Quantity uint64
}

// Buy purchases input.Quantity shares at the current price and returns the
// caller's account after the debit.
func (uc *TradingUseCase) Buy(ctx context.Context, input TradeInput) (*domain.Account, error) {
	return uc.execute(ctx, domain.TradeSideBuy, input)
}

// Sell disposes of input.Quantity shares at the current price and returns the
// caller's account after the credit.
func (uc *TradingUseCase) Sell(ctx context.Context, input TradeInput) (*domain.Account, error) {
	return uc.execute(ctx, domain.TradeSideSell, input)
}

func (uc *TradingUseCase) execute(ctx context.Context, side domain.TradeSide, input TradeInput) (*domain.Account, error) {
	start := time.Now()

	var (
		account *domain.Account
		event   domain.TradeExecutedEvent
	)
	err := retry(ctx, uc.retrier, func() error {
		return runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
			var err error
			if side == domain.TradeSideSell {
				account, event, err = uc.sell(txCtx, tx, input)
			} else {
				account, event, err = uc.buy(txCtx, tx, input)
			}
			if err != nil {
				return err
			}

			return emitEvent(txCtx, tx, uc.outboxRepo, uc.idGen,
				domain.AggregateTypeHolding, input.Identity+"/"+input.Symbol, side.EventType(),
				event.Payload(), account.UpdatedAt)
		})
	})

	if uc.metrics != nil {
		uc.metrics.TradeDuration.WithLabelValues(string(side)).Observe(time.Since(start).Seconds())
		if err != nil {
			uc.metrics.TradeErrors.WithLabelValues(string(side), domain.KindOf(err).String()).Inc()
		} else {
			uc.metrics.TradesExecuted.WithLabelValues(string(side)).Inc()
			uc.metrics.TradeAmount.WithLabelValues(string(side)).Observe(float64(event.Amount))
		}
	}

	if err != nil {
		return nil, err
	}

	uc.listCache.invalidate(ctx)
	return account, nil
}

// buy checks, in order: account, listing, quantity, funds, supply. Nothing is
// written until every check has passed.
func (uc *TradingUseCase) buy(ctx context.Context, tx Transaction, input TradeInput) (*domain.Account, domain.TradeExecutedEvent, error) {
	var event domain.TradeExecutedEvent

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.Identity)
	if err != nil {
		return nil, event, err
	}

	stock, err := uc.stockRepo.GetBySymbolForUpdate(ctx, tx, input.Symbol)
	if err != nil {
		return nil, event, err
	}

	if err := domain.ValidateQuantity(input.Quantity); err != nil {
		return nil, event, err
	}

	cost, err := stock.Cost(input.Quantity)
	if err != nil {
		return nil, event, err
	}

	balance, err := account.Debit(cost)
	if err != nil {
		return nil, event, err
	}

	if err := stock.Reserve(input.Quantity); err != nil {
		return nil, event, err
	}

	key := domain.HoldingKey{Owner: input.Identity, Symbol: input.Symbol}
	holding, err := uc.holdingRepo.GetForUpdate(ctx, tx, key)
	switch {
	case errors.Is(err, domain.ErrHoldingNotFound):
		holding = &domain.Holding{Owner: key.Owner, Symbol: key.Symbol}
	case err != nil:
		return nil, event, err
	}

	quantity, err := domain.AddUint64(holding.Quantity, input.Quantity)
	if err != nil {
		return nil, event, err
	}
	if err := holding.Revalue(quantity, stock.Price); err != nil {
		return nil, event, err
	}

	now := time.Now().UTC()
	holding.StockName = stock.Name
	holding.UpdatedAt = now
	stock.UpdatedAt = now
	account.Balance = balance
	account.UpdatedAt = now

	if err := uc.holdingRepo.Save(ctx, tx, holding); err != nil {
		return nil, event, err
	}
	if err := uc.stockRepo.Update(ctx, tx, stock); err != nil {
		return nil, event, err
	}
	if err := uc.accountRepo.Update(ctx, tx, account); err != nil {
		return nil, event, err
	}

	event = domain.TradeExecutedEvent{
		Owner:          input.Identity,
		Symbol:         input.Symbol,
		Side:           domain.TradeSideBuy,
		Quantity:       input.Quantity,
		Price:          stock.Price,
		Amount:         cost,
		BalanceAfter:   account.Balance,
		HoldingAfter:   holding.Quantity,
		AvailableAfter: stock.AvailableQuantity,
	}
	return account, event, nil
}

// sell checks, in order: account, listing, quantity, owned shares. A holding
// sold down to zero is removed.
func (uc *TradingUseCase) sell(ctx context.Context, tx Transaction, input TradeInput) (*domain.Account, domain.TradeExecutedEvent, error) {
	var event domain.TradeExecutedEvent

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.Identity)
	if err != nil {
		return nil, event, err
	}

	stock, err := uc.stockRepo.GetBySymbolForUpdate(ctx, tx, input.Symbol)
	if err != nil {
		return nil, event, err
	}

	if err := domain.ValidateQuantity(input.Quantity); err != nil {
		return nil, event, err
	}

	key := domain.HoldingKey{Owner: input.Identity, Symbol: input.Symbol}
	holding, err := uc.holdingRepo.GetForUpdate(ctx, tx, key)
	switch {
	case errors.Is(err, domain.ErrHoldingNotFound):
		return nil, event, domain.ErrInsufficientStock
	case err != nil:
		return nil, event, err
	}
	if holding.Quantity < input.Quantity {
		return nil, event, domain.ErrInsufficientStock
	}

	proceeds, err := stock.Cost(input.Quantity)
	if err != nil {
		return nil, event, err
	}

	balance, err := account.Credit(proceeds)
	if err != nil {
		return nil, event, err
	}

	if err := stock.Release(input.Quantity); err != nil {
		return nil, event, err
	}

	remaining := holding.Quantity - input.Quantity
	if remaining > 0 {
		if err := holding.Revalue(remaining, stock.Price); err != nil {
			return nil, event, err
		}
	}

	now := time.Now().UTC()
	stock.UpdatedAt = now
	account.Balance = balance
	account.UpdatedAt = now

	if remaining == 0 {
		if err := uc.holdingRepo.Delete(ctx, tx, key); err != nil {
			return nil, event, err
		}
	} else {
		holding.StockName = stock.Name
		holding.UpdatedAt = now
		if err := uc.holdingRepo.Save(ctx, tx, holding); err != nil {
			return nil, event, err
		}
	}
	if err := uc.stockRepo.Update(ctx, tx, stock); err != nil {
		return nil, event, err
	}
	if err := uc.accountRepo.Update(ctx, tx, account); err != nil {
		return nil, event, err
	}

	event = domain.TradeExecutedEvent{
		Owner:          input.Identity,
		Symbol:         input.Symbol,
		Side:           domain.TradeSideSell,
		Quantity:       input.Quantity,
		Price:          stock.Price,
		Amount:         proceeds,
		BalanceAfter:   account.Balance,
		HoldingAfter:   remaining,
		AvailableAfter: stock.AvailableQuantity,
	}
	return account, event, nil
}
