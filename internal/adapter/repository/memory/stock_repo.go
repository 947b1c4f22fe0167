package memory

import (
	"context"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// StockRepository implements usecase.StockRepository.
type StockRepository struct {
	store *Store
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(store *Store) *StockRepository {
	return &StockRepository{store: store}
}

func cloneStock(s *domain.Stock) *domain.Stock {
	c := *s
	return &c
}

// Create inserts a new listing.
func (r *StockRepository) Create(_ context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	if _, ok := r.store.stocks.Get(&domain.Stock{Symbol: stock.Symbol}); ok {
		return domain.ErrStockExists
	}

	stock.Version = 1
	put(t, r.store.stocks, cloneStock(stock))
	return nil
}

// Upsert inserts or overwrites a listing.
func (r *StockRepository) Upsert(_ context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	stock.Version = 1
	if current, ok := r.store.stocks.Get(&domain.Stock{Symbol: stock.Symbol}); ok {
		stock.Version = current.Version + 1
	}
	put(t, r.store.stocks, cloneStock(stock))
	return nil
}

// GetBySymbol retrieves a listing.
func (r *StockRepository) GetBySymbol(_ context.Context, symbol string) (*domain.Stock, error) {
	defer r.store.rlock()()
	return r.get(symbol)
}

// GetBySymbolForUpdate retrieves a listing inside tx.
func (r *StockRepository) GetBySymbolForUpdate(_ context.Context, tx usecase.Transaction, symbol string) (*domain.Stock, error) {
	if _, err := txFrom(r.store, tx); err != nil {
		return nil, err
	}
	return r.get(symbol)
}

func (r *StockRepository) get(symbol string) (*domain.Stock, error) {
	s, ok := r.store.stocks.Get(&domain.Stock{Symbol: symbol})
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	return cloneStock(s), nil
}

// Update writes the listing when its version matches the stored one.
func (r *StockRepository) Update(_ context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	current, ok := r.store.stocks.Get(&domain.Stock{Symbol: stock.Symbol})
	if !ok {
		return domain.ErrStockNotFound
	}
	if current.Version != stock.Version {
		return domain.ErrConflict
	}

	stock.Version++
	put(t, r.store.stocks, cloneStock(stock))
	return nil
}

// Delete removes a listing.
func (r *StockRepository) Delete(_ context.Context, tx usecase.Transaction, symbol string) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	if !remove(t, r.store.stocks, &domain.Stock{Symbol: symbol}) {
		return domain.ErrStockNotFound
	}
	return nil
}

// List returns every listing ordered by symbol.
func (r *StockRepository) List(context.Context) ([]*domain.Stock, error) {
	defer r.store.rlock()()

	stocks := make([]*domain.Stock, 0, r.store.stocks.Len())
	r.store.stocks.Ascend(func(s *domain.Stock) bool {
		stocks = append(stocks, cloneStock(s))
		return true
	})
	return stocks, nil
}
