package memory

import (
	"context"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// HoldingRepository implements usecase.HoldingRepository.
type HoldingRepository struct {
	store *Store
}

// NewHoldingRepository creates a new HoldingRepository.
func NewHoldingRepository(store *Store) *HoldingRepository {
	return &HoldingRepository{store: store}
}

func cloneHolding(h *domain.Holding) *domain.Holding {
	c := *h
	return &c
}

func probe(key domain.HoldingKey) *domain.Holding {
	return &domain.Holding{Owner: key.Owner, Symbol: key.Symbol}
}

// Get retrieves a holding.
func (r *HoldingRepository) Get(_ context.Context, key domain.HoldingKey) (*domain.Holding, error) {
	defer r.store.rlock()()
	return r.get(key)
}

// GetForUpdate retrieves a holding inside tx.
func (r *HoldingRepository) GetForUpdate(_ context.Context, tx usecase.Transaction, key domain.HoldingKey) (*domain.Holding, error) {
	if _, err := txFrom(r.store, tx); err != nil {
		return nil, err
	}
	return r.get(key)
}

func (r *HoldingRepository) get(key domain.HoldingKey) (*domain.Holding, error) {
	h, ok := r.store.holdings.Get(probe(key))
	if !ok {
		return nil, domain.ErrHoldingNotFound
	}
	return cloneHolding(h), nil
}

// Save inserts a new holding (Version 0) or compare-and-sets an existing one.
func (r *HoldingRepository) Save(_ context.Context, tx usecase.Transaction, holding *domain.Holding) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	current, ok := r.store.holdings.Get(probe(holding.Key()))
	switch {
	case holding.Version == 0 && ok:
		return domain.ErrConflict
	case holding.Version != 0 && !ok:
		return domain.ErrConflict
	case ok && current.Version != holding.Version:
		return domain.ErrConflict
	}

	holding.Version++
	put(t, r.store.holdings, cloneHolding(holding))
	return nil
}

// Delete removes a holding.
func (r *HoldingRepository) Delete(_ context.Context, tx usecase.Transaction, key domain.HoldingKey) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	if !remove(t, r.store.holdings, probe(key)) {
		return domain.ErrHoldingNotFound
	}
	return nil
}

// ListByOwner returns the owner's holdings ordered by symbol.
func (r *HoldingRepository) ListByOwner(_ context.Context, owner string) ([]*domain.Holding, error) {
	defer r.store.rlock()()

	holdings := make([]*domain.Holding, 0)
	r.store.holdings.AscendGreaterOrEqual(&domain.Holding{Owner: owner}, func(h *domain.Holding) bool {
		if h.Owner != owner {
			return false
		}
		holdings = append(holdings, cloneHolding(h))
		return true
	})
	return holdings, nil
}

// CountBySymbol counts holdings of symbol inside tx.
func (r *HoldingRepository) CountBySymbol(_ context.Context, tx usecase.Transaction, symbol string) (int, error) {
	if _, err := txFrom(r.store, tx); err != nil {
		return 0, err
	}

	n := 0
	r.store.holdings.Ascend(func(h *domain.Holding) bool {
		if h.Symbol == symbol {
			n++
		}
		return true
	})
	return n, nil
}

// DeleteAll empties the holdings table and returns how many records it held.
func (r *HoldingRepository) DeleteAll(_ context.Context, tx usecase.Transaction) (int, error) {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return 0, err
	}

	old := r.store.holdings
	r.store.holdings = newHoldingTree()
	t.record(func() { r.store.holdings = old })
	return old.Len(), nil
}

// List returns every holding ordered by key.
func (r *HoldingRepository) List(context.Context) ([]*domain.Holding, error) {
	defer r.store.rlock()()

	holdings := make([]*domain.Holding, 0, r.store.holdings.Len())
	r.store.holdings.Ascend(func(h *domain.Holding) bool {
		holdings = append(holdings, cloneHolding(h))
		return true
	})
	return holdings, nil
}
