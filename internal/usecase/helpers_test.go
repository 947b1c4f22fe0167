package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iho/stockledger/internal/adapter/repository/memory"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%06d", g.n.Add(1))
}

// mapCache is an in-process usecase.Cache that ignores TTLs.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, usecase.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// ledger wires every use case onto one memory store.
type ledger struct {
	store    *memory.Store
	txm      *memory.TxManager
	accounts *memory.AccountRepository
	stocks   *memory.StockRepository
	holdings *memory.HoldingRepository
	outbox   *memory.OutboxRepository
	audit    *memory.AuditRepository

	accountUC   *usecase.AccountUseCase
	stockUC     *usecase.StockUseCase
	tradingUC   *usecase.TradingUseCase
	portfolioUC *usecase.PortfolioUseCase
	reconUC     *usecase.ReconciliationUseCase
}

func newLedger(t *testing.T, cache usecase.Cache) *ledger {
	t.Helper()

	store := memory.NewStore()
	l := &ledger{
		store:    store,
		accounts: memory.NewAccountRepository(store),
		stocks:   memory.NewStockRepository(store),
		holdings: memory.NewHoldingRepository(store),
		outbox:   memory.NewOutboxRepository(store),
		audit:    memory.NewAuditRepository(store),
	}
	txm := memory.NewTxManager(store)
	l.txm = txm
	ids := &seqIDs{}

	l.accountUC = usecase.NewAccountUseCase(txm, l.accounts, l.outbox, ids, nil, nil)
	l.stockUC = usecase.NewStockUseCase(txm, l.stocks, l.holdings, l.accounts, l.outbox, l.audit, cache, 0, ids, nil)
	l.tradingUC = usecase.NewTradingUseCase(txm, l.accounts, l.stocks, l.holdings, l.outbox, cache, ids, nil, nil)
	l.portfolioUC = usecase.NewPortfolioUseCase(txm, l.accounts, l.stocks, l.holdings, l.outbox, l.audit, ids, nil)
	l.reconUC = usecase.NewReconciliationUseCase(l.accounts, l.stocks, l.holdings)
	return l
}

func (l *ledger) openAccount(t *testing.T, identity string, balance uint64) {
	t.Helper()
	ctx := context.Background()

	_, err := l.accountUC.CreateAccount(ctx, usecase.CreateAccountInput{Identity: identity, DisplayName: identity})
	require.NoError(t, err)
	if balance > 0 {
		_, err = l.accountUC.TopUp(ctx, usecase.TopUpInput{Identity: identity, Amount: balance})
		require.NoError(t, err)
	}
}

func (l *ledger) listStock(t *testing.T, symbol string, price, quantity uint64) {
	t.Helper()

	_, err := l.stockUC.CreateStock(context.Background(), usecase.StockInput{
		Symbol: symbol, Name: symbol + " Corp", Price: price, Quantity: quantity,
	})
	require.NoError(t, err)
}

func (l *ledger) balance(t *testing.T, identity string) uint64 {
	t.Helper()
	a, err := l.accounts.GetByID(context.Background(), identity)
	require.NoError(t, err)
	return a.Balance
}

func (l *ledger) available(t *testing.T, symbol string) uint64 {
	t.Helper()
	s, err := l.stocks.GetBySymbol(context.Background(), symbol)
	require.NoError(t, err)
	return s.AvailableQuantity
}

func (l *ledger) listedAvailable(t *testing.T, identity, symbol string) uint64 {
	t.Helper()
	stocks, err := l.stockUC.ListStocks(context.Background(), identity)
	require.NoError(t, err)
	for _, s := range stocks {
		if s.Symbol == symbol {
			return s.AvailableQuantity
		}
	}
	t.Fatalf("%s not listed", symbol)
	return 0
}

func (l *ledger) eventTypes(t *testing.T) []string {
	t.Helper()
	events, err := l.outbox.GetUnpublished(context.Background(), 1000)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

var admin = domain.Principal{ID: "root", Role: domain.RoleAdmin}
