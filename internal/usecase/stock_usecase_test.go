package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
	"github.com/iho/stockledger/internal/usecase/mocks"
)

func TestStockUseCase_CreateStockValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.StockInput
		wantErr error
	}{
		{"missing quantity", usecase.StockInput{Symbol: "ACME", Name: "Acme", Price: 1}, domain.ErrInvalidQuantity},
		{"missing name", usecase.StockInput{Symbol: "ACME", Price: 1, Quantity: 1}, domain.ErrInvalidStockName},
		{"missing price", usecase.StockInput{Symbol: "ACME", Name: "Acme", Quantity: 1}, domain.ErrInvalidPrice},
		{"missing symbol", usecase.StockInput{Name: "Acme", Price: 1, Quantity: 1}, domain.ErrInvalidSymbol},
		{"bad symbol", usecase.StockInput{Symbol: "AC ME", Name: "Acme", Price: 1, Quantity: 1}, domain.ErrInvalidSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, nil)
			_, err := l.stockUC.CreateStock(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
		})
	}
}

func TestStockUseCase_CreateIsCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)
	l.listStock(t, "ACME", 10, 50)

	_, err := l.stockUC.CreateStock(ctx, usecase.StockInput{Symbol: "ACME", Name: "Other", Price: 99, Quantity: 1})
	require.ErrorIs(t, err, domain.ErrStockExists)

	s, err := l.stocks.GetBySymbol(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), s.Price)
	assert.Equal(t, uint64(50), s.AvailableQuantity)
}

func TestStockUseCase_UpsertOverwritesAndAudits(t *testing.T) {
	ctx := domain.ContextWithPrincipal(context.Background(), admin)
	l := newLedger(t, nil)
	l.listStock(t, "ACME", 10, 50)

	created, err := l.stocks.GetBySymbol(ctx, "ACME")
	require.NoError(t, err)

	s, err := l.stockUC.UpsertStock(ctx, usecase.StockInput{Symbol: "ACME", Name: "Acme 2", Price: 12, Quantity: 70})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, s.CreatedAt)

	stored, err := l.stocks.GetBySymbol(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "Acme 2", stored.Name)
	assert.Equal(t, uint64(12), stored.Price)
	assert.Equal(t, uint64(70), stored.AvailableQuantity)

	_, err = l.stockUC.UpsertStock(ctx, usecase.StockInput{Symbol: "NEW", Name: "New", Price: 1, Quantity: 1})
	require.NoError(t, err)

	logs, err := l.audit.List(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, string(domain.AuditActionStockUpsert), logs[0].Action)
	assert.Equal(t, "root", logs[0].UserID)
	assert.NotNil(t, logs[0].BeforeState)
	assert.Nil(t, logs[1].BeforeState)
}

func TestStockUseCase_DeleteStock(t *testing.T) {
	ctx := context.Background()

	t.Run("returns removed listing", func(t *testing.T) {
		l := newLedger(t, nil)
		l.listStock(t, "ACME", 10, 50)

		s, err := l.stockUC.DeleteStock(ctx, "ACME")
		require.NoError(t, err)
		assert.Equal(t, "ACME", s.Symbol)

		_, err = l.stocks.GetBySymbol(ctx, "ACME")
		assert.ErrorIs(t, err, domain.ErrStockNotFound)

		logs, err := l.audit.List(ctx)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "system", logs[0].UserID)
	})

	t.Run("empty and unknown symbol", func(t *testing.T) {
		l := newLedger(t, nil)

		_, err := l.stockUC.DeleteStock(ctx, "")
		assert.ErrorIs(t, err, domain.ErrInvalidSymbol)

		_, err = l.stockUC.DeleteStock(ctx, "NOPE")
		assert.ErrorIs(t, err, domain.ErrStockNotFound)
	})

	t.Run("blocked while held", func(t *testing.T) {
		l := newLedger(t, nil)
		l.openAccount(t, "alice", 100)
		l.listStock(t, "ACME", 10, 50)
		_, err := l.tradingUC.Buy(ctx, usecase.TradeInput{Identity: "alice", Symbol: "ACME", Quantity: 1})
		require.NoError(t, err)

		_, err = l.stockUC.DeleteStock(ctx, "ACME")
		require.ErrorIs(t, err, domain.ErrStockHasHoldings)
		assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

		_, err = l.stocks.GetBySymbol(ctx, "ACME")
		require.NoError(t, err)

		logs, err := l.audit.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

func TestStockUseCase_ListStocks(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil)

	_, err := l.stockUC.ListStocks(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	l.openAccount(t, "alice", 0)
	l.listStock(t, "ZED", 1, 1)
	l.listStock(t, "ACME", 1, 1)
	l.listStock(t, "MID", 1, 1)

	stocks, err := l.stockUC.ListStocks(ctx, "alice")
	require.NoError(t, err)

	symbols := make([]string, 0, len(stocks))
	for _, s := range stocks {
		symbols = append(symbols, s.Symbol)
	}
	assert.Equal(t, []string{"ACME", "MID", "ZED"}, symbols)
}

func TestStockUseCase_ListStocksServedFromCache(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, newMapCache())
	l.openAccount(t, "alice", 0)
	l.listStock(t, "ACME", 1, 1)

	stocks, err := l.stockUC.ListStocks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "ACME Corp", stocks[0].Name)

	// A write that bypasses the use cases is invisible until the listing is invalidated.
	tx, err := newTx(l)
	require.NoError(t, err)
	require.NoError(t, l.stocks.Upsert(ctx, tx, &domain.Stock{Symbol: "ACME", Name: "Renamed", Price: 1, AvailableQuantity: 1}))
	require.NoError(t, tx.Commit(ctx))

	stocks, err = l.stockUC.ListStocks(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ACME Corp", stocks[0].Name)

	l.listStock(t, "ZED", 1, 1)

	stocks, err = l.stockUC.ListStocks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stocks, 2)
	assert.Equal(t, "Renamed", stocks[0].Name)
}

func TestStockUseCase_CatalogChangesInvalidateListing(t *testing.T) {
	ctx := domain.ContextWithPrincipal(context.Background(), admin)
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)

	cache.EXPECT().Set(gomock.Any(), "stocks:generation", gomock.Any(), time.Duration(0)).Return(nil).Times(3)

	l := newLedger(t, cache)
	_, err := l.stockUC.CreateStock(ctx, usecase.StockInput{Symbol: "ACME", Name: "Acme", Price: 1, Quantity: 1})
	require.NoError(t, err)
	_, err = l.stockUC.UpsertStock(ctx, usecase.StockInput{Symbol: "ACME", Name: "Acme", Price: 2, Quantity: 1})
	require.NoError(t, err)
	_, err = l.stockUC.DeleteStock(ctx, "ACME")
	require.NoError(t, err)
}

func TestStockUseCase_CacheErrorsFallThrough(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCache(ctrl)

	cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(errors.New("redis down")).AnyTimes()
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down")).AnyTimes()
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down")).AnyTimes()

	l := newLedger(t, cache)
	l.openAccount(t, "alice", 0)
	l.listStock(t, "ACME", 1, 1)

	stocks, err := l.stockUC.ListStocks(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, stocks, 1)
}
