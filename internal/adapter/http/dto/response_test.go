package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

func TestPortfolioFromDomain(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := PortfolioFromDomain(&domain.Portfolio{
		Holdings: []*domain.Holding{
			{Owner: "alice", Symbol: "ACME", StockName: "Acme", Price: 10, Quantity: 5, Total: 50, UpdatedAt: now},
		},
		TotalAsset: 50,
	})

	require.Len(t, resp.Holdings, 1)
	assert.Equal(t, "ACME", resp.Holdings[0].Symbol)
	assert.Equal(t, uint64(50), resp.TotalAsset)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"holdings": [{"symbol":"ACME","stock_name":"Acme","price":10,"quantity":5,"total":50,"updated_at":"2024-01-02T03:04:05Z"}],
		"total_asset": 50
	}`, string(raw))
}

func TestEmptyPortfolioEncodesArray(t *testing.T) {
	raw, err := json.Marshal(PortfolioFromDomain(&domain.Portfolio{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"holdings":[],"total_asset":0}`, string(raw))
}

func TestStockAndAccountFromDomain(t *testing.T) {
	s := StockFromDomain(&domain.Stock{Symbol: "ACME", Name: "Acme", Price: 10, AvailableQuantity: 45})
	assert.Equal(t, uint64(45), s.AvailableQuantity)

	list := StocksFromDomain([]*domain.Stock{{Symbol: "A"}, {Symbol: "B"}})
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[1].Symbol)

	a := AccountFromDomain(&domain.Account{Identity: "alice", DisplayName: "Alice", Balance: 950, Version: 3})
	assert.Equal(t, "alice", a.Identity)
	assert.Equal(t, uint64(950), a.Balance)
	assert.Equal(t, int64(3), a.Version)
}

func TestReconciliationFromUseCase(t *testing.T) {
	resp := ReconciliationFromUseCase(&usecase.ReconciliationReport{
		TotalAccounts: 1,
		TotalCash:     decimal.NewFromInt(1000),
		Symbols:       []*usecase.SymbolFloat{{Symbol: "ACME", Available: decimal.NewFromInt(45), Held: decimal.NewFromInt(5), Float: decimal.NewFromInt(50)}},
		Discrepancies: []*usecase.HoldingDiscrepancy{{
			Key:             domain.HoldingKey{Owner: "alice", Symbol: "ACME"},
			Reason:          usecase.DiscrepancyTotalMismatch,
			RecordedTotal:   decimal.NewFromInt(25),
			CalculatedTotal: decimal.NewFromInt(20),
		}},
	})

	require.Len(t, resp.Discrepancies, 1)
	assert.Equal(t, "alice", resp.Discrepancies[0].Owner)
	assert.Equal(t, "ACME", resp.Discrepancies[0].Symbol)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"total_cash":"1000"`)
	assert.Contains(t, string(raw), `"float":"50"`)
}
