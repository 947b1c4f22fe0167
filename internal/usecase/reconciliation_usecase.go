package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
)

// Discrepancy reasons reported by reconciliation.
const (
	DiscrepancyTotalMismatch = "total_mismatch"
	DiscrepancyOrphanStock   = "orphan_stock"
	DiscrepancyUnknownOwner  = "unknown_owner"
	DiscrepancyZeroQuantity  = "zero_quantity"
)

// ReconciliationUseCase checks ledger-wide consistency of holdings.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	stockRepo   StockRepository
	holdingRepo HoldingRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	stockRepo StockRepository,
	holdingRepo HoldingRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		stockRepo:   stockRepo,
		holdingRepo: holdingRepo,
	}
}

// HoldingDiscrepancy describes a holding that fails a consistency check.
type HoldingDiscrepancy struct {
	Key             domain.HoldingKey
	Reason          string
	RecordedTotal   decimal.Decimal
	CalculatedTotal decimal.Decimal
}

// SymbolFloat is the share count of one listing split by where it sits.
type SymbolFloat struct {
	Symbol    string
	Available decimal.Decimal
	Held      decimal.Decimal
	Float     decimal.Decimal
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts int
	TotalStocks   int
	TotalHoldings int
	TotalCash     decimal.Decimal
	TotalHeld     decimal.Decimal
	Symbols       []*SymbolFloat
	Discrepancies []*HoldingDiscrepancy
	Consistent    bool
	CheckedAt     time.Time
}

// Reconcile scans the whole ledger. Sums are decimal so they cannot overflow.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, principal domain.Principal) (*ReconciliationReport, error) {
	if !principal.Role.CanAdminister() {
		return nil, domain.ErrInsufficientRole
	}

	accounts, err := uc.accountRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	stocks, err := uc.stockRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	holdings, err := uc.holdingRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts: len(accounts),
		TotalStocks:   len(stocks),
		TotalHoldings: len(holdings),
		TotalCash:     decimal.Zero,
		TotalHeld:     decimal.Zero,
		Symbols:       make([]*SymbolFloat, 0, len(stocks)),
		Discrepancies: make([]*HoldingDiscrepancy, 0),
		CheckedAt:     time.Now().UTC(),
	}

	owners := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		owners[a.Identity] = struct{}{}
		report.TotalCash = report.TotalCash.Add(decimalFromUint64(a.Balance))
	}

	floats := make(map[string]*SymbolFloat, len(stocks))
	for _, s := range stocks {
		available := decimalFromUint64(s.AvailableQuantity)
		f := &SymbolFloat{Symbol: s.Symbol, Available: available, Held: decimal.Zero, Float: available}
		floats[s.Symbol] = f
		report.Symbols = append(report.Symbols, f)
	}

	for _, h := range holdings {
		recorded := decimalFromUint64(h.Total)
		calculated := decimalFromUint64(h.Quantity).Mul(decimalFromUint64(h.Price))
		report.TotalHeld = report.TotalHeld.Add(recorded)

		if !recorded.Equal(calculated) {
			report.Discrepancies = append(report.Discrepancies, &HoldingDiscrepancy{
				Key: h.Key(), Reason: DiscrepancyTotalMismatch,
				RecordedTotal: recorded, CalculatedTotal: calculated,
			})
		}
		if h.Quantity == 0 {
			report.Discrepancies = append(report.Discrepancies, &HoldingDiscrepancy{
				Key: h.Key(), Reason: DiscrepancyZeroQuantity,
				RecordedTotal: recorded, CalculatedTotal: calculated,
			})
		}
		if _, ok := owners[h.Owner]; !ok {
			report.Discrepancies = append(report.Discrepancies, &HoldingDiscrepancy{
				Key: h.Key(), Reason: DiscrepancyUnknownOwner,
				RecordedTotal: recorded, CalculatedTotal: calculated,
			})
		}

		f, ok := floats[h.Symbol]
		if !ok {
			report.Discrepancies = append(report.Discrepancies, &HoldingDiscrepancy{
				Key: h.Key(), Reason: DiscrepancyOrphanStock,
				RecordedTotal: recorded, CalculatedTotal: calculated,
			})
			continue
		}
		held := decimalFromUint64(h.Quantity)
		f.Held = f.Held.Add(held)
		f.Float = f.Float.Add(held)
	}

	report.Consistent = len(report.Discrepancies) == 0
	return report, nil
}

func decimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
