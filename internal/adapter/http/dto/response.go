package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name"`
	Balance     uint64    `json:"balance"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		Identity:    a.Identity,
		DisplayName: a.DisplayName,
		Balance:     a.Balance,
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// StockResponse represents a catalog listing.
type StockResponse struct {
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Price             uint64    `json:"price"`
	AvailableQuantity uint64    `json:"available_quantity"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StockFromDomain converts domain stock to response.
func StockFromDomain(s *domain.Stock) *StockResponse {
	return &StockResponse{
		Symbol:            s.Symbol,
		Name:              s.Name,
		Price:             s.Price,
		AvailableQuantity: s.AvailableQuantity,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// StocksFromDomain converts domain stocks to responses.
func StocksFromDomain(stocks []*domain.Stock) []*StockResponse {
	result := make([]*StockResponse, len(stocks))
	for i, s := range stocks {
		result[i] = StockFromDomain(s)
	}
	return result
}

// HoldingResponse is one position in a portfolio.
type HoldingResponse struct {
	Symbol    string    `json:"symbol"`
	StockName string    `json:"stock_name"`
	Price     uint64    `json:"price"`
	Quantity  uint64    `json:"quantity"`
	Total     uint64    `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HoldingFromDomain converts domain holding to response.
func HoldingFromDomain(h *domain.Holding) *HoldingResponse {
	return &HoldingResponse{
		Symbol:    h.Symbol,
		StockName: h.StockName,
		Price:     h.Price,
		Quantity:  h.Quantity,
		Total:     h.Total,
		UpdatedAt: h.UpdatedAt,
	}
}

// PortfolioResponse lists the caller's holdings and their summed value.
type PortfolioResponse struct {
	Holdings   []*HoldingResponse `json:"holdings"`
	TotalAsset uint64             `json:"total_asset"`
}

// PortfolioFromDomain converts domain portfolio to response.
func PortfolioFromDomain(p *domain.Portfolio) *PortfolioResponse {
	holdings := make([]*HoldingResponse, len(p.Holdings))
	for i, h := range p.Holdings {
		holdings[i] = HoldingFromDomain(h)
	}
	return &PortfolioResponse{Holdings: holdings, TotalAsset: p.TotalAsset}
}

// ResetHoldingsResponse reports how many holdings were removed.
type ResetHoldingsResponse struct {
	Removed int `json:"removed"`
}

// SymbolFloatResponse is one symbol's share count split by location.
type SymbolFloatResponse struct {
	Symbol    string          `json:"symbol"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Float     decimal.Decimal `json:"float"`
}

// DiscrepancyResponse is a holding that failed reconciliation.
type DiscrepancyResponse struct {
	Owner           string          `json:"owner"`
	Symbol          string          `json:"symbol"`
	Reason          string          `json:"reason"`
	RecordedTotal   decimal.Decimal `json:"recorded_total"`
	CalculatedTotal decimal.Decimal `json:"calculated_total"`
}

// ReconciliationResponse represents a reconciliation report.
type ReconciliationResponse struct {
	TotalAccounts int                    `json:"total_accounts"`
	TotalStocks   int                    `json:"total_stocks"`
	TotalHoldings int                    `json:"total_holdings"`
	TotalCash     decimal.Decimal        `json:"total_cash"`
	TotalHeld     decimal.Decimal        `json:"total_held"`
	Symbols       []*SymbolFloatResponse `json:"symbols"`
	Discrepancies []*DiscrepancyResponse `json:"discrepancies"`
	Consistent    bool                   `json:"consistent"`
	CheckedAt     time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		TotalAccounts: r.TotalAccounts,
		TotalStocks:   r.TotalStocks,
		TotalHoldings: r.TotalHoldings,
		TotalCash:     r.TotalCash,
		TotalHeld:     r.TotalHeld,
		Symbols:       make([]*SymbolFloatResponse, len(r.Symbols)),
		Discrepancies: make([]*DiscrepancyResponse, len(r.Discrepancies)),
		Consistent:    r.Consistent,
		CheckedAt:     r.CheckedAt,
	}
	for i, s := range r.Symbols {
		resp.Symbols[i] = &SymbolFloatResponse{
			Symbol:    s.Symbol,
			Available: s.Available,
			Held:      s.Held,
			Float:     s.Float,
		}
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			Owner:           d.Key.Owner,
			Symbol:          d.Key.Symbol,
			Reason:          d.Reason,
			RecordedTotal:   d.RecordedTotal,
			CalculatedTotal: d.CalculatedTotal,
		}
	}
	return resp
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
