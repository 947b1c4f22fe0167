package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// StockService defines the behavior needed by StockHandler.
type StockService interface {
	CreateStock(ctx context.Context, input usecase.StockInput) (*domain.Stock, error)
	UpsertStock(ctx context.Context, input usecase.StockInput) (*domain.Stock, error)
	DeleteStock(ctx context.Context, symbol string) (*domain.Stock, error)
	ListStocks(ctx context.Context, identity string) ([]*domain.Stock, error)
}

// StockHandler serves the catalog.
type StockHandler struct {
	stockUC StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockUC StockService) *StockHandler {
	return &StockHandler{stockUC: stockUC}
}

// Create lists a new stock. An existing symbol is rejected.
func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stock, err := h.stockUC.CreateStock(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create stock", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.StockFromDomain(stock))
}

// Upsert creates or replaces the listing named in the path.
func (h *StockHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stock, err := h.stockUC.UpsertStock(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "symbol")))
	if err != nil {
		writeDomainError(w, r, "failed to upsert stock", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StockFromDomain(stock))
}

// Delete removes a listing and returns it.
func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	stock, err := h.stockUC.DeleteStock(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeDomainError(w, r, "failed to delete stock", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StockFromDomain(stock))
}

// List returns the catalog ordered by symbol.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	stocks, err := h.stockUC.ListStocks(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, r, "failed to list stocks", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StocksFromDomain(stocks))
}
