package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
)

// PortfolioService defines the behavior needed by PortfolioHandler.
type PortfolioService interface {
	GetPortfolio(ctx context.Context, identity string) (*domain.Portfolio, error)
	GetStockDetails(ctx context.Context, identity, symbol string) (*domain.Holding, error)
}

// PortfolioHandler serves the caller's holdings.
type PortfolioHandler struct {
	portfolioUC PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioUC PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioUC: portfolioUC}
}

// Get returns every holding of the caller and their summed value.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	portfolio, err := h.portfolioUC.GetPortfolio(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, r, "failed to get portfolio", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PortfolioFromDomain(portfolio))
}

// GetStock returns the caller's holding of one symbol.
func (h *PortfolioHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	holding, err := h.portfolioUC.GetStockDetails(r.Context(), p.ID, chi.URLParam(r, "symbol"))
	if err != nil {
		writeDomainError(w, r, "failed to get holding", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HoldingFromDomain(holding))
}
