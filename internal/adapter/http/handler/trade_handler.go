package handler

import (
	"context"
	"net/http"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// TradingService defines the behavior needed by TradeHandler.
type TradingService interface {
	Buy(ctx context.Context, input usecase.TradeInput) (*domain.Account, error)
	Sell(ctx context.Context, input usecase.TradeInput) (*domain.Account, error)
}

// TradeHandler executes buys and sells for the caller.
type TradeHandler struct {
	tradingUC TradingService
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradingUC TradingService) *TradeHandler {
	return &TradeHandler{tradingUC: tradingUC}
}

// Buy purchases shares and returns the debited account.
func (h *TradeHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.tradingUC.Buy, "failed to buy stock")
}

// Sell disposes of shares and returns the credited account.
func (h *TradeHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.tradingUC.Sell, "failed to sell stock")
}

func (h *TradeHandler) trade(
	w http.ResponseWriter,
	r *http.Request,
	exec func(context.Context, usecase.TradeInput) (*domain.Account, error),
	failure string,
) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.TradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := exec(r.Context(), req.ToUseCaseInput(p.ID))
	if err != nil {
		writeDomainError(w, r, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
