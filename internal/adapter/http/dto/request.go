package dto

import (
	"github.com/iho/stockledger/internal/usecase"
)

// Zero amounts and empty names pass validation here so the use cases can
// reject them with their own errors.

// CreateAccountRequest opens an account for the caller.
type CreateAccountRequest struct {
	DisplayName string `json:"display_name" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(identity string) usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Identity:    identity,
		DisplayName: r.DisplayName,
	}
}

// TopUpRequest credits the caller's balance.
type TopUpRequest struct {
	Amount uint64 `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *TopUpRequest) ToUseCaseInput(identity string) usecase.TopUpInput {
	return usecase.TopUpInput{
		Identity: identity,
		Amount:   r.Amount,
	}
}

// CreateStockRequest lists a new stock.
type CreateStockRequest struct {
	Symbol            string `json:"symbol"             validate:"omitempty,ticker"`
	Name              string `json:"name"               validate:"max=255"`
	Price             uint64 `json:"price"`
	AvailableQuantity uint64 `json:"available_quantity"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateStockRequest) ToUseCaseInput() usecase.StockInput {
	return usecase.StockInput{
		Symbol:   r.Symbol,
		Name:     r.Name,
		Price:    r.Price,
		Quantity: r.AvailableQuantity,
	}
}

// UpsertStockRequest replaces the listing addressed by the path symbol.
type UpsertStockRequest struct {
	Name              string `json:"name"               validate:"max=255"`
	Price             uint64 `json:"price"`
	AvailableQuantity uint64 `json:"available_quantity"`
}

// ToUseCaseInput converts to use case input.
func (r *UpsertStockRequest) ToUseCaseInput(symbol string) usecase.StockInput {
	return usecase.StockInput{
		Symbol:   symbol,
		Name:     r.Name,
		Price:    r.Price,
		Quantity: r.AvailableQuantity,
	}
}

// TradeRequest buys or sells shares for the caller.
type TradeRequest struct {
	Symbol   string `json:"symbol"   validate:"omitempty,ticker"`
	Quantity uint64 `json:"quantity"`
}

// ToUseCaseInput converts to use case input.
func (r *TradeRequest) ToUseCaseInput(identity string) usecase.TradeInput {
	return usecase.TradeInput{
		Identity: identity,
		Symbol:   r.Symbol,
		Quantity: r.Quantity,
	}
}
