package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound     = errors.New("please make an account first")
	ErrAccountExists       = errors.New("an account already exists for this identity")
	ErrInvalidDisplayName  = errors.New("no name provided")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Catalog errors
	ErrStockNotFound     = errors.New("stock does not exist")
	ErrStockExists       = errors.New("stock already exists")
	ErrStockHasHoldings  = errors.New("stock has open holdings")
	ErrInvalidSymbol     = errors.New("no stock symbol provided")
	ErrInvalidStockName  = errors.New("no stock name provided")
	ErrInvalidPrice      = errors.New("stock price must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Trading errors
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrHoldingNotFound = errors.New("no holding for this stock")
	ErrAmountOverflow  = errors.New("amount exceeds representable range")

	// Storage errors
	ErrConflict = errors.New("record changed since it was read")
)

// Kind classifies an error for callers that need a coarse category.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

var forbidden = []error{
	ErrAccountNotFound,
	ErrInsufficientRole,
	ErrUnauthorized,
}

var badRequest = []error{
	ErrAccountExists,
	ErrInvalidDisplayName,
	ErrInvalidAmount,
	ErrInsufficientBalance,
	ErrStockNotFound,
	ErrStockExists,
	ErrStockHasHoldings,
	ErrInvalidSymbol,
	ErrInvalidStockName,
	ErrInvalidPrice,
	ErrInsufficientStock,
	ErrInvalidQuantity,
	ErrHoldingNotFound,
	ErrAmountOverflow,
}

// KindOf reports the category of err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	for _, target := range forbidden {
		if errors.Is(err, target) {
			return KindForbidden
		}
	}

	for _, target := range badRequest {
		if errors.Is(err, target) {
			return KindBadRequest
		}
	}

	if errors.Is(err, ErrConflict) {
		return KindConflict
	}

	return KindInternal
}
