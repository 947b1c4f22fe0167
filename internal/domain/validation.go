package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	MaxDisplayNameLength = 255
	MaxStockNameLength   = 255
	MaxSymbolLength      = 16
)

var symbolRegex = regexp.MustCompile(`^[A-Za-z0-9.\-]+$`)

// ValidateDisplayName validates an account display name
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ErrInvalidDisplayName
	}

	if len(name) > MaxDisplayNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDisplayName, MaxDisplayNameLength)
	}

	return nil
}

// ValidateSymbol validates a stock symbol
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return ErrInvalidSymbol
	}

	if len(symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: symbol exceeds %d characters", ErrInvalidSymbol, MaxSymbolLength)
	}

	if !symbolRegex.MatchString(symbol) {
		return fmt.Errorf("%w: %q contains forbidden characters", ErrInvalidSymbol, symbol)
	}

	return nil
}

// ValidateListing validates every field of a catalog listing.
func ValidateListing(symbol, name string, price, quantity uint64) error {
	if quantity == 0 {
		return fmt.Errorf("%w: no quantity provided", ErrInvalidQuantity)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidStockName
	}
	if len(name) > MaxStockNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidStockName, MaxStockNameLength)
	}

	if price == 0 {
		return ErrInvalidPrice
	}

	return ValidateSymbol(symbol)
}

// ValidateQuantity rejects zero quantities.
func ValidateQuantity(quantity uint64) error {
	if quantity == 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// ValidateAmount rejects zero amounts.
func ValidateAmount(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	return nil
}
