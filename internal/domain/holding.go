package domain

import (
	"strings"
	"time"
)

// HoldingKey addresses a holding by the owner's identity and the stock symbol.
type HoldingKey struct {
	Owner  string
	Symbol string
}

// Less orders keys by owner, then symbol.
func (k HoldingKey) Less(other HoldingKey) bool {
	if c := strings.Compare(k.Owner, other.Owner); c != 0 {
		return c < 0
	}
	return k.Symbol < other.Symbol
}

// Holding is an owner's position in one stock. A holding with zero
// quantity is deleted, never stored.
type Holding struct {
	Owner     string
	Symbol    string
	StockName string
	Price     uint64
	Quantity  uint64
	Total     uint64
	Version   int64
	UpdatedAt time.Time
}

// Key returns the holding's composite key.
func (h *Holding) Key() HoldingKey {
	return HoldingKey{Owner: h.Owner, Symbol: h.Symbol}
}

// Revalue sets the quantity and price snapshot and recomputes the total.
func (h *Holding) Revalue(quantity, price uint64) error {
	total, err := MulUint64(quantity, price)
	if err != nil {
		return err
	}
	h.Quantity = quantity
	h.Price = price
	h.Total = total
	return nil
}

// Portfolio is the read model returned to an owner.
type Portfolio struct {
	Holdings   []*Holding
	TotalAsset uint64
}
