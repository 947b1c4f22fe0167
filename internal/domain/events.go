package domain

import "time"

// Event types
const (
	EventTypeAccountCreated  = "account.created"
	EventTypeAccountToppedUp = "account.topped_up"
	EventTypeStockCreated    = "stock.created"
	EventTypeStockUpserted   = "stock.upserted"
	EventTypeStockDeleted    = "stock.deleted"
	EventTypeTradeBuy        = "trade.buy"
	EventTypeTradeSell       = "trade.sell"
	EventTypeHoldingsReset   = "holdings.reset"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
	AggregateTypeStock   = "stock"
	AggregateTypeHolding = "holding"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TradeSide is the direction of a trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// EventType returns the outbox event type for the side.
func (s TradeSide) EventType() string {
	if s == TradeSideSell {
		return EventTypeTradeSell
	}
	return EventTypeTradeBuy
}

// TradeExecutedEvent payload
type TradeExecutedEvent struct {
	Owner          string    `json:"owner"`
	Symbol         string    `json:"symbol"`
	Side           TradeSide `json:"side"`
	Quantity       uint64    `json:"quantity"`
	Price          uint64    `json:"price"`
	Amount         uint64    `json:"amount"`
	BalanceAfter   uint64    `json:"balance_after"`
	HoldingAfter   uint64    `json:"holding_after"`
	AvailableAfter uint64    `json:"available_after"`
}

// Payload flattens the event for the outbox.
func (e TradeExecutedEvent) Payload() map[string]any {
	return map[string]any{
		"owner":           e.Owner,
		"symbol":          e.Symbol,
		"side":            string(e.Side),
		"quantity":        e.Quantity,
		"price":           e.Price,
		"amount":          e.Amount,
		"balance_after":   e.BalanceAfter,
		"holding_after":   e.HoldingAfter,
		"available_after": e.AvailableAfter,
	}
}
