package domain

import "time"

// Stock is a catalog listing. AvailableQuantity is the unsold inventory
// shared by every buyer.
type Stock struct {
	Symbol            string
	Name              string
	Price             uint64
	AvailableQuantity uint64
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Cost returns the price of quantity units.
func (s *Stock) Cost(quantity uint64) (uint64, error) {
	return MulUint64(s.Price, quantity)
}

// Reserve takes quantity units out of the available inventory.
func (s *Stock) Reserve(quantity uint64) error {
	if s.AvailableQuantity < quantity {
		return ErrInsufficientStock
	}
	s.AvailableQuantity -= quantity
	return nil
}

// Release returns quantity units to the available inventory.
func (s *Stock) Release(quantity uint64) error {
	available, err := AddUint64(s.AvailableQuantity, quantity)
	if err != nil {
		return err
	}
	s.AvailableQuantity = available
	return nil
}
