package domain

import "time"

// Account is a trader's cash position. Identity is the external principal
// that owns it and never changes.
type Account struct {
	Identity    string
	DisplayName string
	Balance     uint64
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Credit returns the balance after adding amount.
func (a *Account) Credit(amount uint64) (uint64, error) {
	return AddUint64(a.Balance, amount)
}

// ValidateDebit checks that amount can be taken from the balance.
func (a *Account) ValidateDebit(amount uint64) error {
	if a.Balance < amount {
		return ErrInsufficientBalance
	}
	return nil
}

// Debit returns the balance after subtracting amount.
func (a *Account) Debit(amount uint64) (uint64, error) {
	if err := a.ValidateDebit(amount); err != nil {
		return 0, err
	}
	return a.Balance - amount, nil
}
