package memory

import (
	"context"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

// Create inserts a new account.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	if _, ok := r.store.accounts.Get(&domain.Account{Identity: account.Identity}); ok {
		return domain.ErrAccountExists
	}

	account.Version = 1
	put(t, r.store.accounts, cloneAccount(account))
	return nil
}

// GetByID retrieves an account by identity.
func (r *AccountRepository) GetByID(_ context.Context, identity string) (*domain.Account, error) {
	defer r.store.rlock()()
	return r.get(identity)
}

// GetByIDForUpdate retrieves an account inside tx.
func (r *AccountRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, identity string) (*domain.Account, error) {
	if _, err := txFrom(r.store, tx); err != nil {
		return nil, err
	}
	return r.get(identity)
}

func (r *AccountRepository) get(identity string) (*domain.Account, error) {
	a, ok := r.store.accounts.Get(&domain.Account{Identity: identity})
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

// Update writes the account when its version matches the stored one.
func (r *AccountRepository) Update(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	current, ok := r.store.accounts.Get(&domain.Account{Identity: account.Identity})
	if !ok {
		return domain.ErrAccountNotFound
	}
	if current.Version != account.Version {
		return domain.ErrConflict
	}

	account.Version++
	put(t, r.store.accounts, cloneAccount(account))
	return nil
}

// List returns every account ordered by identity.
func (r *AccountRepository) List(context.Context) ([]*domain.Account, error) {
	defer r.store.rlock()()

	accounts := make([]*domain.Account, 0, r.store.accounts.Len())
	r.store.accounts.Ascend(func(a *domain.Account) bool {
		accounts = append(accounts, cloneAccount(a))
		return true
	})
	return accounts, nil
}
