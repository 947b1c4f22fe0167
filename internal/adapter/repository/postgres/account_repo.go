package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

const (
	accountColumns = `identity, display_name, balance, version, created_at, updated_at`

	insertAccountSQL = `INSERT INTO accounts (` + accountColumns + `)
VALUES ($1, $2, $3, $4, $5, $6)`

	selectAccountSQL = `SELECT ` + accountColumns + ` FROM accounts WHERE identity = $1`

	selectAccountForUpdateSQL = selectAccountSQL + ` FOR UPDATE`

	updateAccountSQL = `UPDATE accounts
SET balance = $2, updated_at = $3, version = version + 1
WHERE identity = $1 AND version = $4`

	listAccountsSQL = `SELECT ` + accountColumns + ` FROM accounts ORDER BY identity`
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db querier) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, insertAccountSQL,
		account.Identity,
		account.DisplayName,
		uint64ToNumeric(account.Balance),
		int64(1),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountExists
		}
		return err
	}

	account.Version = 1
	return nil
}

// GetByID retrieves an account by identity.
func (r *AccountRepository) GetByID(ctx context.Context, identity string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, selectAccountSQL, identity))
}

// GetByIDForUpdate retrieves an account with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, identity string) (*domain.Account, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return scanAccount(q.QueryRow(ctx, selectAccountForUpdateSQL, identity))
}

// Update writes the balance when the stored version still matches.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, updateAccountSQL,
		account.Identity,
		uint64ToNumeric(account.Balance),
		account.UpdatedAt,
		account.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}

	account.Version++
	return nil
}

// List returns every account ordered by identity.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, listAccountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		balance pgtype.Numeric
	)

	err := row.Scan(
		&account.Identity,
		&account.DisplayName,
		&balance,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	if err := numericsToUint64(numericPair{balance, &account.Balance}); err != nil {
		return nil, err
	}

	return &account, nil
}
