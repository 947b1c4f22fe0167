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
	holdingColumns = `owner, symbol, stock_name, price, quantity, total, version, updated_at`

	selectHoldingSQL = `SELECT ` + holdingColumns + ` FROM holdings WHERE owner = $1 AND symbol = $2`

	selectHoldingForUpdateSQL = selectHoldingSQL + ` FOR UPDATE`

	insertHoldingSQL = `INSERT INTO holdings (` + holdingColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, 1, $7)`

	updateHoldingSQL = `UPDATE holdings
SET stock_name = $3, price = $4, quantity = $5, total = $6, updated_at = $7, version = version + 1
WHERE owner = $1 AND symbol = $2 AND version = $8`

	deleteHoldingSQL = `DELETE FROM holdings WHERE owner = $1 AND symbol = $2`

	listHoldingsByOwnerSQL = `SELECT ` + holdingColumns + ` FROM holdings WHERE owner = $1 ORDER BY symbol`

	countHoldingsBySymbolSQL = `SELECT COUNT(*) FROM holdings WHERE symbol = $1`

	deleteAllHoldingsSQL = `DELETE FROM holdings`

	listHoldingsSQL = `SELECT ` + holdingColumns + ` FROM holdings ORDER BY owner, symbol`
)

// HoldingRepository implements usecase.HoldingRepository.
type HoldingRepository struct {
	db querier
}

// NewHoldingRepository creates a new HoldingRepository.
func NewHoldingRepository(pool *pgxpool.Pool) *HoldingRepository {
	return newHoldingRepository(pool)
}

func newHoldingRepository(db querier) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// Get retrieves a holding.
func (r *HoldingRepository) Get(ctx context.Context, key domain.HoldingKey) (*domain.Holding, error) {
	return scanHolding(r.db.QueryRow(ctx, selectHoldingSQL, key.Owner, key.Symbol))
}

// GetForUpdate retrieves a holding with a FOR UPDATE lock.
func (r *HoldingRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, key domain.HoldingKey) (*domain.Holding, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return scanHolding(q.QueryRow(ctx, selectHoldingForUpdateSQL, key.Owner, key.Symbol))
}

// Save inserts a holding with Version 0 or compare-and-sets an existing one.
func (r *HoldingRepository) Save(ctx context.Context, tx usecase.Transaction, holding *domain.Holding) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	if holding.Version == 0 {
		_, err := q.Exec(ctx, insertHoldingSQL,
			holding.Owner,
			holding.Symbol,
			holding.StockName,
			uint64ToNumeric(holding.Price),
			uint64ToNumeric(holding.Quantity),
			uint64ToNumeric(holding.Total),
			holding.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}

		holding.Version = 1
		return nil
	}

	tag, err := q.Exec(ctx, updateHoldingSQL,
		holding.Owner,
		holding.Symbol,
		holding.StockName,
		uint64ToNumeric(holding.Price),
		uint64ToNumeric(holding.Quantity),
		uint64ToNumeric(holding.Total),
		holding.UpdatedAt,
		holding.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}

	holding.Version++
	return nil
}

// Delete removes a holding.
func (r *HoldingRepository) Delete(ctx context.Context, tx usecase.Transaction, key domain.HoldingKey) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, deleteHoldingSQL, key.Owner, key.Symbol)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldingNotFound
	}
	return nil
}

// ListByOwner returns the owner's holdings ordered by symbol.
func (r *HoldingRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Holding, error) {
	return r.list(ctx, listHoldingsByOwnerSQL, owner)
}

// CountBySymbol counts holdings of symbol inside tx.
func (r *HoldingRepository) CountBySymbol(ctx context.Context, tx usecase.Transaction, symbol string) (int, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := q.QueryRow(ctx, countHoldingsBySymbolSQL, symbol).Scan(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

// DeleteAll empties the holdings table and returns how many rows it removed.
func (r *HoldingRepository) DeleteAll(ctx context.Context, tx usecase.Transaction) (int, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return 0, err
	}

	tag, err := q.Exec(ctx, deleteAllHoldingsSQL)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// List returns every holding ordered by owner then symbol.
func (r *HoldingRepository) List(ctx context.Context) ([]*domain.Holding, error) {
	return r.list(ctx, listHoldingsSQL)
}

func (r *HoldingRepository) list(ctx context.Context, sql string, args ...any) ([]*domain.Holding, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := make([]*domain.Holding, 0)
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, holding)
	}

	return holdings, rows.Err()
}

func scanHolding(row pgx.Row) (*domain.Holding, error) {
	var (
		holding                domain.Holding
		price, quantity, total pgtype.Numeric
	)

	err := row.Scan(
		&holding.Owner,
		&holding.Symbol,
		&holding.StockName,
		&price,
		&quantity,
		&total,
		&holding.Version,
		&holding.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHoldingNotFound
		}
		return nil, err
	}

	if err := numericsToUint64(
		numericPair{price, &holding.Price},
		numericPair{quantity, &holding.Quantity},
		numericPair{total, &holding.Total},
	); err != nil {
		return nil, err
	}

	return &holding, nil
}
