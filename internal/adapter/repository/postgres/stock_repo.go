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
	stockColumns = `symbol, name, price, available_quantity, version, created_at, updated_at`

	insertStockSQL = `INSERT INTO stocks (` + stockColumns + `)
VALUES ($1, $2, $3, $4, 1, $5, $6)`

	upsertStockSQL = `INSERT INTO stocks (` + stockColumns + `)
VALUES ($1, $2, $3, $4, 1, $5, $6)
ON CONFLICT (symbol) DO UPDATE
SET name = EXCLUDED.name,
    price = EXCLUDED.price,
    available_quantity = EXCLUDED.available_quantity,
    updated_at = EXCLUDED.updated_at,
    version = stocks.version + 1
RETURNING version, created_at`

	selectStockSQL = `SELECT ` + stockColumns + ` FROM stocks WHERE symbol = $1`

	selectStockForUpdateSQL = selectStockSQL + ` FOR UPDATE`

	updateStockSQL = `UPDATE stocks
SET available_quantity = $2, updated_at = $3, version = version + 1
WHERE symbol = $1 AND version = $4`

	deleteStockSQL = `DELETE FROM stocks WHERE symbol = $1`

	listStocksSQL = `SELECT ` + stockColumns + ` FROM stocks ORDER BY symbol`
)

// StockRepository implements usecase.StockRepository.
type StockRepository struct {
	db querier
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return newStockRepository(pool)
}

func newStockRepository(db querier) *StockRepository {
	return &StockRepository{db: db}
}

// Create inserts a new listing.
func (r *StockRepository) Create(ctx context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, insertStockSQL,
		stock.Symbol,
		stock.Name,
		uint64ToNumeric(stock.Price),
		uint64ToNumeric(stock.AvailableQuantity),
		stock.CreatedAt,
		stock.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStockExists
		}
		return err
	}

	stock.Version = 1
	return nil
}

// Upsert inserts or overwrites a listing. The original creation time is kept.
func (r *StockRepository) Upsert(ctx context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	return q.QueryRow(ctx, upsertStockSQL,
		stock.Symbol,
		stock.Name,
		uint64ToNumeric(stock.Price),
		uint64ToNumeric(stock.AvailableQuantity),
		stock.CreatedAt,
		stock.UpdatedAt,
	).Scan(&stock.Version, &stock.CreatedAt)
}

// GetBySymbol retrieves a listing.
func (r *StockRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.Stock, error) {
	return scanStock(r.db.QueryRow(ctx, selectStockSQL, symbol))
}

// GetBySymbolForUpdate retrieves a listing with a FOR UPDATE lock.
func (r *StockRepository) GetBySymbolForUpdate(ctx context.Context, tx usecase.Transaction, symbol string) (*domain.Stock, error) {
	q, err := pgxTx(tx)
	if err != nil {
		return nil, err
	}

	return scanStock(q.QueryRow(ctx, selectStockForUpdateSQL, symbol))
}

// Update writes the available quantity when the stored version still matches.
func (r *StockRepository) Update(ctx context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, updateStockSQL,
		stock.Symbol,
		uint64ToNumeric(stock.AvailableQuantity),
		stock.UpdatedAt,
		stock.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}

	stock.Version++
	return nil
}

// Delete removes a listing.
func (r *StockRepository) Delete(ctx context.Context, tx usecase.Transaction, symbol string) error {
	q, err := pgxTx(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, deleteStockSQL, symbol)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}

// List returns every listing ordered by symbol.
func (r *StockRepository) List(ctx context.Context) ([]*domain.Stock, error) {
	rows, err := r.db.Query(ctx, listStocksSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stocks := make([]*domain.Stock, 0)
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, stock)
	}

	return stocks, rows.Err()
}

func scanStock(row pgx.Row) (*domain.Stock, error) {
	var (
		stock            domain.Stock
		price, available pgtype.Numeric
	)

	err := row.Scan(
		&stock.Symbol,
		&stock.Name,
		&price,
		&available,
		&stock.Version,
		&stock.CreatedAt,
		&stock.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockNotFound
		}
		return nil, err
	}

	if err := numericsToUint64(
		numericPair{price, &stock.Price},
		numericPair{available, &stock.AvailableQuantity},
	); err != nil {
		return nil, err
	}

	return &stock, nil
}
