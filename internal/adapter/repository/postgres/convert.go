package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
)

const pgErrUniqueViolation = "23505"

// querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// Type conversion helpers.
func uint64ToNumeric(v uint64) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(v), Exp: 0, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func numericToUint64(n pgtype.Numeric) (uint64, error) {
	d := numericToDecimal(n)
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("postgres: %s is not an unsigned integer", d.String())
	}

	i := d.BigInt()
	if !i.IsUint64() {
		return 0, fmt.Errorf("postgres: %s: %w", d.String(), domain.ErrAmountOverflow)
	}
	return i.Uint64(), nil
}

// numericsToUint64 converts each source into its destination, stopping at the first error.
func numericsToUint64(pairs ...numericPair) error {
	for _, p := range pairs {
		v, err := numericToUint64(p.src)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	return nil
}

type numericPair struct {
	src pgtype.Numeric
	dst *uint64
}
