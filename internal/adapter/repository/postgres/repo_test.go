package postgres

import (
	"context"
	"errors"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

func beginMockTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	return tx
}

func TestAccountRepositoryCreate(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)

	now := time.Now().UTC()
	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("alice", "Alice", uint64ToNumeric(0), int64(1), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs("alice", "Alice", uint64ToNumeric(0), int64(1), now, now).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	account := &domain.Account{Identity: "alice", DisplayName: "Alice", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, tx, account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Version != 1 {
		t.Fatalf("expected version 1, got %d", account.Version)
	}

	if err := repo.Create(ctx, tx, &domain.Account{Identity: "alice", DisplayName: "Alice", CreatedAt: now, UpdatedAt: now}); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryGetByID(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	now := time.Now().UTC()

	rows := pool.NewRows([]string{"identity", "display_name", "balance", "version", "created_at", "updated_at"}).
		AddRow("alice", "Alice", uint64ToNumeric(950), int64(3), now, now)
	pool.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE identity = $1")).
		WithArgs("alice").
		WillReturnRows(rows)
	pool.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE identity = $1")).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	account, err := repo.GetByID(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 950 || account.Version != 3 {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := repo.GetByID(ctx, "ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryUpdateCompareAndSet(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	repo := newAccountRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs("alice", uint64ToNumeric(10), now, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectExec(regexp.QuoteMeta("UPDATE accounts")).
		WithArgs("alice", uint64ToNumeric(20), now, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	account := &domain.Account{Identity: "alice", Balance: 10, Version: 1, UpdatedAt: now}
	if err := repo.Update(ctx, tx, account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Version != 2 {
		t.Fatalf("expected version bump, got %d", account.Version)
	}

	stale := &domain.Account{Identity: "alice", Balance: 20, Version: 1, UpdatedAt: now}
	if err := repo.Update(ctx, tx, stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestRepositoriesRejectForeignTransaction(t *testing.T) {
	pool := newMockPool(t)

	err := newAccountRepository(pool).Update(context.Background(), foreignTx{}, &domain.Account{})
	if !errors.Is(err, ErrForeignTransaction) {
		t.Fatalf("expected ErrForeignTransaction, got %v", err)
	}
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }

func TestStockRepositoryUpsertKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	repo := newStockRepository(pool)
	tx := beginMockTx(t, pool)

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	now := time.Now().UTC()

	pool.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (symbol) DO UPDATE")).
		WithArgs("ACME", "Acme", uint64ToNumeric(12), uint64ToNumeric(70), now, now).
		WillReturnRows(pool.NewRows([]string{"version", "created_at"}).AddRow(int64(4), created))

	stock := &domain.Stock{Symbol: "ACME", Name: "Acme", Price: 12, AvailableQuantity: 70, CreatedAt: now, UpdatedAt: now}
	if err := repo.Upsert(ctx, tx, stock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stock.Version != 4 || !stock.CreatedAt.Equal(created) {
		t.Fatalf("unexpected stock after upsert: %+v", stock)
	}

	assertExpectations(t, pool)
}

func TestStockRepositoryListOrdered(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	repo := newStockRepository(pool)
	now := time.Now().UTC()

	rows := pool.NewRows([]string{"symbol", "name", "price", "available_quantity", "version", "created_at", "updated_at"}).
		AddRow("ACME", "Acme", uint64ToNumeric(10), uint64ToNumeric(45), int64(2), now, now).
		AddRow("ZED", "Zed", uint64ToNumeric(1), uint64ToNumeric(0), int64(1), now, now)
	pool.ExpectQuery(regexp.QuoteMeta("FROM stocks ORDER BY symbol")).WillReturnRows(rows)

	stocks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stocks) != 2 || stocks[0].Symbol != "ACME" || stocks[0].AvailableQuantity != 45 || stocks[1].AvailableQuantity != 0 {
		t.Fatalf("unexpected stocks: %+v", stocks)
	}

	assertExpectations(t, pool)
}

func TestStockRepositoryDeleteMissing(t *testing.T) {
	pool := newMockPool(t)
	repo := newStockRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectExec(regexp.QuoteMeta("DELETE FROM stocks")).
		WithArgs("NOPE").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), tx, "NOPE"); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestHoldingRepositorySaveInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	repo := newHoldingRepository(pool)
	tx := beginMockTx(t, pool)
	now := time.Now().UTC()

	pool.ExpectExec(regexp.QuoteMeta("INSERT INTO holdings")).
		WithArgs("alice", "ACME", "Acme", uint64ToNumeric(10), uint64ToNumeric(5), uint64ToNumeric(50), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(regexp.QuoteMeta("UPDATE holdings")).
		WithArgs("alice", "ACME", "Acme", uint64ToNumeric(10), uint64ToNumeric(7), uint64ToNumeric(70), now, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	h := &domain.Holding{Owner: "alice", Symbol: "ACME", StockName: "Acme", Price: 10, Quantity: 5, Total: 50, UpdatedAt: now}
	if err := repo.Save(ctx, tx, h); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if h.Version != 1 {
		t.Fatalf("expected version 1, got %d", h.Version)
	}

	h.Quantity, h.Total = 7, 70
	if err := repo.Save(ctx, tx, h); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if h.Version != 2 {
		t.Fatalf("expected version 2, got %d", h.Version)
	}

	assertExpectations(t, pool)
}

func TestHoldingRepositoryCountAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool(t)
	repo := newHoldingRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM holdings")).
		WithArgs("ACME").
		WillReturnRows(pool.NewRows([]string{"count"}).AddRow(int64(2)))
	pool.ExpectExec(regexp.QuoteMeta("DELETE FROM holdings")).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.CountBySymbol(ctx, tx, "ACME")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 holdings, got %d (%v)", n, err)
	}

	removed, err := repo.DeleteAll(ctx, tx)
	if err != nil || removed != 3 {
		t.Fatalf("expected 3 removed, got %d (%v)", removed, err)
	}

	assertExpectations(t, pool)
}

func TestHoldingRepositoryGetMissing(t *testing.T) {
	pool := newMockPool(t)
	repo := newHoldingRepository(pool)

	pool.ExpectQuery(regexp.QuoteMeta("FROM holdings WHERE owner = $1 AND symbol = $2")).
		WithArgs("alice", "ACME").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), domain.HoldingKey{Owner: "alice", Symbol: "ACME"})
	if !errors.Is(err, domain.ErrHoldingNotFound) {
		t.Fatalf("expected ErrHoldingNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	pool := newMockPool(t)
	repo := newOutboxRepository(pool)
	now := time.Now().UTC()

	rows := pool.NewRows([]string{"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published"}).
		AddRow("01A", "alice/ACME", domain.AggregateTypeHolding, domain.EventTypeTradeBuy, []byte(`{"quantity":5}`), now, nil, false)
	pool.ExpectQuery(regexp.QuoteMeta("FROM outbox_events")).
		WithArgs(10).
		WillReturnRows(rows)

	events, err := repo.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Payload["quantity"] != float64(5) || events[0].PublishedAt != nil {
		t.Fatalf("unexpected events: %+v", events)
	}

	assertExpectations(t, pool)
}

func TestNumericToUint64(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)

	tests := []struct {
		name    string
		in      pgtype.Numeric
		want    uint64
		wantErr bool
	}{
		{name: "zero", in: uint64ToNumeric(0), want: 0},
		{name: "max", in: uint64ToNumeric(^uint64(0)), want: ^uint64(0)},
		{name: "scaled", in: pgtype.Numeric{Int: big.NewInt(12), Exp: 2, Valid: true}, want: 1200},
		{name: "overflow", in: pgtype.Numeric{Int: tooBig, Valid: true}, wantErr: true},
		{name: "negative", in: pgtype.Numeric{Int: big.NewInt(-1), Valid: true}, wantErr: true},
		{name: "fraction", in: pgtype.Numeric{Int: big.NewInt(15), Exp: -1, Valid: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := numericToUint64(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("numericToUint64 = %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestULIDGeneratorIsSortableAndUnique(t *testing.T) {
	g := NewULIDGenerator()
	a, b := g.Generate(), g.Generate()
	if a == b || len(a) != 26 {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}
