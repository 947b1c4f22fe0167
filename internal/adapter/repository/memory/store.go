// Package memory implements the ledger store on ordered in-memory B-trees.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/btree"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

const btreeDegree = 32

// ErrForeignTransaction is returned when a repository receives a transaction
// that was not started by this store.
var ErrForeignTransaction = errors.New("memory: transaction does not belong to this store")

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memory: transaction already finished")

// Store holds the ledger tables. A transaction owns the write lock from Begin
// until Commit or Rollback; reads outside a transaction share the read lock.
type Store struct {
	mu sync.RWMutex

	accounts *btree.BTreeG[*domain.Account]
	stocks   *btree.BTreeG[*domain.Stock]
	holdings *btree.BTreeG[*domain.Holding]
	outbox   *btree.BTreeG[*domain.OutboxEvent] // unpublished only
	audit    []*domain.AuditLog
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: btree.NewG(btreeDegree, func(a, b *domain.Account) bool {
			return a.Identity < b.Identity
		}),
		stocks: btree.NewG(btreeDegree, func(a, b *domain.Stock) bool {
			return a.Symbol < b.Symbol
		}),
		holdings: newHoldingTree(),
		outbox: btree.NewG(btreeDegree, func(a, b *domain.OutboxEvent) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID < b.ID
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}),
	}
}

func newHoldingTree() *btree.BTreeG[*domain.Holding] {
	return btree.NewG(btreeDegree, func(a, b *domain.Holding) bool {
		return a.Key().Less(b.Key())
	})
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin takes the store's write lock and starts a transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.store.mu.Lock()
	return &Tx{store: m.store}, nil
}

// Tx is a memory store transaction. Writes apply immediately and are undone
// in reverse order on rollback.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps the writes and releases the lock.
func (t *Tx) Commit(context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

// Rollback reverts the writes and releases the lock. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.store.mu.Unlock()
	return nil
}

func (t *Tx) record(fn func()) {
	t.undo = append(t.undo, fn)
}

func txFrom(store *Store, tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != store {
		return nil, ErrForeignTransaction
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

func put[T any](tx *Tx, tree *btree.BTreeG[T], item T) {
	old, had := tree.ReplaceOrInsert(item)
	tx.record(func() {
		if had {
			tree.ReplaceOrInsert(old)
		} else {
			tree.Delete(item)
		}
	})
}

func remove[T any](tx *Tx, tree *btree.BTreeG[T], item T) bool {
	old, had := tree.Delete(item)
	if had {
		tx.record(func() { tree.ReplaceOrInsert(old) })
	}
	return had
}

func (s *Store) rlock() func() {
	s.mu.RLock()
	return s.mu.RUnlock
}
