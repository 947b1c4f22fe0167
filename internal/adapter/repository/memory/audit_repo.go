package memory

import (
	"context"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// CreateTx appends an audit log inside tx.
func (r *AuditRepository) CreateTx(_ context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	c := *log
	n := len(r.store.audit)
	r.store.audit = append(r.store.audit, &c)
	t.record(func() { r.store.audit = r.store.audit[:n] })
	return nil
}

// List returns audit logs in insertion order.
func (r *AuditRepository) List(context.Context) ([]*domain.AuditLog, error) {
	defer r.store.rlock()()

	logs := make([]*domain.AuditLog, 0, len(r.store.audit))
	for _, l := range r.store.audit {
		c := *l
		logs = append(logs, &c)
	}
	return logs, nil
}
