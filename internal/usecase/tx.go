package usecase

import (
	"context"
	"time"

	"github.com/iho/stockledger/internal/domain"
)

// runInTx runs fn inside a transaction bounded by DefaultTransactionTimeout.
// The transaction commits only when fn returns nil.
func runInTx(ctx context.Context, txManager TransactionManager, fn func(txCtx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// retry runs op through retrier when one is configured.
func retry(ctx context.Context, retrier Retrier, op func() error) error {
	if retrier == nil {
		return op()
	}
	return retrier.Retry(ctx, op)
}

// emitEvent appends an outbox event in tx. A nil repository disables the outbox.
func emitEvent(
	ctx context.Context,
	tx Transaction,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	aggregateType, aggregateID, eventType string,
	payload map[string]any,
	now time.Time,
) error {
	if outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	}
	return outboxRepo.Create(ctx, tx, event)
}

// actorID names the principal on ctx for audit records.
func actorID(ctx context.Context) string {
	if p, ok := domain.PrincipalFromContext(ctx); ok && p.ID != "" {
		return p.ID
	}
	return "system"
}

// writeAudit records a successful administrative action in tx. A nil repository disables auditing.
func writeAudit(
	ctx context.Context,
	tx Transaction,
	auditRepo AuditRepository,
	idGen IDGenerator,
	action domain.AuditAction,
	resourceType, resourceID string,
	before, after domain.JSON,
	now time.Time,
) error {
	if auditRepo == nil {
		return nil
	}

	return auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           idGen.Generate(),
		UserID:       actorID(ctx),
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	})
}
