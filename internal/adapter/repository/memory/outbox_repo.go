package memory

import (
	"context"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func cloneEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	if e.PublishedAt != nil {
		at := *e.PublishedAt
		c.PublishedAt = &at
	}
	return &c
}

// Create appends an event inside tx.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := txFrom(r.store, tx)
	if err != nil {
		return err
	}

	put(t, r.store.outbox, cloneEvent(event))
	return nil
}

// GetUnpublished returns up to limit unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	defer r.store.rlock()()

	events := make([]*domain.OutboxEvent, 0, min(limit, r.store.outbox.Len()))
	r.store.outbox.Ascend(func(e *domain.OutboxEvent) bool {
		if len(events) >= limit {
			return false
		}
		events = append(events, cloneEvent(e))
		return true
	})
	return events, nil
}

// MarkPublished drops a relayed event; the store keeps only the backlog.
// The relay marks oldest first, so the match is found near the front.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, _ time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var found *domain.OutboxEvent
	r.store.outbox.Ascend(func(e *domain.OutboxEvent) bool {
		if e.ID == id {
			found = e
			return false
		}
		return true
	})
	if found != nil {
		r.store.outbox.Delete(found)
	}
	return nil
}
