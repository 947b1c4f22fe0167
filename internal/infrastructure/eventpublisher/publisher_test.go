package eventpublisher

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase/mocks"
)

type recordingPublisher struct {
	published  []string
	errorsByID map[string]error
}

func (p *recordingPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if err := p.errorsByID[event.ID]; err != nil {
		return err
	}
	p.published = append(p.published, event.ID)
	return nil
}

func newTestPublisher(t *testing.T, pub Publisher) (*EventPublisher, *mocks.MockOutboxRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockOutboxRepository(ctrl)
	ep := NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   10 * time.Millisecond,
	})
	return ep, repo
}

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	pub := &recordingPublisher{}
	ep, repo := newTestPublisher(t, pub)

	repo.EXPECT().GetUnpublished(gomock.Any(), 10).
		Return([]*domain.OutboxEvent{{ID: "evt-1", EventType: domain.EventTypeTradeBuy}}, nil)
	repo.EXPECT().MarkPublished(gomock.Any(), "evt-1", gomock.Any()).Return(nil)

	n, err := ep.processEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"evt-1"}, pub.published)
}

func TestProcessEventsContinuesOnPublishError(t *testing.T) {
	pub := &recordingPublisher{errorsByID: map[string]error{"evt-1": errors.New("broker down")}}
	ep, repo := newTestPublisher(t, pub)

	repo.EXPECT().GetUnpublished(gomock.Any(), 10).Return([]*domain.OutboxEvent{
		{ID: "evt-1", EventType: domain.EventTypeTradeBuy},
		{ID: "evt-2", EventType: domain.EventTypeTradeSell},
	}, nil)
	repo.EXPECT().MarkPublished(gomock.Any(), "evt-2", gomock.Any()).Return(nil)

	n, err := ep.processEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"evt-2"}, pub.published)
}

func TestProcessEventsMarkFailureNotCounted(t *testing.T) {
	pub := &recordingPublisher{}
	ep, repo := newTestPublisher(t, pub)

	repo.EXPECT().GetUnpublished(gomock.Any(), 10).
		Return([]*domain.OutboxEvent{{ID: "evt-1"}}, nil)
	repo.EXPECT().MarkPublished(gomock.Any(), "evt-1", gomock.Any()).Return(errors.New("db down"))

	n, err := ep.processEvents(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessEventsFetchError(t *testing.T) {
	ep, repo := newTestPublisher(t, &recordingPublisher{})

	repo.EXPECT().GetUnpublished(gomock.Any(), 10).Return(nil, errors.New("db down"))

	_, err := ep.processEvents(context.Background())
	assert.Error(t, err)
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	ep, repo := newTestPublisher(t, &recordingPublisher{})
	repo.EXPECT().GetUnpublished(gomock.Any(), 10).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestNewEventPublisherDefaults(t *testing.T) {
	ep := NewEventPublisher(Config{Logger: zerolog.Nop()})
	assert.Equal(t, 100, ep.batchSize)
	assert.Equal(t, 5*time.Second, ep.interval)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(zerolog.New(&buf))

	err := pub.Publish(context.Background(), &domain.OutboxEvent{
		ID:            "evt-1",
		EventType:     domain.EventTypeTradeBuy,
		AggregateType: domain.AggregateTypeHolding,
		AggregateID:   "alice/ACME",
		Payload:       map[string]any{"quantity": 5},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"aggregate_id":"alice/ACME"`)
	assert.Contains(t, buf.String(), `"payload":{"quantity":5}`)
}
