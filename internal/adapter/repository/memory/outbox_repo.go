package memory

import (
	"context"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create appends an event inside tx.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	st.outbox = append(st.outbox, *event)
	return nil
}

// GetUnpublished returns the oldest unpublished events.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	r.store.read(func(st *state) {
		for _, e := range st.outbox {
			if e.Published {
				continue
			}
			event := e
			events = append(events, &event)
			if limit > 0 && len(events) == limit {
				return
			}
		}
	})
	return events, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				at := publishedAt
				st.outbox[i].Published = true
				st.outbox[i].PublishedAt = &at
				return nil
			}
		}
		return nil
	})
}

// DeletePublished drops events published before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.write(ctx, func(st *state) error {
		kept := st.outbox[:0]
		for _, e := range st.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				continue
			}
			kept = append(kept, e)
		}
		st.outbox = kept
		return nil
	})
}
