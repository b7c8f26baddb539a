package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	q, err := txQueryer(tx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `INSERT INTO outbox_events
		(id, aggregate_id, aggregate_type, event_type, payload, created_at, published)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		string(payload),
		formatTime(event.CreatedAt),
		event.Published,
	)

	return translateError(err)
}

// GetUnpublished retrieves the oldest unpublished events. A zero limit
// returns all of them.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at, published_at, published
		FROM outbox_events WHERE published = 0 ORDER BY created_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	events := []*domain.OutboxEvent{}
	for rows.Next() {
		var (
			event       domain.OutboxEvent
			payload     string
			createdAt   string
			publishedAt sql.NullString
		)

		if err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.AggregateType,
			&event.EventType,
			&payload,
			&createdAt,
			&publishedAt,
			&event.Published,
		); err != nil {
			return nil, err
		}

		_ = json.Unmarshal([]byte(payload), &event.Payload)

		if event.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if publishedAt.Valid {
			t, err := parseTime(publishedAt.String)
			if err != nil {
				return nil, err
			}
			event.PublishedAt = &t
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET published = 1, published_at = ? WHERE id = ?`,
		formatTime(publishedAt), id)

	return translateError(err)
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox_events WHERE published = 1 AND published_at < ?`,
		formatTime(before))

	return translateError(err)
}
