package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// EventMessage is the JSON document published for each outbox event.
type EventMessage struct {
	MessageID     string         `json:"message_id"`
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// EventPublisher publishes outbox events to a Redis pub/sub channel.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

// Publish sends event on the channel. Delivery is at least once: a crash
// between PUBLISH and marking the event published resends it with a new
// message id and the same event id.
func (p *EventPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	body, err := json.Marshal(EventMessage{
		MessageID:     uuid.NewString(),
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	return p.client.Publish(ctx, p.channel, body).Err()
}
