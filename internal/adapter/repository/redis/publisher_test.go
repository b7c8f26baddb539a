package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

func TestEventPublisher_PublishesMessage(t *testing.T) {
	client, _ := newTestRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "ledger.events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "acc-1",
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeAccountOpened,
		Payload:       map[string]any{"account_id": "acc-1"},
		CreatedAt:     created,
	}

	require.NoError(t, NewEventPublisher(client, "ledger.events").Publish(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got EventMessage
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))

		assert.Equal(t, "evt-1", got.EventID)
		assert.Equal(t, domain.EventTypeAccountOpened, got.EventType)
		assert.Equal(t, "acc-1", got.Payload["account_id"])
		assert.True(t, created.Equal(got.CreatedAt))
		_, err := uuid.Parse(got.MessageID)
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestEventPublisher_FailsWhenServerDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	err := NewEventPublisher(client, "ledger.events").Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"})
	assert.Error(t, err)
}
