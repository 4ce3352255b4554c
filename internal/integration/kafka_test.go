package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storepanel/internal/events"
)

func TestKafka_PublishEvent(t *testing.T) {
	requireIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers := setupKafka(ctx, t)
	producer := events.NewProducer(brokers)
	t.Cleanup(func() { _ = producer.Close() })

	topic := events.Topic("order-items")
	id := uuid.New()
	ev := events.Event{Type: "order-items.created", ID: id, OccurredAt: time.Now().UTC()}

	// The first write may race topic auto-creation.
	require.Eventually(t, func() bool {
		return producer.PublishEvent(ctx, topic, id.String(), ev) == nil
	}, 30*time.Second, time.Second)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, id.String(), string(msg.Key))

	var got events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "order-items.created", got.Type)
	assert.Equal(t, id, got.ID)
}
