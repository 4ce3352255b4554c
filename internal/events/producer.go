package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Publisher is how writes announce themselves to the outside world.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Event struct {
	Type       string     `json:"type"`
	ID         uuid.UUID  `json:"id"`
	Actor      *uuid.UUID `json:"actor,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
	Data       any        `json:"data,omitempty"`
}

// Topic maps a resource name to its topic, e.g. "order-items" -> "order_items_events".
func Topic(resource string) string {
	out := []byte(resource)
	for i, c := range out {
		if c == '-' {
			out[i] = '_'
		}
	}
	return string(out) + "_events"
}

type Producer struct {
	writer *kafka.Writer
}

// NewProducer leaves Topic unset on the writer so each message picks its own.
func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
		},
	}
}

func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Discard is used when no brokers are configured.
type Discard struct{}

func (Discard) PublishEvent(context.Context, string, string, any) error { return nil }
