package events

import (
	"context"
	"fmt"
	"hotelops/pkg/kafka"
	"hotelops/pkg/middleware"
)

// MessagePublisher is the subset of kafka.Producer used here.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessagePublisher
	source   string
}

func NewKafkaPublisher(producer MessagePublisher, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

// Publish keys the message by the first affected room so events for one room
// are delivered in order.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	key := event.EntityID
	if len(event.RoomIDs) > 0 {
		key = event.RoomIDs[0]
	}

	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(event).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build %s event: %w", event.Type, err)
	}

	return p.producer.Publish(ctx, msg)
}
