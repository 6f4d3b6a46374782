// Package events publishes allocation changes and applies them to the local
// room caches of every running instance.
package events

import (
	"context"
	"hotelops/pkg/logger"
	"time"
)

const SchemaVersion = "1"

const (
	ReservationCreated       = "reservation.created"
	ReservationUpdated       = "reservation.updated"
	ReservationStatusChanged = "reservation.status_changed"
	ReservationDeleted       = "reservation.deleted"

	TaskCreated       = "task.created"
	TaskBatchCreated  = "task.batch_created"
	TaskUpdated       = "task.updated"
	TaskStatusChanged = "task.status_changed"
	TaskDeleted       = "task.deleted"
)

// Event describes a committed change. RoomIDs lists every room whose cached
// reads the change invalidates, including the previous room of a move.
type Event struct {
	Type       string    `json:"type"`
	EntityID   string    `json:"entity_id"`
	RoomIDs    []string  `json:"room_ids"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Emit publishes and logs a failure instead of returning it: the change is
// already committed and local caches were invalidated by the caller.
func Emit(ctx context.Context, pub Publisher, log *logger.Logger, event Event) {
	if pub == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, event); err != nil {
		log.Error("Failed to publish event",
			"event_type", event.Type,
			"entity_id", event.EntityID,
			"room_ids", event.RoomIDs,
			"error", err,
		)
	}
}
