package events

import (
	"context"
	"hotelops/pkg/kafka"
	"hotelops/pkg/logger"
)

// Invalidator is implemented by the room caches.
type Invalidator interface {
	Invalidate(roomIDs ...string)
	Purge()
}

// InvalidationHandler returns a consumer handler that drops the cached reads
// of every room named in an event. Events from this instance are applied too,
// which is harmless since invalidation is idempotent.
func InvalidationHandler(log *logger.Logger, caches ...Invalidator) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event Event
		if err := msg.DecodeValue(&event); err != nil {
			// The affected rooms are unknown, so nothing cached can be trusted.
			for _, c := range caches {
				c.Purge()
			}
			log.Warn("Unreadable event, room caches purged",
				"event_id", msg.GetEventID(),
				"offset", msg.Offset,
				"error", err,
			)
			return kafka.NewPermanentError("deserialization failed", err)
		}

		if len(event.RoomIDs) == 0 {
			log.Debug("Event carries no rooms, nothing to invalidate", "event_type", event.Type)
			return nil
		}

		for _, c := range caches {
			c.Invalidate(event.RoomIDs...)
		}

		log.Debug("Room caches invalidated",
			"event_type", event.Type,
			"entity_id", event.EntityID,
			"room_ids", event.RoomIDs,
		)
		return nil
	}
}
