package events

import (
	"context"
	"errors"
	"hotelops/pkg/kafka"
	"hotelops/pkg/logger"
	"hotelops/pkg/middleware"
	"slices"
	"testing"
	"time"
)

type capturePublisher struct {
	msgs []kafka.Message
	err  error
}

func (c *capturePublisher) Publish(ctx context.Context, msg kafka.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

type fakeInvalidator struct {
	rooms  []string
	purges int
}

func (f *fakeInvalidator) Invalidate(roomIDs ...string) {
	f.rooms = append(f.rooms, roomIDs...)
}

func (f *fakeInvalidator) Purge() {
	f.purges++
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker unavailable")
}

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := &capturePublisher{}
	pub := NewKafkaPublisher(producer, "reservations")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	event := Event{
		Type:       ReservationUpdated,
		EntityID:   "r1",
		RoomIDs:    []string{"101", "102"},
		OccurredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := pub.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(producer.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(producer.msgs))
	}
	msg := producer.msgs[0]
	if msg.Key != "101" {
		t.Errorf("key = %q, want first room", msg.Key)
	}
	if msg.GetEventType() != ReservationUpdated {
		t.Errorf("event type = %q", msg.GetEventType())
	}
	if msg.GetCorrelationID() != "req-42" {
		t.Errorf("correlation id = %q", msg.GetCorrelationID())
	}

	var decoded Event
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if !slices.Equal(decoded.RoomIDs, event.RoomIDs) {
		t.Errorf("room ids = %v", decoded.RoomIDs)
	}
}

func TestInvalidationHandler(t *testing.T) {
	reservations := &fakeInvalidator{}
	tasks := &fakeInvalidator{}
	handler := InvalidationHandler(logger.Discard(), reservations, tasks)

	msg, err := kafka.NewMessage().
		WithKey("101").
		WithValue(Event{Type: TaskBatchCreated, RoomIDs: []string{"101", "103"}}).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := handler(context.Background(), msg); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !slices.Equal(reservations.rooms, []string{"101", "103"}) || !slices.Equal(tasks.rooms, []string{"101", "103"}) {
		t.Errorf("invalidated %v / %v", reservations.rooms, tasks.rooms)
	}
}

func TestInvalidationHandler_BadPayloadIsPermanent(t *testing.T) {
	reservations := &fakeInvalidator{}
	tasks := &fakeInvalidator{}
	handler := InvalidationHandler(logger.Discard(), reservations, tasks)

	err := handler(context.Background(), kafka.Message{Key: "k", Value: []byte("{not json")})
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("expected permanent error, got %v", err)
	}
	if reservations.purges != 1 || tasks.purges != 1 {
		t.Errorf("unreadable event should purge every cache, got %d / %d", reservations.purges, tasks.purges)
	}
}

func TestEmit_LogsAndSwallowsFailure(t *testing.T) {
	pub := &failingPublisher{}
	Emit(context.Background(), pub, logger.Discard(), Event{Type: TaskDeleted, EntityID: "t1"})
	if pub.calls != 1 {
		t.Errorf("Publish called %d times", pub.calls)
	}

	Emit(context.Background(), nil, logger.Discard(), Event{Type: TaskDeleted})
}
