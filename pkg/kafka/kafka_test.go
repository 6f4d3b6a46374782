package kafka

import (
	"context"
	"errors"
	"fmt"
	"hotelops/pkg/logger"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
)

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("room-101").
		WithValue(map[string]string{"type": "reservation.created"}).
		WithEventType("reservation.created").
		WithCorrelationID("req-1").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if msg.GetEventID() == "" {
		t.Error("Build() should generate an event id")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("Build() should set the timestamp header")
	}
	if msg.GetCorrelationID() != "req-1" {
		t.Errorf("correlation id = %q", msg.GetCorrelationID())
	}
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestMessageBuilder_SkipsEmptyHeaders(t *testing.T) {
	msg, err := NewMessage().WithKey("k").WithCorrelationID("").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, ok := msg.Headers[HeaderCorrelationID]; ok {
		t.Error("empty correlation id should not be sent as a header")
	}
	if msg.Value != nil {
		t.Errorf("value = %q, want nil", msg.Value)
	}
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{}
	for range 12 {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("GetRetryCount() = %d, want 12", got)
	}
}

func TestMessage_WithHeadersCopies(t *testing.T) {
	orig := Message{Headers: map[string]string{"a": "1"}}
	copied := orig.withHeaders(map[string]string{"b": "2"})

	if _, ok := orig.Headers["b"]; ok {
		t.Error("withHeaders must not mutate the original headers")
	}
	if copied.Headers["a"] != "1" || copied.Headers["b"] != "2" {
		t.Errorf("unexpected headers %v", copied.Headers)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"transient text", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"wrapped transient", fmt.Errorf("publish: %w", NewTransientError("broker down", nil)), ErrorTypeTransient},
		{"permanent", NewPermanentError("bad payload", nil), ErrorTypePermanent},
		{"unknown text", errors.New("something odd"), ErrorTypePermanent},
		{"broker election", fmt.Errorf("write: %w", kafkago.LeaderNotAvailable), ErrorTypeTransient},
		{"broker authorization", kafkago.TopicAuthorizationFailed, ErrorTypePermanent},
		{"deadline", fmt.Errorf("publish: %w", context.DeadlineExceeded), ErrorTypeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("timeout", nil)
	if !ShouldRetry(transient, 0, 3) {
		t.Error("transient error under the limit should be retried")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("retry limit must be honoured")
	}
	if ShouldRetry(NewPermanentError("bad", nil), 0, 3) {
		t.Error("permanent error must not be retried")
	}
}

func TestConsumer_ProcessMessageRetriesTransient(t *testing.T) {
	c := &Consumer{maxRetries: 3, log: logger.Discard()}

	calls := 0
	handler := func(ctx context.Context, msg Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("timeout", nil)
		}
		return nil
	}

	if err := c.processMessage(context.Background(), handler, Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("processMessage() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("handler called %d times, want 3", calls)
	}
}

func TestConsumer_ProcessMessageStopsOnPermanent(t *testing.T) {
	c := &Consumer{maxRetries: 3, log: logger.Discard()}

	calls := 0
	handler := func(ctx context.Context, msg Message) error {
		calls++
		return NewPermanentError("cannot decode", nil)
	}

	if err := c.processMessage(context.Background(), handler, Message{}); err == nil {
		t.Fatal("expected permanent error to be returned")
	}
	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}
