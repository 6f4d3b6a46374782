package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Message is the transport-neutral envelope handed to producers and
// consumer handlers. Partition and Offset are only set on consumed messages.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
	HeaderSchemaVersion = "schema-version"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderRetryCount    = "retry-count"

	// Set when a message is parked on the dead letter topic.
	HeaderOriginalTopic = "original-topic"
	HeaderDLQError      = "dlq-error"
	HeaderDLQTimestamp  = "dlq-timestamp"
	HeaderDLQGroup      = "dlq-consumer-group"
)

// MessageHandler processes one consumed message. A non-nil error triggers
// a retry or the dead letter topic depending on its classification.
type MessageHandler func(ctx context.Context, msg Message) error

type MessageBuilder struct {
	msg   Message
	value any
}

func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		msg: Message{
			Headers:   map[string]string{},
			Timestamp: time.Now().UTC(),
		},
	}
}

// WithKey picks the partition. Events for one room share a key.
func (mb *MessageBuilder) WithKey(key string) *MessageBuilder {
	mb.msg.Key = key
	return mb
}

// WithValue stores the payload; it is JSON encoded by Build.
func (mb *MessageBuilder) WithValue(value any) *MessageBuilder {
	mb.value = value
	return mb
}

func (mb *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	return mb.header(HeaderEventType, eventType)
}

func (mb *MessageBuilder) WithCorrelationID(correlationID string) *MessageBuilder {
	return mb.header(HeaderCorrelationID, correlationID)
}

func (mb *MessageBuilder) WithSchemaVersion(version string) *MessageBuilder {
	return mb.header(HeaderSchemaVersion, version)
}

func (mb *MessageBuilder) WithSource(source string) *MessageBuilder {
	return mb.header(HeaderSource, source)
}

func (mb *MessageBuilder) WithTimestamp(ts time.Time) *MessageBuilder {
	if !ts.IsZero() {
		mb.msg.Timestamp = ts.UTC()
	}
	return mb
}

// header ignores empty values so optional metadata never shows up blank.
func (mb *MessageBuilder) header(key, value string) *MessageBuilder {
	if value != "" {
		mb.msg.Headers[key] = value
	}
	return mb
}

// Build encodes the payload and fills in the event id and timestamp headers.
func (mb *MessageBuilder) Build() (Message, error) {
	if mb.value != nil {
		data, err := json.Marshal(mb.value)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		mb.msg.Value = data
	}

	msg := mb.msg.withHeaders(map[string]string{
		HeaderTimestamp: mb.msg.Timestamp.Format(time.RFC3339),
	})
	if msg.Headers[HeaderEventID] == "" {
		msg.Headers[HeaderEventID] = uuid.NewString()
	}
	return msg, nil
}

func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

func (m *Message) GetEventID() string       { return m.Headers[HeaderEventID] }
func (m *Message) GetEventType() string     { return m.Headers[HeaderEventType] }
func (m *Message) GetCorrelationID() string { return m.Headers[HeaderCorrelationID] }

// GetRetryCount reads the retry header; a missing or garbled value counts as 0.
func (m *Message) GetRetryCount() int {
	count, err := strconv.Atoi(m.Headers[HeaderRetryCount])
	if err != nil || count < 0 {
		return 0
	}
	return count
}

func (m *Message) IncrementRetryCount() {
	if m.Headers == nil {
		m.Headers = map[string]string{}
	}
	m.Headers[HeaderRetryCount] = strconv.Itoa(m.GetRetryCount() + 1)
}

// withHeaders returns a copy of m with extra headers set, leaving the
// original map untouched since it may be shared with the caller.
func (m Message) withHeaders(extra map[string]string) Message {
	headers := make(map[string]string, len(m.Headers)+len(extra))
	maps.Copy(headers, m.Headers)
	maps.Copy(headers, extra)
	m.Headers = headers
	return m
}
