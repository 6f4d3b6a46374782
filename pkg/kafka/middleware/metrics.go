package kafkamiddleware

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"hotelops/pkg/kafka"
	"hotelops/pkg/logger"
)

type counter struct {
	ok       atomic.Int64
	failed   atomic.Int64
	duration atomic.Int64 // nanoseconds, successes and failures
}

func (c *counter) observe(start time.Time, err error) {
	c.duration.Add(int64(time.Since(start)))
	if err != nil {
		c.failed.Add(1)
		return
	}
	c.ok.Add(1)
}

func (c *counter) avg() time.Duration {
	n := c.ok.Load() + c.failed.Load()
	if n == 0 {
		return 0
	}
	return time.Duration(c.duration.Load() / n)
}

// Metrics counts published and consumed messages, overall and per event type.
type Metrics struct {
	published counter
	consumed  counter

	mu     sync.Mutex
	byType map[string]*counter
}

var globalMetrics = NewMetrics()

func NewMetrics() *Metrics {
	return &Metrics{byType: make(map[string]*counter)}
}

func GetMetrics() *Metrics {
	return globalMetrics
}

func (m *Metrics) eventType(name string) *counter {
	if name == "" {
		name = "unknown"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byType[name]
	if !ok {
		c = &counter{}
		m.byType[name] = c
	}
	return c
}

type Snapshot struct {
	Published       int64
	PublishFailed   int64
	AvgPublish      time.Duration
	Consumed        int64
	ConsumeFailed   int64
	AvgConsume      time.Duration
	PublishedByType map[string]int64
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Published:       m.published.ok.Load(),
		PublishFailed:   m.published.failed.Load(),
		AvgPublish:      m.published.avg(),
		Consumed:        m.consumed.ok.Load(),
		ConsumeFailed:   m.consumed.failed.Load(),
		AvgConsume:      m.consumed.avg(),
		PublishedByType: make(map[string]int64),
	}
	m.mu.Lock()
	for name, c := range m.byType {
		s.PublishedByType[name] = c.ok.Load()
	}
	m.mu.Unlock()
	return s
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.published.observe(start, err)
		m.eventType(msg.GetEventType()).observe(start, err)
		return err
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.consumed.observe(start, err)
		return err
	}
}

// MetricsProducerMiddleware records into the process-wide Metrics.
func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return globalMetrics.ProducerMiddleware()
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return globalMetrics.ConsumerMiddleware()
}

// LogMetrics writes a snapshot, typically on shutdown.
func (m *Metrics) LogMetrics(log *logger.Logger) {
	s := m.Snapshot()
	attrs := []any{
		"published", s.Published,
		"published_failed", s.PublishFailed,
		"avg_publish_duration", s.AvgPublish,
		"consumed", s.Consumed,
		"consumed_failed", s.ConsumeFailed,
		"avg_consume_duration", s.AvgConsume,
	}
	for _, name := range slices.Sorted(maps.Keys(s.PublishedByType)) {
		attrs = append(attrs, "published."+name, s.PublishedByType[name])
	}
	log.Info("Kafka metrics", attrs...)
}
