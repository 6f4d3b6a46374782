package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hotelops/pkg/config"
	"hotelops/pkg/kafka"
	kafkaconfig "hotelops/pkg/kafka/config"
	kafkamiddleware "hotelops/pkg/kafka/middleware"
	"hotelops/pkg/logger"
)

// Bus publishes one service's events to its topic and consumes the same topic
// to keep every instance's room caches fresh.
type Bus struct {
	producer *kafka.Producer
	consumer *kafka.Consumer
	cancel   context.CancelFunc
	done     chan struct{}
	log      *logger.Logger
}

// NewBus returns nil when Kafka is disabled. A nil Bus publishes nothing.
func NewBus(cfg *config.Config, source, topic string, caches ...Invalidator) (*Bus, error) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, events are not published", "source", source)
		return nil, nil
	}

	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kafka config: %w", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, topic, cfg.KafkaDLQTopic, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer for %s: %w", topic, err)
	}

	// Each instance needs every invalidation, so the group is unique per process.
	groupID := fmt.Sprintf("%s-%s-%s", cfg.KafkaCacheGroupPrefix, source, uuid.NewString())
	consumer, err := kafka.NewConsumer(kafkaCfg, topic, groupID, cfg.KafkaDLQTopic, InvalidationHandler(cfg.Log, caches...), cfg.Log)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create consumer for %s: %w", topic, err)
	}

	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware())
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafkamiddleware.MetricsConsumerMiddleware())
	}

	cfg.Log.Info("Kafka event bus configured", "topic", topic, "group_id", groupID)
	return &Bus{
		producer: producer,
		consumer: consumer,
		log:      cfg.Log,
	}, nil
}

// Publisher returns the event sink services should write to.
func (b *Bus) Publisher(source string) Publisher {
	if b == nil {
		return NopPublisher{}
	}
	return NewKafkaPublisher(b.producer, source)
}

// Start runs the invalidation consumer until Close.
func (b *Bus) Start() {
	if b == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		if err := b.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			b.log.Error("Cache invalidation consumer stopped", "error", err)
		}
	}()
}

func (b *Bus) Close(ctx context.Context) {
	if b == nil {
		return
	}
	if b.cancel != nil {
		b.cancel()
		select {
		case <-b.done:
		case <-ctx.Done():
			b.log.Warn("Timed out waiting for consumer to stop")
		}
	}
	if err := b.consumer.Close(); err != nil {
		b.log.Error("Failed to close consumer", "error", err)
	}
	if err := b.producer.Close(); err != nil {
		b.log.Error("Failed to close producer", "error", err)
	}
	kafkamiddleware.GetMetrics().LogMetrics(b.log)
}
