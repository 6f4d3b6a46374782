package kafkaconfig

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	// Events are small and per room; a short linger keeps invalidation
	// latency low across instances.
	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 5 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"

	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1024 * 1024
	DefaultConsumerMaxWait           = 250 * time.Millisecond
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 30 * time.Second
	DefaultConsumerMaxRetries        = 3

	DefaultEnableMiddleware = true
)
