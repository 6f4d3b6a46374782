// Package kafkaconfig holds the client tunables shared by the event producer
// and the cache invalidation consumer. Topics and the consumer group live in
// the service configuration.
package kafkaconfig

import (
	"fmt"
	"hotelops/pkg/logger"
	"os"
	"strconv"
	"strings"
	"time"
)

type Producer struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int    // -1 all replicas, 0 none, 1 leader
	Compression  string // none, gzip, snappy, lz4, zstd
}

// Consumer has no start offset or commit interval: every instance joins a
// fresh group and only needs events produced after it started.
type Consumer struct {
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
}

type Config struct {
	Brokers  []string
	Producer Producer
	Consumer Consumer

	EnableMiddleware bool
}

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

func Load() (*Config, error) {
	cfg := &Config{
		Brokers: splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		Producer: Producer{
			MaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
			BatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
			RequireAcks:  getEnvInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
			Compression:  strings.ToLower(getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression)),
		},
		Consumer: Consumer{
			MinBytes:          getEnvInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
			MaxBytes:          getEnvInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
			MaxWait:           getEnvDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
			HeartbeatInterval: getEnvDuration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
			SessionTimeout:    getEnvDuration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
			RebalanceTimeout:  getEnvDuration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
			MaxRetries:        getEnvInt(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),
		},
		EnableMiddleware: getEnvBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for broker := range strings.SplitSeq(s, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func (cfg *Config) Validate() error {
	var problems []string
	positiveDuration := func(name string, d time.Duration) {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}
	positiveInt := func(name string, n int) {
		if n <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %d", name, n))
		}
	}

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "At least one Kafka broker is required")
	}

	positiveInt("Producer.MaxAttempts", cfg.Producer.MaxAttempts)
	positiveDuration("Producer.BatchTimeout", cfg.Producer.BatchTimeout)
	if cfg.Producer.RequireAcks < -1 || cfg.Producer.RequireAcks > 1 {
		problems = append(problems, fmt.Sprintf("Producer.RequireAcks must be -1, 0 or 1, got: %d", cfg.Producer.RequireAcks))
	}
	if !contains(compressions, cfg.Producer.Compression) {
		problems = append(problems, fmt.Sprintf("Producer.Compression must be one of %v, got: %q", compressions, cfg.Producer.Compression))
	}

	positiveInt("Consumer.MinBytes", cfg.Consumer.MinBytes)
	positiveInt("Consumer.MaxBytes", cfg.Consumer.MaxBytes)
	if cfg.Consumer.MinBytes > cfg.Consumer.MaxBytes {
		problems = append(problems, fmt.Sprintf("Consumer.MinBytes (%d) cannot exceed Consumer.MaxBytes (%d)", cfg.Consumer.MinBytes, cfg.Consumer.MaxBytes))
	}
	positiveDuration("Consumer.MaxWait", cfg.Consumer.MaxWait)
	positiveDuration("Consumer.HeartbeatInterval", cfg.Consumer.HeartbeatInterval)
	positiveDuration("Consumer.SessionTimeout", cfg.Consumer.SessionTimeout)
	positiveDuration("Consumer.RebalanceTimeout", cfg.Consumer.RebalanceTimeout)
	if cfg.Consumer.HeartbeatInterval >= cfg.Consumer.SessionTimeout {
		problems = append(problems, "Consumer.HeartbeatInterval must be shorter than Consumer.SessionTimeout")
	}
	if cfg.Consumer.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("Consumer.MaxRetries cannot be negative, got: %d", cfg.Consumer.MaxRetries))
	}

	if len(problems) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("Kafka configuration validation failed:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", b.String())
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer", cfg.Producer,
		"consumer", cfg.Consumer,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
