package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "hotelops"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultHotelTimeZone             = "UTC"
	DefaultReservationAllowReinstate = false
	DefaultRoomCacheSize             = 256

	DefaultKafkaEnabled           = false
	DefaultKafkaReservationsTopic = "hotelops.reservations"
	DefaultKafkaTasksTopic        = "hotelops.tasks"
	DefaultKafkaDLQTopic          = "hotelops.dlq"
	DefaultKafkaCacheGroupPrefix  = "hotelops-cache"

	DefaultPaginationLimit = 100
)
