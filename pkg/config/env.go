package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvHotelTimeZone             = "HOTEL_TIME_ZONE"
	EnvReservationAllowReinstate = "RESERVATION_ALLOW_REINSTATE"
	EnvRoomCacheSize             = "ROOM_CACHE_SIZE"

	EnvKafkaEnabled           = "KAFKA_ENABLED"
	EnvKafkaReservationsTopic = "KAFKA_RESERVATIONS_TOPIC"
	EnvKafkaTasksTopic        = "KAFKA_TASKS_TOPIC"
	EnvKafkaDLQTopic          = "KAFKA_DLQ_TOPIC"
	EnvKafkaCacheGroupPrefix  = "KAFKA_CACHE_GROUP_PREFIX"
)
