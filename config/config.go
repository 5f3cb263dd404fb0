package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string

	KafkaBrokers       string
	LookupRequestTopic string
	SnapshotTopic      string
	SnapshotGroupID    string
	CartEventTopic     string
	PaymentEventTopic  string

	RequesterTag  string
	LookupTimeout time.Duration

	SimulationSuccessRate float64
	SimulationMinDelay    time.Duration
	SimulationMaxDelay    time.Duration

	IdempotencyTTL time.Duration

	JWTSecret string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8085"),
		Environment: getEnv("ENVIRONMENT", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		RedisURL: getEnv("REDIS_URL", "redis://redis:6379"),

		KafkaBrokers:       getEnv("KAFKA_BROKERS", "localhost:9092"),
		LookupRequestTopic: getEnv("LOOKUP_REQUEST_TOPIC", "service.requests"),
		SnapshotTopic:      getEnv("SNAPSHOT_TOPIC", "service.responses"),
		SnapshotGroupID:    getEnv("SNAPSHOT_GROUP_ID", "cart-payment-service-group"),
		CartEventTopic:     getEnv("CART_EVENT_TOPIC", "cart.events"),
		PaymentEventTopic:  getEnv("PAYMENT_EVENT_TOPIC", "payment.events"),

		RequesterTag:  getEnv("REQUESTER_TAG", "cart-payment-service"),
		LookupTimeout: getDuration("LOOKUP_TIMEOUT", 10*time.Second),

		SimulationSuccessRate: getFloat("PAYMENT_SIMULATION_SUCCESS_RATE", 0.85),
		SimulationMinDelay:    getDuration("PAYMENT_SIMULATION_MIN_DELAY", 50*time.Millisecond),
		SimulationMaxDelay:    getDuration("PAYMENT_SIMULATION_MAX_DELAY", 200*time.Millisecond),

		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key"),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("missing required environment variables")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}
