package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything main needs to wire the process.
type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
	Audit    Audit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	ShutdownTimeout time.Duration
}

// Database points at the Postgres instance. An empty URL selects the
// in-memory stores, which is how local development runs.
type Database struct {
	URL string
}

// RedisConfig tunes the shared Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the event notifier and the outbox relay. Empty brokers
// disable both and lifecycle events go to the log instead.
type Kafka struct {
	Brokers       string
	EventsTopic   string
	RelayInterval time.Duration
}

// Audit tunes the audit recorder.
type Audit struct {
	BufferSize int
}

// CatalogCacheTTL bounds how long package details may be served from cache.
var CatalogCacheTTL = 5 * time.Minute

// FromEnv builds the full config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("OPSDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}
	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "opsdesk"
	}

	eventsTopic := os.Getenv("KAFKA_EVENTS_TOPIC")
	if eventsTopic == "" {
		eventsTopic = "opsdesk.registration.events"
	}

	return Config{
		Server: Server{
			Addr:            addr,
			JWTSigningKey:   jwtSigningKey,
			JWTIssuer:       jwtIssuer,
			ShutdownTimeout: durationEnv("OPSDESK_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:       os.Getenv("KAFKA_BROKERS"),
			EventsTopic:   eventsTopic,
			RelayInterval: durationEnv("OUTBOX_RELAY_INTERVAL", time.Second),
		},
		Audit: Audit{
			BufferSize: intEnv("AUDIT_BUFFER_SIZE", 256),
		},
	}
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
