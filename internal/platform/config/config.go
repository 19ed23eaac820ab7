package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Empty infrastructure URLs mean
// the in-process variant is used: in-memory stores, slog-only audit.
type Server struct {
	Addr          string
	JWTSigningKey string
	SessionTTL    time.Duration

	PostgresURL string
	RedisURL    string

	KafkaBrokers    string
	KafkaAuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("HILO_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("HILO_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	sessionTTL := 12 * time.Hour
	if raw := os.Getenv("HILO_SESSION_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			sessionTTL = parsed
		}
	}

	topic := os.Getenv("HILO_KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "hilo.audit"
	}

	return Server{
		Addr:            addr,
		JWTSigningKey:   jwtSigningKey,
		SessionTTL:      sessionTTL,
		PostgresURL:     os.Getenv("HILO_POSTGRES_URL"),
		RedisURL:        os.Getenv("HILO_REDIS_URL"),
		KafkaBrokers:    os.Getenv("HILO_KAFKA_BROKERS"),
		KafkaAuditTopic: topic,
	}
}
