package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// PostgresURL selects the durable stores. Empty means in-memory stores,
	// which is the development and unit-test mode.
	PostgresURL string

	// RedisURL enables the distributed cast-attempt throttle. Empty falls
	// back to the in-memory throttle.
	RedisURL string

	// KafkaBrokers enables the Kafka audit sink. Empty disables it.
	KafkaBrokers []string
	AuditTopic   string

	// AdminToken guards the issuance/revocation/configuration surface.
	AdminToken string

	// CredentialKey is the process-wide secret for credential digests.
	// Loaded once at startup, never logged. See internal/credential/digest.
	CredentialKey string

	// CodeLength is the number of digits in generated voting codes.
	CodeLength int

	// ThrottleLimit / ThrottleWindow bound cast attempts per client.
	ThrottleLimit  int
	ThrottleWindow time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:           envOr("VOTILIO_ADDR", ":8080"),
		PostgresURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AuditTopic:     envOr("AUDIT_TOPIC", "votilio.audit"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		CredentialKey:  os.Getenv("CREDENTIAL_KEY"),
		CodeLength:     envInt("CODE_LENGTH", 6),
		ThrottleLimit:  envInt("CAST_THROTTLE_LIMIT", 10),
		ThrottleWindow: envDuration("CAST_THROTTLE_WINDOW", time.Minute),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitCSV(brokers)
	}
	if cfg.AdminToken == "" {
		// Development default - must be overridden in production.
		cfg.AdminToken = "dev-admin-token"
	}
	if cfg.CredentialKey == "" {
		// Development default - must be overridden in production.
		cfg.CredentialKey = "dev-credential-key-change-in-production"
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
