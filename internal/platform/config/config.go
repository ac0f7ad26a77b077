package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	SinkTopic     string
	JWTSigningKey string

	SMSBackend    string
	VerifyCodeTTL time.Duration
}

// FromEnv reads configuration from the environment, applying development
// defaults where a variable is unset.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CHRONICLE_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("CHRONICLE_DATABASE_URL"),
		RedisURL:      os.Getenv("CHRONICLE_REDIS_URL"),
		SinkTopic:     getenv("CHRONICLE_SINK_TOPIC", "chronicle.audit"),
		JWTSigningKey: getenv("CHRONICLE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SMSBackend:    getenv("SMS_BACKEND", "alibaba"),
		VerifyCodeTTL: 5 * time.Minute,
	}
	if brokers := os.Getenv("CHRONICLE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("CHRONICLE_VERIFY_CODE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.VerifyCodeTTL = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvSettings is the process settings source: a flat key/value lookup backed
// by environment variables. The SMS backends resolve their signature and
// template identifiers through it at call time.
type EnvSettings struct{}

// Get returns the raw value for key, or "" when unset.
func (EnvSettings) Get(key string) string {
	return os.Getenv(key)
}
