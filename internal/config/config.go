// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "json" or "console".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// IdentityAPIURL is the base URL of the identity/session service (members, invitations).
	IdentityAPIURL string `mapstructure:"IDENTITY_API_URL"`
	// IdentityAPIToken is sent as a Bearer token to the identity service.
	IdentityAPIToken string `mapstructure:"IDENTITY_API_TOKEN"`
	// ResourceAPIURL is the base URL of the resource service (shifts, schedules, geofences).
	ResourceAPIURL string `mapstructure:"RESOURCE_API_URL"`
	// ResourceAPIToken is sent as a Bearer token to the resource service.
	ResourceAPIToken string `mapstructure:"RESOURCE_API_TOKEN"`
	// HTTPClientTimeout bounds a single call to either remote service (e.g. "15s").
	HTTPClientTimeout string `mapstructure:"HTTP_CLIENT_TIMEOUT"`

	// EnrichConcurrency caps in-flight per-member enrichment calls during a refresh.
	EnrichConcurrency int `mapstructure:"ENRICH_CONCURRENCY"`
	// BulkConcurrency caps in-flight mutations of one bulk batch.
	BulkConcurrency int `mapstructure:"BULK_CONCURRENCY"`

	// RedisAddr enables the shared enrichment cache when set (e.g. localhost:6379); empty uses an in-process cache.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	// ViewCacheTTL is how long fetched schedules and geofence links are reused (e.g. "2m").
	ViewCacheTTL string `mapstructure:"VIEW_CACHE_TTL"`

	// DatabaseURL is the Postgres DSN for the audit trail; empty disables auditing.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// JWTPublicKey is the PEM-encoded public key or path to file used to verify session tokens.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim of session tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim of session tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`

	// PolicyFile optionally points at a Rego module replacing the built-in console policy.
	PolicyFile string `mapstructure:"POLICY_FILE"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses; empty disables roster events.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// RosterEventsTopic is the Kafka topic for roster events.
	RosterEventsTopic string `mapstructure:"ROSTER_EVENTS_TOPIC"`
	// KafkaGroupID is the consumer group ID for the roster event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// Worker-only: Loki URL the roster event worker pushes activity lines to.
	LokiURL string `mapstructure:"LOKI_URL"`
}

// Load reads .env (if present), then builds and validates the server Config from the environment
// via Viper. Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if strings.TrimSpace(cfg.IdentityAPIURL) == "" {
		return nil, errors.New("config: IDENTITY_API_URL must be set")
	}
	if strings.TrimSpace(cfg.ResourceAPIURL) == "" {
		return nil, errors.New("config: RESOURCE_API_URL must be set")
	}
	if cfg.EnrichConcurrency < 1 || cfg.EnrichConcurrency > 64 {
		return nil, errors.New("config: ENRICH_CONCURRENCY must be between 1 and 64")
	}
	if cfg.BulkConcurrency < 1 || cfg.BulkConcurrency > 64 {
		return nil, errors.New("config: BULK_CONCURRENCY must be between 1 and 64")
	}
	return cfg, nil
}

// LoadWorker loads Config for the roster event worker, which needs Kafka and Loki only.
func LoadWorker() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if len(cfg.KafkaBrokersList()) == 0 {
		return nil, errors.New("config: KAFKA_BROKERS must be set")
	}
	if strings.TrimSpace(cfg.LokiURL) == "" {
		return nil, errors.New("config: LOKI_URL must be set")
	}
	return cfg, nil
}

// LoadDatabase loads Config for tools that only talk to Postgres.
func LoadDatabase() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("config: DATABASE_URL must be set")
	}
	return cfg, nil
}

func read() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("IDENTITY_API_URL", "")
	v.SetDefault("IDENTITY_API_TOKEN", "")
	v.SetDefault("RESOURCE_API_URL", "")
	v.SetDefault("RESOURCE_API_TOKEN", "")
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "15s")
	v.SetDefault("ENRICH_CONCURRENCY", 8)
	v.SetDefault("BULK_CONCURRENCY", 8)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("VIEW_CACHE_TTL", "2m")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "workforce-identity")
	v.SetDefault("JWT_AUDIENCE", "workforce-console")
	v.SetDefault("POLICY_FILE", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ROSTER_EVENTS_TOPIC", "roster-events")
	v.SetDefault("KAFKA_GROUP_ID", "roster-activity-worker")
	v.SetDefault("LOKI_URL", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	return &cfg, nil
}

// ClientTimeout parses HTTPClientTimeout. Returns 15s if unset or invalid.
func (c *Config) ClientTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPClientTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// CacheTTL parses ViewCacheTTL. Returns 2m if unset or invalid.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.ViewCacheTTL)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if roster events are enabled (non-empty list) and to create the publisher.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
