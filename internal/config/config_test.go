package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

// setBaseEnv clears the environment and sets the variables Load requires.
func setBaseEnv() {
	os.Clearenv()
	os.Setenv("IDENTITY_API_URL", "http://identity.local")
	os.Setenv("RESOURCE_API_URL", "http://resources.local")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.EnrichConcurrency != 8 {
		t.Errorf("EnrichConcurrency = %d, want 8", cfg.EnrichConcurrency)
	}
	if cfg.BulkConcurrency != 8 {
		t.Errorf("BulkConcurrency = %d, want 8", cfg.BulkConcurrency)
	}
	if cfg.JWTIssuer != "workforce-identity" {
		t.Errorf("JWTIssuer = %q, want workforce-identity", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "workforce-console" {
		t.Errorf("JWTAudience = %q, want workforce-console", cfg.JWTAudience)
	}
	if cfg.RosterEventsTopic != "roster-events" {
		t.Errorf("RosterEventsTopic = %q, want roster-events", cfg.RosterEventsTopic)
	}
	if cfg.KafkaGroupID != "roster-activity-worker" {
		t.Errorf("KafkaGroupID = %q, want roster-activity-worker", cfg.KafkaGroupID)
	}
	if cfg.ClientTimeout() != 15*time.Second {
		t.Errorf("ClientTimeout = %v, want 15s", cfg.ClientTimeout())
	}
	if cfg.CacheTTL() != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.CacheTTL())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	setBaseEnv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("ENRICH_CONCURRENCY", "4")
	os.Setenv("BULK_CONCURRENCY", "2")
	os.Setenv("REDIS_ADDR", "localhost:6379")
	os.Setenv("VIEW_CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.EnrichConcurrency != 4 {
		t.Errorf("EnrichConcurrency = %d, want 4", cfg.EnrichConcurrency)
	}
	if cfg.BulkConcurrency != 2 {
		t.Errorf("BulkConcurrency = %d, want 2", cfg.BulkConcurrency)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q, want localhost:6379", cfg.RedisAddr)
	}
	if cfg.CacheTTL() != 30*time.Second {
		t.Errorf("CacheTTL = %v, want 30s", cfg.CacheTTL())
	}
}

func TestLoad_RemoteURLsRequired(t *testing.T) {
	os.Clearenv()
	os.Setenv("RESOURCE_API_URL", "http://resources.local")
	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without IDENTITY_API_URL")
	}

	os.Clearenv()
	os.Setenv("IDENTITY_API_URL", "http://identity.local")
	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without RESOURCE_API_URL")
	}
}

func TestLoad_ConcurrencyRange(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
		err   bool
	}{
		{"enrich min", "ENRICH_CONCURRENCY", "1", false},
		{"enrich max", "ENRICH_CONCURRENCY", "64", false},
		{"enrich zero", "ENRICH_CONCURRENCY", "0", true},
		{"enrich too high", "ENRICH_CONCURRENCY", "65", true},
		{"bulk zero", "BULK_CONCURRENCY", "0", true},
		{"bulk valid", "BULK_CONCURRENCY", "16", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv()
			os.Setenv(tc.key, tc.value)

			_, err := Load()
			if tc.err && err == nil {
				t.Fatal("Load should return error")
			}
			if !tc.err && err != nil {
				t.Fatalf("Load: %v", err)
			}
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setBaseEnv()
	os.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should reject unknown LOG_LEVEL")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}
}

func TestClientTimeout_InvalidDuration(t *testing.T) {
	cfg := &Config{HTTPClientTimeout: "soon"}
	if got := cfg.ClientTimeout(); got != 15*time.Second {
		t.Errorf("ClientTimeout = %v, want 15s (default)", got)
	}
	cfg.HTTPClientTimeout = "-1s"
	if got := cfg.ClientTimeout(); got != 15*time.Second {
		t.Errorf("ClientTimeout = %v, want 15s (default)", got)
	}
}

func TestCacheTTL_InvalidDuration(t *testing.T) {
	cfg := &Config{ViewCacheTTL: "0"}
	if got := cfg.CacheTTL(); got != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m (default)", got)
	}
}

func TestKafkaBrokersList(t *testing.T) {
	var nilCfg *Config
	if got := nilCfg.KafkaBrokersList(); got != nil {
		t.Errorf("nil config KafkaBrokersList = %v, want nil", got)
	}
	cfg := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	want := []string{"a:9092", "b:9092"}
	if got := cfg.KafkaBrokersList(); !reflect.DeepEqual(got, want) {
		t.Errorf("KafkaBrokersList = %v, want %v", got, want)
	}
}

func TestLoadWorker_NeedsKafkaAndLoki(t *testing.T) {
	os.Clearenv()
	if _, err := LoadWorker(); err == nil {
		t.Fatal("LoadWorker without KAFKA_BROKERS should fail")
	}
	os.Setenv("KAFKA_BROKERS", "localhost:9092")
	if _, err := LoadWorker(); err == nil {
		t.Fatal("LoadWorker without LOKI_URL should fail")
	}
	os.Setenv("LOKI_URL", "http://loki:3100")
	cfg, err := LoadWorker()
	if err != nil {
		t.Fatalf("LoadWorker: %v", err)
	}
	if cfg.KafkaGroupID != "roster-activity-worker" {
		t.Errorf("KafkaGroupID = %q", cfg.KafkaGroupID)
	}
}

func TestLoadDatabase_NeedsDSN(t *testing.T) {
	os.Clearenv()
	if _, err := LoadDatabase(); err == nil {
		t.Fatal("LoadDatabase without DATABASE_URL should fail")
	}
	os.Setenv("DATABASE_URL", "postgres://localhost/roster")
	if _, err := LoadDatabase(); err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
}
