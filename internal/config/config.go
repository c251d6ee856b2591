// Package config loads service configuration from the environment with an
// optional YAML overlay. Environment variables win over file values so
// deployments can patch a shared config file without editing it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

type Config struct {
	APIPort  string
	LogLevel string

	ServiceName string

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DefaultVectorStore DefaultVectorStore

	Resilience resilience.Config
}

// DefaultVectorStore is the store used when a query does not carry its own
// vector store setting. Provider selects which of the two blocks applies.
type DefaultVectorStore struct {
	Provider string

	OpenSearch domain.OpenSearchSetting
	Qdrant     domain.QdrantSetting
}

// Setting returns the effective default store setting, or nil when no
// default is configured.
func (d DefaultVectorStore) Setting() domain.VectorStoreSetting {
	switch d.Provider {
	case string(domain.ProviderOpenSearch):
		return d.OpenSearch
	case string(domain.ProviderQdrant):
		return d.Qdrant
	default:
		return nil
	}
}

type fileConfig struct {
	APIPort  string `yaml:"api_port"`
	LogLevel string `yaml:"log_level"`

	ServiceName string `yaml:"service_name"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
	MaxInFlight    int     `yaml:"max_in_flight"`

	RequestTimeoutSeconds  int `yaml:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds"`

	VectorStore struct {
		Provider string `yaml:"provider"`

		OpenSearch struct {
			BaseURL  string `yaml:"base_url"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"opensearch"`

		Qdrant struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"qdrant"`
	} `yaml:"vector_store"`

	Resilience struct {
		RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
		RetryInitialBackoffMs int     `yaml:"retry_initial_backoff_ms"`
		RetryMaxBackoffMs     int     `yaml:"retry_max_backoff_ms"`
		RetryMultiplier       float64 `yaml:"retry_multiplier"`
		BreakerEnabled        *bool   `yaml:"breaker_enabled"`
		BreakerMinRequests    uint32  `yaml:"breaker_min_requests"`
		BreakerFailureRatio   float64 `yaml:"breaker_failure_ratio"`
		BreakerOpenTimeoutS   int     `yaml:"breaker_open_timeout_seconds"`
		BreakerHalfOpenCalls  uint32  `yaml:"breaker_half_open_max_calls"`
	} `yaml:"resilience"`
}

// Load reads CONFIG_FILE (if set and present), then applies environment
// overrides on top.
func Load() (Config, error) {
	cfg := Config{
		APIPort:           "8080",
		LogLevel:          "info",
		ServiceName:       "rag-orchestrator",
		APIRateLimitRPS:   20,
		APIRateLimitBurst: 40,
		APIMaxInFlight:    64,
		RequestTimeout:    120 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		Resilience:        resilience.DefaultConfig(),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.APIPort != "" {
		cfg.APIPort = fc.APIPort
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.ServiceName != "" {
		cfg.ServiceName = fc.ServiceName
	}
	if fc.RateLimitRPS > 0 {
		cfg.APIRateLimitRPS = fc.RateLimitRPS
	}
	if fc.RateLimitBurst > 0 {
		cfg.APIRateLimitBurst = fc.RateLimitBurst
	}
	if fc.MaxInFlight > 0 {
		cfg.APIMaxInFlight = fc.MaxInFlight
	}
	if fc.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(fc.RequestTimeoutSeconds) * time.Second
	}
	if fc.ShutdownTimeoutSeconds > 0 {
		cfg.ShutdownTimeout = time.Duration(fc.ShutdownTimeoutSeconds) * time.Second
	}

	cfg.DefaultVectorStore.Provider = fc.VectorStore.Provider
	cfg.DefaultVectorStore.OpenSearch = domain.OpenSearchSetting{
		BaseURL:  fc.VectorStore.OpenSearch.BaseURL,
		Username: fc.VectorStore.OpenSearch.Username,
		Password: fc.VectorStore.OpenSearch.Password,
	}
	cfg.DefaultVectorStore.Qdrant = domain.QdrantSetting{
		BaseURL: fc.VectorStore.Qdrant.BaseURL,
		APIKey:  fc.VectorStore.Qdrant.APIKey,
	}

	if fc.Resilience.RetryMaxAttempts > 0 {
		cfg.Resilience.RetryMaxAttempts = fc.Resilience.RetryMaxAttempts
	}
	if fc.Resilience.RetryInitialBackoffMs > 0 {
		cfg.Resilience.RetryInitialBackoff = time.Duration(fc.Resilience.RetryInitialBackoffMs) * time.Millisecond
	}
	if fc.Resilience.RetryMaxBackoffMs > 0 {
		cfg.Resilience.RetryMaxBackoff = time.Duration(fc.Resilience.RetryMaxBackoffMs) * time.Millisecond
	}
	if fc.Resilience.RetryMultiplier >= 1 {
		cfg.Resilience.RetryMultiplier = fc.Resilience.RetryMultiplier
	}
	if fc.Resilience.BreakerEnabled != nil {
		cfg.Resilience.BreakerEnabled = *fc.Resilience.BreakerEnabled
	}
	if fc.Resilience.BreakerMinRequests > 0 {
		cfg.Resilience.BreakerMinRequests = fc.Resilience.BreakerMinRequests
	}
	if fc.Resilience.BreakerFailureRatio > 0 {
		cfg.Resilience.BreakerFailureRatio = fc.Resilience.BreakerFailureRatio
	}
	if fc.Resilience.BreakerOpenTimeoutS > 0 {
		cfg.Resilience.BreakerOpenTimeout = time.Duration(fc.Resilience.BreakerOpenTimeoutS) * time.Second
	}
	if fc.Resilience.BreakerHalfOpenCalls > 0 {
		cfg.Resilience.BreakerHalfOpenMaxCalls = fc.Resilience.BreakerHalfOpenCalls
	}

	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIPort = mustEnv("API_PORT", cfg.APIPort)
	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ServiceName = mustEnv("SERVICE_NAME", cfg.ServiceName)

	cfg.APIRateLimitRPS = mustEnvFloat("API_RATE_LIMIT_RPS", cfg.APIRateLimitRPS)
	cfg.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", cfg.APIRateLimitBurst)
	cfg.APIMaxInFlight = mustEnvInt("API_MAX_IN_FLIGHT", cfg.APIMaxInFlight)

	cfg.RequestTimeout = mustEnvSeconds("REQUEST_TIMEOUT_SECONDS", cfg.RequestTimeout)
	cfg.ShutdownTimeout = mustEnvSeconds("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout)

	cfg.DefaultVectorStore.Provider = mustEnv("DEFAULT_VECTOR_STORE", cfg.DefaultVectorStore.Provider)
	cfg.DefaultVectorStore.OpenSearch.BaseURL = mustEnv("OPENSEARCH_URL", cfg.DefaultVectorStore.OpenSearch.BaseURL)
	cfg.DefaultVectorStore.OpenSearch.Username = mustEnv("OPENSEARCH_USERNAME", cfg.DefaultVectorStore.OpenSearch.Username)
	cfg.DefaultVectorStore.OpenSearch.Password = mustEnv("OPENSEARCH_PASSWORD", cfg.DefaultVectorStore.OpenSearch.Password)
	cfg.DefaultVectorStore.Qdrant.BaseURL = mustEnv("QDRANT_URL", cfg.DefaultVectorStore.Qdrant.BaseURL)
	cfg.DefaultVectorStore.Qdrant.APIKey = mustEnv("QDRANT_API_KEY", cfg.DefaultVectorStore.Qdrant.APIKey)
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
