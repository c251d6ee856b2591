package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_PORT", "")
	t.Setenv("DEFAULT_VECTOR_STORE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.APIPort)
	}
	if cfg.ServiceName != "rag-orchestrator" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.DefaultVectorStore.Setting() != nil {
		t.Fatal("expected no default vector store without configuration")
	}
}

func TestLoadFileOverlayAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
api_port: "9000"
service_name: rag-gateway
rate_limit_rps: 5
vector_store:
  provider: qdrant
  qdrant:
    base_url: http://qdrant.internal:6333
resilience:
  retry_max_attempts: 5
  breaker_open_timeout_seconds: 60
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "9100")
	t.Setenv("QDRANT_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != "9100" {
		t.Fatalf("environment should win over file, got port %q", cfg.APIPort)
	}
	if cfg.ServiceName != "rag-gateway" {
		t.Fatalf("expected file service name, got %q", cfg.ServiceName)
	}
	if cfg.APIRateLimitRPS != 5 {
		t.Fatalf("expected file rate limit 5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.Resilience.RetryMaxAttempts != 5 {
		t.Fatalf("expected file retry attempts 5, got %d", cfg.Resilience.RetryMaxAttempts)
	}
	if cfg.Resilience.BreakerOpenTimeout != 60*time.Second {
		t.Fatalf("expected file breaker timeout 60s, got %v", cfg.Resilience.BreakerOpenTimeout)
	}

	store := cfg.DefaultVectorStore.Setting()
	qdrant, ok := store.(domain.QdrantSetting)
	if !ok {
		t.Fatalf("expected qdrant default store, got %T", store)
	}
	if qdrant.BaseURL != "http://qdrant.internal:6333" {
		t.Fatalf("unexpected qdrant base url %q", qdrant.BaseURL)
	}
	if qdrant.APIKey != "secret" {
		t.Fatalf("environment api key should overlay file, got %q", qdrant.APIKey)
	}
}

func TestLoadBadFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error on malformed config file")
	}
}
