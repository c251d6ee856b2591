package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

func newTestExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 1})
}

func TestGenerateReturnsTrimmedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model   string         `json:"model"`
			Prompt  string         `json:"prompt"`
			Stream  bool           `json:"stream"`
			Options map[string]any `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llama3" {
			t.Errorf("expected model llama3, got %q", req.Model)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}
		if req.Options["temperature"] != 0.2 {
			t.Errorf("expected temperature 0.2, got %v", req.Options["temperature"])
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "  the answer \n"})
	}))
	defer server.Close()

	gen := NewGenerator(domain.OllamaLLMSetting{
		BaseURL:     server.URL,
		Model:       "llama3",
		Temperature: 0.2,
	}, newTestExecutor())

	out, err := gen.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "the answer" {
		t.Fatalf("expected trimmed answer, got %q", out)
	}
}

func TestGenerateMapsMissingModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer server.Close()

	gen := NewGenerator(domain.OllamaLLMSetting{BaseURL: server.URL, Model: "nope"}, newTestExecutor())

	_, err := gen.Generate(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrModelNotFound) {
		t.Fatalf("expected model-not-found, got %v", err)
	}
}

func TestEmbedQueryReturnsFirstEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer server.Close()

	embedder := NewEmbedder(domain.OllamaEmbeddingSetting{
		BaseURL: server.URL,
		Model:   "nomic-embed-text",
	}, newTestExecutor())

	vector, err := embedder.EmbedQuery(context.Background(), "text")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 {
		t.Fatalf("unexpected vector %v", vector)
	}
}

func TestEmbedQueryFailsOnEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{}})
	}))
	defer server.Close()

	embedder := NewEmbedder(domain.OllamaEmbeddingSetting{BaseURL: server.URL, Model: "m"}, newTestExecutor())

	if _, err := embedder.EmbedQuery(context.Background(), "text"); err == nil {
		t.Fatal("expected error for empty embedding result")
	}
}
