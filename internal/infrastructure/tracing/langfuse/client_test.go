package langfuse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
)

func TestTraceLifecycleSubmitsBatch(t *testing.T) {
	var batch struct {
		Batch []struct {
			Type string         `json:"type"`
			Body map[string]any `json:"body"`
		} `json:"batch"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/public/ingestion" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("expected basic auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		w.WriteHeader(http.StatusMultiStatus)
	}))
	defer server.Close()

	tracer := NewTracer(domain.LangfuseSetting{
		Host:      server.URL,
		PublicKey: "pk",
		SecretKey: "sk",
		UserID:    "u1",
	})

	ctx := context.Background()
	if err := tracer.StartTrace(ctx, "rag-query", "how do I start?", []string{"guitar"}); err != nil {
		t.Fatalf("StartTrace: %v", err)
	}
	tracer.RecordSpan(ctx, ports.SpanCondense, "how do I start?", "how do I start playing guitar?", nil)
	tracer.RecordSpan(ctx, ports.SpanGenerate, "how do I start playing guitar?", "", errors.New("model unavailable"))

	info := tracer.EndTrace(ctx, "final answer")
	if info.TraceID == "" {
		t.Fatal("expected a trace id")
	}
	if info.TraceName != "rag-query" {
		t.Fatalf("unexpected trace name %q", info.TraceName)
	}
	if info.TraceURL != server.URL+"/trace/"+info.TraceID {
		t.Fatalf("unexpected trace url %q", info.TraceURL)
	}

	if len(batch.Batch) != 3 {
		t.Fatalf("expected trace-create plus 2 spans, got %d events", len(batch.Batch))
	}
	if batch.Batch[0].Type != "trace-create" {
		t.Fatalf("expected trace-create first, got %q", batch.Batch[0].Type)
	}
	if batch.Batch[0].Body["userId"] != "u1" {
		t.Fatalf("expected userId forwarded, got %v", batch.Batch[0].Body["userId"])
	}
	if batch.Batch[2].Body["level"] != "ERROR" {
		t.Fatalf("expected failed span marked ERROR, got %v", batch.Batch[2].Body["level"])
	}
}

func TestEndTraceSurvivesSubmitFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tracer := NewTracer(domain.LangfuseSetting{Host: server.URL, PublicKey: "pk", SecretKey: "sk"})
	ctx := context.Background()
	if err := tracer.StartTrace(ctx, "rag-query", "q", nil); err != nil {
		t.Fatalf("StartTrace: %v", err)
	}

	info := tracer.EndTrace(ctx, "answer")
	if info.TraceID == "" {
		t.Fatal("trace info must survive a failed submission")
	}
}
