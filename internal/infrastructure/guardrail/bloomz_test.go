package guardrail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

func newTestExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 1})
}

func classifierServer(t *testing.T, labels []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/guardrail" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text == "" {
			t.Error("expected answer text in request")
		}
		json.NewEncoder(w).Encode(map[string]any{"response": []any{labels}})
	}))
}

func TestCheckFlagsScoresAboveThreshold(t *testing.T) {
	server := classifierServer(t, []map[string]any{
		{"label": "toxicity", "score": 0.92},
		{"label": "obscenity", "score": 0.12},
	})
	defer server.Close()

	checker := NewChecker(domain.BloomzGuardrailSetting{
		Endpoint: server.URL,
		MaxScore: 0.5,
	}, newTestExecutor())

	outcome, err := checker.Check(context.Background(), "some answer")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !outcome.Toxic {
		t.Fatal("expected the answer to be flagged")
	}
	if len(outcome.Reasons) != 1 || !strings.Contains(outcome.Reasons[0], "toxicity") {
		t.Fatalf("expected a toxicity reason, got %+v", outcome.Reasons)
	}
}

func TestCheckPassesScoresUnderThreshold(t *testing.T) {
	server := classifierServer(t, []map[string]any{
		{"label": "toxicity", "score": 0.2},
	})
	defer server.Close()

	checker := NewChecker(domain.BloomzGuardrailSetting{
		Endpoint: server.URL,
		MaxScore: 0.5,
	}, newTestExecutor())

	outcome, err := checker.Check(context.Background(), "some answer")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if outcome.Toxic {
		t.Fatalf("expected a clean outcome, got reasons %+v", outcome.Reasons)
	}
}

func TestCheckPropagatesUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	checker := NewChecker(domain.BloomzGuardrailSetting{Endpoint: server.URL, MaxScore: 0.5}, newTestExecutor())

	_, err := checker.Check(context.Background(), "some answer")
	if !domain.IsKind(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}
