// Package langfuse records one pipeline execution as a Langfuse trace with
// one observation per stage, submitted as a single ingestion batch when the
// trace ends. Submission is best-effort: a failed upload logs a warning and
// never fails the request.
package langfuse

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
	"github.com/ragforge/orchestrator/internal/infrastructure/providerclient"
)

const submitTimeout = 10 * time.Second

// Tracer is request-scoped: one instance records exactly one trace.
type Tracer struct {
	host       string
	headers    map[string]string
	setting    domain.LangfuseSetting
	httpClient *http.Client

	traceID   string
	traceName string
	startedAt time.Time
	events    []event
}

type event struct {
	kind      ports.SpanKind
	input     string
	output    string
	errText   string
	startedAt time.Time
	endedAt   time.Time
}

func NewTracer(setting domain.LangfuseSetting) *Tracer {
	credentials := base64.StdEncoding.EncodeToString([]byte(setting.PublicKey + ":" + setting.SecretKey))
	return &Tracer{
		host:       strings.TrimRight(setting.Host, "/"),
		headers:    map[string]string{"Authorization": "Basic " + credentials},
		setting:    setting,
		httpClient: &http.Client{Timeout: submitTimeout},
	}
}

func (t *Tracer) StartTrace(_ context.Context, name, input string, tags []string) error {
	t.traceID = uuid.NewString()
	t.traceName = name
	if t.setting.TraceName != "" {
		t.traceName = t.setting.TraceName
	}
	t.startedAt = time.Now().UTC()
	t.events = append(t.events, event{
		kind:      "trace",
		input:     input,
		startedAt: t.startedAt,
	})
	if len(tags) > 0 {
		t.setting.Tags = append(t.setting.Tags, tags...)
	}
	return nil
}

func (t *Tracer) RecordSpan(_ context.Context, kind ports.SpanKind, input, output string, err error) {
	now := time.Now().UTC()
	ev := event{
		kind:      kind,
		input:     input,
		output:    output,
		startedAt: now,
		endedAt:   now,
	}
	if err != nil {
		ev.errText = err.Error()
	}
	t.events = append(t.events, ev)
}

func (t *Tracer) EndTrace(ctx context.Context, output string) domain.ObservabilityInfo {
	info := domain.ObservabilityInfo{
		TraceID:   t.traceID,
		TraceName: t.traceName,
		TraceURL:  t.host + "/trace/" + t.traceID,
	}

	if err := t.submit(ctx, output); err != nil {
		slog.Warn("trace_submit_failed", "trace_id", t.traceID, "error", err)
	}
	return info
}

func (t *Tracer) submit(ctx context.Context, output string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	batch := make([]map[string]any, 0, len(t.events)+1)

	traceBody := map[string]any{
		"id":        t.traceID,
		"name":      t.traceName,
		"timestamp": t.startedAt.Format(time.RFC3339Nano),
		"output":    output,
	}
	if len(t.events) > 0 {
		traceBody["input"] = t.events[0].input
	}
	if t.setting.UserID != "" {
		traceBody["userId"] = t.setting.UserID
	}
	if t.setting.SessionID != "" {
		traceBody["sessionId"] = t.setting.SessionID
	}
	if len(t.setting.Tags) > 0 {
		traceBody["tags"] = t.setting.Tags
	}
	batch = append(batch, map[string]any{
		"id":        uuid.NewString(),
		"type":      "trace-create",
		"timestamp": now,
		"body":      traceBody,
	})

	for _, ev := range t.events {
		if ev.kind == "trace" {
			continue
		}
		body := map[string]any{
			"id":        uuid.NewString(),
			"traceId":   t.traceID,
			"name":      string(ev.kind),
			"input":     ev.input,
			"output":    ev.output,
			"startTime": ev.startedAt.Format(time.RFC3339Nano),
			"endTime":   ev.endedAt.Format(time.RFC3339Nano),
		}
		if ev.errText != "" {
			body["level"] = "ERROR"
			body["statusMessage"] = ev.errText
		}
		batch = append(batch, map[string]any{
			"id":        uuid.NewString(),
			"type":      "span-create",
			"timestamp": now,
			"body":      body,
		})
	}

	return providerclient.Do(ctx, t.httpClient, providerclient.Request{
		Provider:  string(domain.ProviderLangfuse),
		Operation: "ingestion",
		Method:    http.MethodPost,
		URL:       t.host + "/api/public/ingestion",
		Headers:   t.headers,
		Payload:   map[string]any{"batch": batch},
	}, nil)
}
