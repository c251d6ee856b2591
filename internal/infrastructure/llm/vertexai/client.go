// Package vertexai is a generation client for Google Vertex AI publisher
// models via the generateContent REST surface. Credentials arrive as an
// already-resolved access token; token refresh is the caller's concern.
package vertexai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/providerclient"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

const defaultTimeout = 120 * time.Second

type Generator struct {
	url         string
	headers     map[string]string
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

func NewGenerator(setting domain.VertexAILLMSetting, executor *resilience.Executor) *Generator {
	timeout := setting.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{
		url: fmt.Sprintf("%s/v1/publishers/google/models/%s:generateContent",
			strings.TrimRight(setting.Endpoint, "/"), setting.Model),
		headers:     map[string]string{"Authorization": "Bearer " + setting.AccessToken},
		temperature: setting.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    executor,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
		"generationConfig": map[string]any{
			"temperature": g.temperature,
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	call := func(ctx context.Context) error {
		return providerclient.Do(ctx, g.httpClient, providerclient.Request{
			Provider:     string(domain.ProviderVertexAI),
			Operation:    "generateContent",
			Method:       http.MethodPost,
			URL:          g.url,
			Headers:      g.headers,
			Payload:      payload,
			NotFoundKind: domain.ErrModelNotFound,
		}, &response)
	}
	if err := g.executor.Execute(ctx, "vertexai.generate", call, nil); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
		break
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", domain.WrapError(domain.ErrUnknown, "vertexai generate", fmt.Errorf("response contained no candidates"))
	}
	return text, nil
}
