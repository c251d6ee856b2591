package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/providerclient"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

const providerName = string(domain.ProviderOllama)

const defaultTimeout = 120 * time.Second

var errEmptyEmbedding = errors.New("empty embedding result")

// Generator is a generation capability bound to one Ollama endpoint and
// model. A fresh instance is built per request from its setting.
type Generator struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

func NewGenerator(setting domain.OllamaLLMSetting, executor *resilience.Executor) *Generator {
	timeout := setting.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Generator{
		baseURL:     strings.TrimRight(setting.BaseURL, "/"),
		model:       setting.Model,
		temperature: setting.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    executor,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  g.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": g.temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return providerclient.Do(ctx, g.httpClient, providerclient.Request{
			Provider:     providerName,
			Operation:    "generate",
			Method:       http.MethodPost,
			URL:          g.baseURL + "/api/generate",
			Payload:      payload,
			NotFoundKind: domain.ErrModelNotFound,
		}, &response)
	}
	if err := g.executor.Execute(ctx, "ollama.generate", call, nil); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

// Embedder is an embedding capability bound to one Ollama endpoint and model.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewEmbedder(setting domain.OllamaEmbeddingSetting, executor *resilience.Executor) *Embedder {
	timeout := setting.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Embedder{
		baseURL:    strings.TrimRight(setting.BaseURL, "/"),
		model:      setting.Model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model": e.model,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	call := func(ctx context.Context) error {
		return providerclient.Do(ctx, e.httpClient, providerclient.Request{
			Provider:     providerName,
			Operation:    "embed",
			Method:       http.MethodPost,
			URL:          e.baseURL + "/api/embed",
			Payload:      payload,
			NotFoundKind: domain.ErrModelNotFound,
		}, &response)
	}
	if err := e.executor.Execute(ctx, "ollama.embed", call, nil); err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 {
		return nil, domain.WrapError(domain.ErrUnknown, "ollama embed", errEmptyEmbedding)
	}
	return response.Embeddings[0], nil
}
