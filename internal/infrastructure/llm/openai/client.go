// Package openai talks to OpenAI-compatible chat and embedding APIs. The
// same client serves openai.com, Azure OpenAI deployments, and self-hosted
// HuggingFace TGI endpoints exposing the compatible surface; only the URL
// shape and the auth header differ.
package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

type endpoint struct {
	provider     string
	chatURL      string
	embedURL     string
	headers      map[string]string
	model        string
	notFoundKind error
}

// Generator is a chat-completions generation capability.
type Generator struct {
	endpoint    endpoint
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

func NewGenerator(setting domain.OpenAILLMSetting, executor *resilience.Executor) *Generator {
	base := setting.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Generator{
		endpoint: endpoint{
			provider:     string(domain.ProviderOpenAI),
			chatURL:      strings.TrimRight(base, "/") + "/chat/completions",
			headers:      bearerHeaders(setting.APIKey),
			model:        setting.Model,
			notFoundKind: domain.ErrModelNotFound,
		},
		temperature: setting.Temperature,
		httpClient:  &http.Client{Timeout: timeoutOrDefault(setting.Timeout)},
		executor:    executor,
	}
}

func NewAzureGenerator(setting domain.AzureOpenAILLMSetting, executor *resilience.Executor) *Generator {
	return &Generator{
		endpoint: endpoint{
			provider: string(domain.ProviderAzureOpenAI),
			chatURL: fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
				strings.TrimRight(setting.Endpoint, "/"), setting.DeploymentName, setting.APIVersion),
			headers:      map[string]string{"api-key": setting.APIKey},
			model:        setting.DeploymentName,
			notFoundKind: domain.ErrDeploymentNotFound,
		},
		temperature: setting.Temperature,
		httpClient:  &http.Client{Timeout: timeoutOrDefault(setting.Timeout)},
		executor:    executor,
	}
}

func NewTGIGenerator(setting domain.HuggingFaceTGILLMSetting, executor *resilience.Executor) *Generator {
	return &Generator{
		endpoint: endpoint{
			provider:     string(domain.ProviderHuggingFaceTGI),
			chatURL:      strings.TrimRight(setting.BaseURL, "/") + "/v1/chat/completions",
			headers:      bearerHeaders(setting.APIKey),
			model:        setting.Model,
			notFoundKind: domain.ErrModelNotFound,
		},
		temperature: setting.Temperature,
		httpClient:  &http.Client{Timeout: timeoutOrDefault(setting.Timeout)},
		executor:    executor,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":       g.endpoint.model,
		"temperature": g.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	call := func(ctx context.Context) error {
		return providerclient.Do(ctx, g.httpClient, providerclient.Request{
			Provider:     g.endpoint.provider,
			Operation:    "chat.completions",
			Method:       http.MethodPost,
			URL:          g.endpoint.chatURL,
			Headers:      g.endpoint.headers,
			Payload:      payload,
			NotFoundKind: g.endpoint.notFoundKind,
		}, &response)
	}
	if err := g.executor.Execute(ctx, g.endpoint.provider+".generate", call, nil); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrUnknown, "chat completion", errNoChoices)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// Embedder is an embeddings capability for the same API family.
type Embedder struct {
	endpoint   endpoint
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewEmbedder(setting domain.OpenAIEmbeddingSetting, executor *resilience.Executor) *Embedder {
	base := setting.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Embedder{
		endpoint: endpoint{
			provider:     string(domain.ProviderOpenAI),
			embedURL:     strings.TrimRight(base, "/") + "/embeddings",
			headers:      bearerHeaders(setting.APIKey),
			model:        setting.Model,
			notFoundKind: domain.ErrModelNotFound,
		},
		httpClient: &http.Client{Timeout: timeoutOrDefault(setting.Timeout)},
		executor:   executor,
	}
}

func NewAzureEmbedder(setting domain.AzureOpenAIEmbeddingSetting, executor *resilience.Executor) *Embedder {
	return &Embedder{
		endpoint: endpoint{
			provider: string(domain.ProviderAzureOpenAI),
			embedURL: fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s",
				strings.TrimRight(setting.Endpoint, "/"), setting.DeploymentName, setting.APIVersion),
			headers:      map[string]string{"api-key": setting.APIKey},
			model:        setting.DeploymentName,
			notFoundKind: domain.ErrDeploymentNotFound,
		},
		httpClient: &http.Client{Timeout: timeoutOrDefault(setting.Timeout)},
		executor:   executor,
	}
}

func NewTEIEmbedder(setting domain.HuggingFaceTEIEmbeddingSetting, executor *resilience.Executor) *Embedder {
	return &Embedder{
		endpoint: endpoint{
			provider:     string(domain.ProviderHuggingFaceTEI),
			embedURL:     strings.TrimRight(setting.BaseURL, "/") + "/v1/embeddings",
			headers:      bearerHeaders(setting.APIKey),
			model:        setting.Model,
			notFoundKind: domain.ErrModelNotFound,
		},
		httpClient: &http.Client{Timeout: timeoutOrDefault(setting.Timeout)},
		executor:   executor,
	}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model": e.endpoint.model,
		"input": text,
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	call := func(ctx context.Context) error {
		return providerclient.Do(ctx, e.httpClient, providerclient.Request{
			Provider:     e.endpoint.provider,
			Operation:    "embeddings",
			Method:       http.MethodPost,
			URL:          e.endpoint.embedURL,
			Headers:      e.endpoint.headers,
			Payload:      payload,
			NotFoundKind: e.endpoint.notFoundKind,
		}, &response)
	}
	if err := e.executor.Execute(ctx, e.endpoint.provider+".embed", call, nil); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 {
		return nil, domain.WrapError(domain.ErrUnknown, "embeddings", errNoEmbedding)
	}
	return response.Data[0].Embedding, nil
}

func bearerHeaders(apiKey string) map[string]string {
	if apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}
