// Package providers resolves tagged provider settings into capability
// objects. Resolution is pure dispatch: no network I/O happens here, and an
// unknown variant is a configuration error, never a generic failure.
package providers

import (
	"fmt"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
	"github.com/ragforge/orchestrator/internal/infrastructure/compressor"
	"github.com/ragforge/orchestrator/internal/infrastructure/guardrail"
	"github.com/ragforge/orchestrator/internal/infrastructure/llm/ollama"
	"github.com/ragforge/orchestrator/internal/infrastructure/llm/openai"
	"github.com/ragforge/orchestrator/internal/infrastructure/llm/vertexai"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
	"github.com/ragforge/orchestrator/internal/infrastructure/tracing/langfuse"
	"github.com/ragforge/orchestrator/internal/infrastructure/vector/opensearch"
	"github.com/ragforge/orchestrator/internal/infrastructure/vector/qdrant"
)

type Registry struct {
	executor     *resilience.Executor
	rerankerPool *compressor.Pool
}

func NewRegistry(executor *resilience.Executor) *Registry {
	return &Registry{
		executor:     executor,
		rerankerPool: compressor.NewPool(executor),
	}
}

func (r *Registry) LanguageModel(setting domain.LLMSetting) (ports.LanguageModel, error) {
	switch s := setting.(type) {
	case domain.OpenAILLMSetting:
		return openai.NewGenerator(s, r.executor), nil
	case domain.AzureOpenAILLMSetting:
		return openai.NewAzureGenerator(s, r.executor), nil
	case domain.OllamaLLMSetting:
		return ollama.NewGenerator(s, r.executor), nil
	case domain.HuggingFaceTGILLMSetting:
		return openai.NewTGIGenerator(s, r.executor), nil
	case domain.VertexAILLMSetting:
		return vertexai.NewGenerator(s, r.executor), nil
	default:
		return nil, unknownSetting("language model", setting)
	}
}

func (r *Registry) EmbeddingModel(setting domain.EmbeddingSetting) (ports.EmbeddingModel, error) {
	switch s := setting.(type) {
	case domain.OpenAIEmbeddingSetting:
		return openai.NewEmbedder(s, r.executor), nil
	case domain.AzureOpenAIEmbeddingSetting:
		return openai.NewAzureEmbedder(s, r.executor), nil
	case domain.OllamaEmbeddingSetting:
		return ollama.NewEmbedder(s, r.executor), nil
	case domain.HuggingFaceTEIEmbeddingSetting:
		return openai.NewTEIEmbedder(s, r.executor), nil
	default:
		return nil, unknownSetting("embedding model", setting)
	}
}

func (r *Registry) VectorSearcher(setting domain.VectorStoreSetting) (ports.VectorSearcher, error) {
	switch s := setting.(type) {
	case domain.OpenSearchSetting:
		return opensearch.New(s), nil
	case domain.QdrantSetting:
		return qdrant.New(s), nil
	default:
		return nil, unknownSetting("vector store", setting)
	}
}

func (r *Registry) Compressor(setting domain.CompressorSetting) (ports.DocumentCompressor, error) {
	switch s := setting.(type) {
	case domain.BloomzRerankSetting:
		return r.rerankerPool.Get(s), nil
	default:
		return nil, unknownSetting("document compressor", setting)
	}
}

func (r *Registry) Guardrail(setting domain.GuardrailSetting) (ports.GuardrailChecker, error) {
	switch s := setting.(type) {
	case domain.BloomzGuardrailSetting:
		return guardrail.NewChecker(s, r.executor), nil
	default:
		return nil, unknownSetting("guardrail", setting)
	}
}

func (r *Registry) Tracer(setting domain.ObservabilitySetting) (ports.Tracer, error) {
	switch s := setting.(type) {
	case domain.LangfuseSetting:
		return langfuse.NewTracer(s), nil
	default:
		return nil, unknownSetting("tracer", setting)
	}
}

func unknownSetting(capability string, setting any) error {
	return domain.WrapError(domain.ErrUnknownProviderSetting, "resolve "+capability,
		fmt.Errorf("unsupported setting type %T", setting))
}
