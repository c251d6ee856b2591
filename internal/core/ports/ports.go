package ports

import (
	"context"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

// LanguageModel generates text from a fully rendered prompt. Generation
// parameters (model id, temperature, timeouts) live on the capability object,
// bound at resolve time from its setting.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbeddingModel maps text to a fixed-size vector for similarity search.
type EmbeddingModel interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the raw nearest-neighbour query surface of one vector
// store, bound to an index and credentials.
type VectorSearcher interface {
	Search(ctx context.Context, index string, vector []float32, params domain.SearchParams) ([]domain.RetrievedDocument, error)
}

// Retriever fetches the top-k documents for a query string. Implementations
// are the base embed-and-search retriever and its compressing decorator.
type Retriever interface {
	Fetch(ctx context.Context, query string) ([]domain.RetrievedDocument, error)
}

// DocumentCompressor re-scores retrieved documents against the query and may
// drop, reorder, and truncate them. Errors propagate: a configured compressor
// is semantically load-bearing, there is no silent fallback.
type DocumentCompressor interface {
	Rerank(ctx context.Context, query string, docs []domain.RetrievedDocument) ([]domain.RetrievedDocument, error)
}

// GuardrailOutcome is the verdict of a post-generation policy classifier.
type GuardrailOutcome struct {
	Toxic   bool
	Reasons []string
}

// GuardrailChecker classifies generated text against a policy model.
type GuardrailChecker interface {
	Check(ctx context.Context, answerText string) (GuardrailOutcome, error)
}

// SpanKind tags a trace span with the pipeline stage that produced it.
type SpanKind string

const (
	SpanCondense  SpanKind = "condense"
	SpanRetrieve  SpanKind = "retrieve"
	SpanGenerate  SpanKind = "generate"
	SpanGuard     SpanKind = "guard"
	SpanGuardrail SpanKind = "guardrail"
)

// Tracer records one pipeline execution to an observability backend. Trace
// submission failures must never fail the request.
type Tracer interface {
	StartTrace(ctx context.Context, name, input string, tags []string) error
	RecordSpan(ctx context.Context, kind SpanKind, input, output string, err error)
	EndTrace(ctx context.Context, output string) domain.ObservabilityInfo
}

// RagPipeline is the inbound contract the transport layer drives.
type RagPipeline interface {
	Execute(ctx context.Context, query domain.RagQuery) (*domain.RagResponse, error)
}
