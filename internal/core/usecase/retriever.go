package usecase

import (
	"context"
	"fmt"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
)

// BaseRetriever embeds the query and runs a nearest-neighbour search against
// one index. Result count and filtering come from the search params; ordering
// is whatever the store returned (tie-break is store-defined).
type BaseRetriever struct {
	embedder ports.EmbeddingModel
	store    ports.VectorSearcher
	index    string
	params   domain.SearchParams
}

func NewBaseRetriever(
	embedder ports.EmbeddingModel,
	store ports.VectorSearcher,
	index string,
	params domain.SearchParams,
) *BaseRetriever {
	return &BaseRetriever{
		embedder: embedder,
		store:    store,
		index:    index,
		params:   params,
	}
}

func (r *BaseRetriever) Fetch(ctx context.Context, query string) ([]domain.RetrievedDocument, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := r.store.Search(ctx, r.index, vector, r.params)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return docs, nil
}

// CompressingRetriever decorates a retriever with a rerank stage. Compressor
// failures propagate unchanged.
type CompressingRetriever struct {
	base       ports.Retriever
	compressor ports.DocumentCompressor
}

func (r *CompressingRetriever) Fetch(ctx context.Context, query string) ([]domain.RetrievedDocument, error) {
	docs, err := r.base.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	reranked, err := r.compressor.Rerank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("rerank documents: %w", err)
	}
	return reranked, nil
}

// NewRetriever wraps the base retriever with compression when a compressor is
// configured.
func NewRetriever(base ports.Retriever, compressor ports.DocumentCompressor) ports.Retriever {
	if compressor == nil {
		return base
	}
	return &CompressingRetriever{base: base, compressor: compressor}
}
