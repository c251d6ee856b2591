package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

type embedderFake struct {
	calls int
	err   error
}

func (f *embedderFake) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type searcherFake struct {
	index  string
	params domain.SearchParams
	docs   []domain.RetrievedDocument
	err    error
}

func (f *searcherFake) Search(_ context.Context, index string, _ []float32, params domain.SearchParams) ([]domain.RetrievedDocument, error) {
	f.index = index
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type compressorFake struct {
	calls int
	docs  []domain.RetrievedDocument
	err   error
}

func (f *compressorFake) Rerank(_ context.Context, _ string, _ []domain.RetrievedDocument) ([]domain.RetrievedDocument, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func TestBaseRetrieverFetch(t *testing.T) {
	embedder := &embedderFake{}
	searcher := &searcherFake{docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content")}}
	retriever := NewBaseRetriever(embedder, searcher, "knowledge", domain.QdrantParams{K: 4})

	docs, err := retriever.Fetch(context.Background(), "query")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if searcher.index != "knowledge" {
		t.Fatalf("expected index forwarded, got %s", searcher.index)
	}
	if searcher.params.ResultCount() != 4 {
		t.Fatalf("expected k=4 forwarded, got %d", searcher.params.ResultCount())
	}
}

func TestNewRetrieverWithoutCompressorReturnsBase(t *testing.T) {
	base := NewBaseRetriever(&embedderFake{}, &searcherFake{}, "idx", domain.QdrantParams{K: 1})
	if NewRetriever(base, nil) != base {
		t.Fatalf("expected base retriever unwrapped when no compressor configured")
	}
}

func TestCompressingRetrieverDelegatesToCompressor(t *testing.T) {
	scored := docFixture("d1", "Doc", "content").WithScore(0.9)
	compressor := &compressorFake{docs: []domain.RetrievedDocument{scored}}
	base := NewBaseRetriever(&embedderFake{}, &searcherFake{
		docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content"), docFixture("d2", "Other", "more")},
	}, "idx", domain.QdrantParams{K: 2})

	docs, err := NewRetriever(base, compressor).Fetch(context.Background(), "query")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if compressor.calls != 1 {
		t.Fatalf("expected compressor invoked once, got %d", compressor.calls)
	}
	if len(docs) != 1 || docs[0].RetrieverScore == nil {
		t.Fatalf("expected compressor output returned")
	}
}

func TestCompressingRetrieverErrorPropagates(t *testing.T) {
	compressor := &compressorFake{err: domain.WrapError(domain.ErrCompressor, "rerank", errors.New("unknown label"))}
	base := NewBaseRetriever(&embedderFake{}, &searcherFake{
		docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content")},
	}, "idx", domain.QdrantParams{K: 1})

	_, err := NewRetriever(base, compressor).Fetch(context.Background(), "query")
	if err == nil {
		t.Fatalf("expected compressor error to propagate, not fall back to uncompressed results")
	}
	if !domain.IsKind(err, domain.ErrCompressor) {
		t.Fatalf("expected compressor error kind, got %v", err)
	}
}
