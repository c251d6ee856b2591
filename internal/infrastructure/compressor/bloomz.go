// Package compressor calls an external scoring endpoint to rerank retrieved
// documents. The configured label's score becomes the document's retriever
// score; documents below the minimum are dropped and the survivors are
// truncated to the configured maximum.
package compressor

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/providerclient"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

const (
	defaultTimeout = 60 * time.Second
	defaultLabel   = "entailment"
)

type Reranker struct {
	endpoint     string
	label        string
	minScore     float64
	maxDocuments int
	httpClient   *http.Client
	executor     *resilience.Executor
}

func NewReranker(setting domain.BloomzRerankSetting, executor *resilience.Executor) *Reranker {
	timeout := setting.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	label := setting.Label
	if label == "" {
		label = defaultLabel
	}
	return &Reranker{
		endpoint:     strings.TrimRight(setting.Endpoint, "/"),
		label:        label,
		minScore:     setting.MinScore,
		maxDocuments: setting.MaxDocuments,
		httpClient:   &http.Client{Timeout: timeout},
		executor:     executor,
	}
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

func (r *Reranker) Rerank(
	ctx context.Context,
	query string,
	docs []domain.RetrievedDocument,
) ([]domain.RetrievedDocument, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	contexts := make([]string, 0, len(docs))
	for _, doc := range docs {
		contexts = append(contexts, doc.PageContent)
	}

	var response struct {
		Response [][]labelScore `json:"response"`
	}
	call := func(ctx context.Context) error {
		return providerclient.Do(ctx, r.httpClient, providerclient.Request{
			Provider:  string(domain.ProviderBloomzRerank),
			Operation: "score",
			Method:    http.MethodPost,
			URL:       r.endpoint + "/score",
			Payload: map[string]any{
				"query":    query,
				"contexts": contexts,
			},
		}, &response)
	}
	if err := r.executor.Execute(ctx, "compressor.score", call, nil); err != nil {
		return nil, domain.WrapError(domain.ErrCompressor, "rerank", err)
	}

	if len(response.Response) != len(docs) {
		return nil, domain.WrapError(domain.ErrCompressor, "rerank",
			fmt.Errorf("scored %d documents, sent %d", len(response.Response), len(docs)))
	}

	scored := make([]domain.RetrievedDocument, 0, len(docs))
	for i, labels := range response.Response {
		score, err := r.scoreForLabel(labels)
		if err != nil {
			return nil, err
		}
		if score < r.minScore {
			continue
		}
		scored = append(scored, docs[i].WithScore(score))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].RetrieverScore > *scored[j].RetrieverScore
	})

	if r.maxDocuments > 0 && len(scored) > r.maxDocuments {
		scored = scored[:r.maxDocuments]
	}
	return scored, nil
}

func (r *Reranker) scoreForLabel(labels []labelScore) (float64, error) {
	seen := make([]string, 0, len(labels))
	for _, ls := range labels {
		if ls.Label == r.label {
			return ls.Score, nil
		}
		seen = append(seen, ls.Label)
	}
	return 0, domain.WrapError(domain.ErrCompressor, "rerank",
		fmt.Errorf("label %q not in scoring response (got: %s)", r.label, strings.Join(seen, ", ")))
}
