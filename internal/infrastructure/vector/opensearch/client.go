// Package opensearch queries OpenSearch k-NN indices over the REST search
// API with basic-auth credentials.
package opensearch

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/providerclient"
)

const defaultTimeout = 60 * time.Second

type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
}

func New(setting domain.OpenSearchSetting) *Client {
	timeout := setting.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var headers map[string]string
	if setting.Username != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(setting.Username + ":" + setting.Password))
		headers = map[string]string{"Authorization": "Basic " + credentials}
	}
	return &Client{
		baseURL:    strings.TrimRight(setting.BaseURL, "/"),
		headers:    headers,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Search(
	ctx context.Context,
	index string,
	vector []float32,
	params domain.SearchParams,
) ([]domain.RetrievedDocument, error) {
	knn := map[string]any{
		"embedding": map[string]any{
			"vector": vector,
			"k":      params.ResultCount(),
		},
	}
	query := map[string]any{"knn": knn}
	if filter := params.Filter(); len(filter) > 0 {
		query = map[string]any{
			"bool": map[string]any{
				"must":   []map[string]any{{"knn": knn}},
				"filter": filter,
			},
		}
	}

	payload := map[string]any{
		"size":    params.ResultCount(),
		"query":   query,
		"_source": map[string]any{"excludes": []string{"embedding"}},
	}

	var searchResp struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	err := providerclient.Do(ctx, c.httpClient, providerclient.Request{
		Provider:     string(domain.ProviderOpenSearch),
		Operation:    "search",
		Method:       http.MethodPost,
		URL:          fmt.Sprintf("%s/%s/_search", c.baseURL, index),
		Headers:      c.headers,
		Payload:      payload,
		NotFoundKind: domain.ErrIndexNotFound,
	}, &searchResp)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedDocument, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		doc := documentFromSource(hit.Source)
		if doc.Metadata.ID == "" {
			doc.Metadata.ID = hit.ID
		}
		out = append(out, doc)
	}
	return out, nil
}

func documentFromSource(source map[string]any) domain.RetrievedDocument {
	content, _ := source["text"].(string)
	doc := domain.RetrievedDocument{
		PageContent: content,
		Metadata:    domain.DocumentMetadata{},
	}

	metadata, _ := source["metadata"].(map[string]any)
	if metadata == nil {
		metadata = source
	}
	for key, value := range metadata {
		text := fmt.Sprintf("%v", value)
		switch key {
		case "id":
			doc.Metadata.ID = text
		case "title":
			doc.Metadata.Title = text
		case "source", "url":
			doc.Metadata.Source = text
		case "text", "embedding":
		default:
			if doc.Metadata.Extra == nil {
				doc.Metadata.Extra = make(map[string]string)
			}
			doc.Metadata.Extra[key] = text
		}
	}
	return doc
}
