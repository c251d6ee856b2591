package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/infrastructure/providerclient"
)

const defaultTimeout = 60 * time.Second

// Client performs nearest-neighbour search over Qdrant collections. It is a
// read-only query surface; indexing belongs to the ingestion tooling.
type Client struct {
	baseURL    string
	headers    map[string]string
	httpClient *http.Client
}

func New(setting domain.QdrantSetting) *Client {
	timeout := setting.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var headers map[string]string
	if setting.APIKey != "" {
		headers = map[string]string{"api-key": setting.APIKey}
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
	payload := map[string]any{
		"vector":       vector,
		"limit":        params.ResultCount(),
		"with_payload": true,
	}
	if filter := params.Filter(); len(filter) > 0 {
		payload["filter"] = filter
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := providerclient.Do(ctx, c.httpClient, providerclient.Request{
		Provider:     string(domain.ProviderQdrant),
		Operation:    "search",
		Method:       http.MethodPost,
		URL:          fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, index),
		Headers:      c.headers,
		Payload:      payload,
		NotFoundKind: domain.ErrIndexNotFound,
	}, &searchResp)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedDocument, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, documentFromPayload(r.Payload))
	}
	return out, nil
}

func documentFromPayload(payload map[string]any) domain.RetrievedDocument {
	doc := domain.RetrievedDocument{
		PageContent: payloadString(payload, "text"),
		Metadata: domain.DocumentMetadata{
			ID:     payloadString(payload, "id"),
			Title:  payloadString(payload, "title"),
			Source: payloadString(payload, "source"),
		},
	}

	for key, value := range payload {
		switch key {
		case "text", "id", "title", "source":
			continue
		}
		if doc.Metadata.Extra == nil {
			doc.Metadata.Extra = make(map[string]string)
		}
		doc.Metadata.Extra[key] = fmt.Sprintf("%v", value)
	}
	return doc
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
