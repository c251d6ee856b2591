// Package providerclient holds the HTTP plumbing shared by all provider
// capability clients: JSON round-trips plus translation of transport and
// status failures into the domain error taxonomy at the call site.
package providerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

// Request describes one outbound provider call.
type Request struct {
	Provider  string
	Operation string
	Method    string
	URL       string
	Headers   map[string]string
	Payload   any

	// NotFoundKind refines a 404 into a provider-specific sub-kind
	// (model/deployment/index). Defaults to the generic resource kind.
	NotFoundKind error
}

// Do executes the request and decodes the JSON response into out. Every
// failure comes back as a *domain.ProviderError wrapping a taxonomy kind,
// never a bare transport error.
func Do(ctx context.Context, client *http.Client, req Request, out any) error {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return providerErr(req, domain.ErrUnknown, 0, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(body))
	if err != nil {
		return providerErr(req, domain.ErrUnknown, 0, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return providerErr(req, domain.ErrConnection, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg := readBodySnippet(resp.Body)
		return providerErr(req, kindForStatus(req, resp.StatusCode, msg), resp.StatusCode, errors.New(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providerErr(req, domain.ErrUnknown, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func providerErr(req Request, kind error, status int, cause error) error {
	return &domain.ProviderError{
		Kind:       kind,
		Provider:   req.Provider,
		Operation:  req.Operation,
		Method:     req.Method,
		URL:        req.URL,
		StatusCode: status,
		Err:        cause,
	}
}

func kindForStatus(req Request, status int, body string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrAuthentication
	case status == http.StatusNotFound:
		if req.NotFoundKind != nil {
			return req.NotFoundKind
		}
		return domain.ErrResourceNotFound
	case status == http.StatusBadRequest || status == http.StatusRequestEntityTooLarge || status == http.StatusUnprocessableEntity:
		if isContextLengthMessage(body) {
			return domain.ErrContextLengthExceeded
		}
		return domain.ErrBadRequest
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return domain.ErrConnection
	default:
		return domain.ErrUnknown
	}
}

func isContextLengthMessage(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "context length") ||
		strings.Contains(lower, "context_length_exceeded") ||
		strings.Contains(lower, "maximum context")
}

func readBodySnippet(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 2048))
	return strings.TrimSpace(string(body))
}
