// Package guardrail calls an external policy classifier on generated text
// and flags it when any label's score exceeds the configured maximum.
package guardrail

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
	"github.com/ragforge/orchestrator/internal/infrastructure/providerclient"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
)

const defaultTimeout = 60 * time.Second

type Checker struct {
	endpoint   string
	maxScore   float64
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewChecker(setting domain.BloomzGuardrailSetting, executor *resilience.Executor) *Checker {
	timeout := setting.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Checker{
		endpoint:   strings.TrimRight(setting.Endpoint, "/"),
		maxScore:   setting.MaxScore,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Checker) Check(ctx context.Context, answerText string) (ports.GuardrailOutcome, error) {
	var response struct {
		Response [][]struct {
			Label string  `json:"label"`
			Score float64 `json:"score"`
		} `json:"response"`
	}
	call := func(ctx context.Context) error {
		return providerclient.Do(ctx, c.httpClient, providerclient.Request{
			Provider:  string(domain.ProviderBloomzGuardrail),
			Operation: "classify",
			Method:    http.MethodPost,
			URL:       c.endpoint + "/guardrail",
			Payload:   map[string]any{"text": answerText},
		}, &response)
	}
	if err := c.executor.Execute(ctx, "guardrail.classify", call, nil); err != nil {
		return ports.GuardrailOutcome{}, err
	}

	outcome := ports.GuardrailOutcome{}
	for _, labels := range response.Response {
		for _, ls := range labels {
			if ls.Score > c.maxScore {
				outcome.Toxic = true
				outcome.Reasons = append(outcome.Reasons,
					fmt.Sprintf("%s score %.2f above threshold %.2f", ls.Label, ls.Score, c.maxScore))
			}
		}
	}
	return outcome, nil
}
