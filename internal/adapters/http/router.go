// Package httpadapter exposes the RAG pipeline over HTTP. It owns request
// decoding, error mapping, and the traffic-control middleware chain; all
// pipeline semantics live behind the ports.RagPipeline interface.
package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
	"github.com/ragforge/orchestrator/internal/observability/metrics"
)

type Router struct {
	pipeline ports.RagPipeline
	metrics  *metrics.HTTPServerMetrics

	service              string
	defaultStoreProvider domain.Provider
	requestTimeout       time.Duration

	rateLimitRPS   float64
	rateLimitBurst int
	maxInFlight    int
}

type RouterOptions struct {
	Service              string
	DefaultStoreProvider domain.Provider
	RequestTimeout       time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
}

func NewRouter(pipeline ports.RagPipeline, m *metrics.HTTPServerMetrics, opts RouterOptions) *Router {
	return &Router{
		pipeline:             pipeline,
		metrics:              m,
		service:              opts.Service,
		defaultStoreProvider: opts.DefaultStoreProvider,
		requestTimeout:       opts.RequestTimeout,
		rateLimitRPS:         opts.RateLimitRPS,
		rateLimitBurst:       opts.RateLimitBurst,
		maxInFlight:          opts.MaxInFlight,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/rag/query", rt.queryRAG)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, 50*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) queryRAG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{Error: errorBody{
			Code:    codeBadRequest,
			Message: "method not allowed",
		}})
		return
	}

	var req ragQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rt.writeError(w, badRequest("invalid json body", err))
		return
	}

	query, err := req.toDomainQuery(rt.defaultStoreProvider)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	ctx := r.Context()
	if rt.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.requestTimeout)
		defer cancel()
	}

	start := time.Now()
	response, err := rt.pipeline.Execute(ctx, query)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGExecution(
			rt.service,
			answerStatus(query, response),
			len(response.Answer.Footnotes),
			time.Since(start),
		)
	}

	writeJSON(w, http.StatusOK, response)
}

// answerStatus recovers the answered/declined distinction from the response
// text. A declined answer is exactly the configured no-answer sentence.
func answerStatus(query domain.RagQuery, response *domain.RagResponse) string {
	sentence, ok := query.QuestionAnsweringPrompt.NoAnswerSentence()
	if ok && response.Answer.Text == sentence {
		return string(domain.StatusDeclined)
	}
	return string(domain.StatusAnswered)
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	status, envelope := errorResponse(err)
	if rt.metrics != nil {
		rt.metrics.RecordRAGFailure(rt.service, envelope.Error.Code)
	}
	writeJSON(w, status, envelope)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
