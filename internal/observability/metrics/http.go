package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	ragRequestsTotal      *prometheus.CounterVec
	ragFailuresTotal      *prometheus.CounterVec
	ragCitedDocs          *prometheus.HistogramVec
	ragStageDuration      *prometheus.HistogramVec
	ragDuration           *prometheus.HistogramVec
	condensationSkipTotal *prometheus.CounterVec
	guardrailVetoTotal    *prometheus.CounterVec
	guardInconsistencies  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragforge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragforge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ragforge",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total completed RAG executions by answer status.",
		},
		[]string{"service", "status"},
	)
	ragFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "failures_total",
			Help:      "Total failed RAG executions by error code.",
		},
		[]string{"service", "code"},
	)
	ragCitedDocs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "cited_documents",
			Help:      "Distribution of cited source documents per completed execution.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	ragStageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage RAG execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "End-to-end RAG execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	condensationSkipTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "condensation_skips_total",
			Help:      "Total executions that skipped condensation on empty history.",
		},
		[]string{"service"},
	)
	guardrailVetoTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "guardrail_vetoes_total",
			Help:      "Total generated answers rejected by the guardrail.",
		},
		[]string{"service"},
	)
	guardInconsistencies := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragforge",
			Subsystem: "rag",
			Name:      "guard_inconsistencies_total",
			Help:      "Total declined answers that still referenced documents.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		ragRequestsTotal,
		ragFailuresTotal,
		ragCitedDocs,
		ragStageDuration,
		ragDuration,
		condensationSkipTotal,
		guardrailVetoTotal,
		guardInconsistencies,
	)

	return &HTTPServerMetrics{
		registry:              registry,
		requestTotal:          requestTotal,
		requestDuration:       requestDuration,
		requestInFlight:       requestInFlight,
		ragRequestsTotal:      ragRequestsTotal,
		ragFailuresTotal:      ragFailuresTotal,
		ragCitedDocs:          ragCitedDocs,
		ragStageDuration:      ragStageDuration,
		ragDuration:           ragDuration,
		condensationSkipTotal: condensationSkipTotal,
		guardrailVetoTotal:    guardrailVetoTotal,
		guardInconsistencies:  guardInconsistencies,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRAGExecution(service, status string, citedDocs int, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	m.ragRequestsTotal.WithLabelValues(service, status).Inc()
	m.ragCitedDocs.WithLabelValues(service).Observe(float64(citedDocs))
	m.ragDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordRAGFailure(service, code string) {
	if code == "" {
		code = "unknown"
	}
	m.ragFailuresTotal.WithLabelValues(service, code).Inc()
}

func (m *HTTPServerMetrics) RecordStageDuration(service, stage string, seconds float64) {
	m.ragStageDuration.WithLabelValues(service, stage).Observe(seconds)
}

func (m *HTTPServerMetrics) RecordCondensationSkip(service string) {
	m.condensationSkipTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordGuardrailVeto(service string) {
	m.guardrailVetoTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordGuardInconsistency(service string) {
	m.guardInconsistencies.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
