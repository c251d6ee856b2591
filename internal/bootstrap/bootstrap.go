package bootstrap

import (
	"log/slog"
	"net/http"

	httpadapter "github.com/ragforge/orchestrator/internal/adapters/http"
	"github.com/ragforge/orchestrator/internal/config"
	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/usecase"
	"github.com/ragforge/orchestrator/internal/infrastructure/resilience"
	"github.com/ragforge/orchestrator/internal/observability/logging"
	"github.com/ragforge/orchestrator/internal/observability/metrics"
	"github.com/ragforge/orchestrator/internal/providers"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Handler http.Handler
}

// pipelineMetrics forwards pipeline stage events to the Prometheus collectors.
type pipelineMetrics struct {
	metrics *metrics.HTTPServerMetrics
	service string
}

func (p *pipelineMetrics) StageCompleted(stage string, seconds float64) {
	p.metrics.RecordStageDuration(p.service, stage, seconds)
}

func (p *pipelineMetrics) CondensationSkipped() {
	p.metrics.RecordCondensationSkip(p.service)
}

func (p *pipelineMetrics) GuardrailVetoed() {
	p.metrics.RecordGuardrailVeto(p.service)
}

func (p *pipelineMetrics) GuardInconsistency() {
	p.metrics.RecordGuardInconsistency(p.service)
}

func New(cfg config.Config) *App {
	logger := logging.NewJSONLogger(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	executor := resilience.NewExecutor(cfg.Resilience)
	registry := providers.NewRegistry(executor)
	pipeline := usecase.NewPipeline(registry, cfg.DefaultVectorStore.Setting())

	serverMetrics := metrics.NewHTTPServerMetrics(cfg.ServiceName)
	pipeline.SetListener(&pipelineMetrics{metrics: serverMetrics, service: cfg.ServiceName})

	var defaultProvider domain.Provider
	if store := cfg.DefaultVectorStore.Setting(); store != nil {
		defaultProvider = store.VectorStoreProvider()
	}

	router := httpadapter.NewRouter(pipeline, serverMetrics, httpadapter.RouterOptions{
		Service:              cfg.ServiceName,
		DefaultStoreProvider: defaultProvider,
		RequestTimeout:       cfg.RequestTimeout,
		RateLimitRPS:         cfg.APIRateLimitRPS,
		RateLimitBurst:       cfg.APIRateLimitBurst,
		MaxInFlight:          cfg.APIMaxInFlight,
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Handler: router.Handler(),
	}
}
