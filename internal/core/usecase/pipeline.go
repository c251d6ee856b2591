package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
)

// CapabilityFactory resolves tagged provider settings into capability
// objects. Resolution is lazy and per-request; no capability is shared
// between requests.
type CapabilityFactory interface {
	LanguageModel(setting domain.LLMSetting) (ports.LanguageModel, error)
	EmbeddingModel(setting domain.EmbeddingSetting) (ports.EmbeddingModel, error)
	VectorSearcher(setting domain.VectorStoreSetting) (ports.VectorSearcher, error)
	Compressor(setting domain.CompressorSetting) (ports.DocumentCompressor, error)
	Guardrail(setting domain.GuardrailSetting) (ports.GuardrailChecker, error)
	Tracer(setting domain.ObservabilitySetting) (ports.Tracer, error)
}

// ExecutionListener observes pipeline executions. Implementations must be
// cheap and must not fail; the pipeline calls them inline.
type ExecutionListener interface {
	StageCompleted(stage string, seconds float64)
	CondensationSkipped()
	GuardrailVetoed()
	GuardInconsistency()
}

// Pipeline assembles and executes one retrieval-and-generation chain per
// request. Stages are causally sequential; the only cross-request state lives
// inside the factory's explicit client pools.
type Pipeline struct {
	factory          CapabilityFactory
	defaultStore     domain.VectorStoreSetting
	defaultTraceName string
	listener         ExecutionListener
}

func NewPipeline(factory CapabilityFactory, defaultStore domain.VectorStoreSetting) *Pipeline {
	return &Pipeline{
		factory:          factory,
		defaultStore:     defaultStore,
		defaultTraceName: "rag-query",
	}
}

// SetListener attaches an execution listener. Must be called before Execute.
func (p *Pipeline) SetListener(listener ExecutionListener) {
	p.listener = listener
}

func (p *Pipeline) stageCompleted(stage string, seconds float64) {
	if p.listener != nil {
		p.listener.StageCompleted(stage, seconds)
	}
}

func (p *Pipeline) Execute(ctx context.Context, query domain.RagQuery) (*domain.RagResponse, error) {
	start := time.Now()
	stageDurations := make(map[string]float64, 4)

	caps, err := p.resolveCapabilities(query)
	if err != nil {
		return nil, err
	}

	retriever := NewRetriever(
		NewBaseRetriever(caps.embedder, caps.searcher, query.DocumentIndexName, query.DocumentSearchParams),
		caps.compressor,
	)

	tracer := caps.tracer
	if tracer != nil {
		traceName := p.defaultTraceName
		if ls, ok := query.ObservabilitySetting.(domain.LangfuseSetting); ok && ls.TraceName != "" {
			traceName = ls.TraceName
		}
		var tags []string
		if query.Dialog != nil {
			tags = query.Dialog.Tags
		}
		if err := tracer.StartTrace(ctx, traceName, query.Question, tags); err != nil {
			slog.Warn("trace_start_failed", "error", err)
			tracer = nil
		}
	}

	stageStart := time.Now()
	condensed, condensationPrompt, err := Condense(ctx, query.History(), query.Question, caps.condenseLLM, query.QuestionCondensingPrompt)
	stageDurations["condense"] = time.Since(stageStart).Seconds()
	p.stageCompleted("condense", stageDurations["condense"])
	if p.listener != nil && query.History().Empty() {
		p.listener.CondensationSkipped()
	}
	if tracer != nil {
		tracer.RecordSpan(ctx, ports.SpanCondense, query.Question, condensed, err)
	}
	if err != nil {
		return nil, err
	}

	stageStart = time.Now()
	docs, err := retriever.Fetch(ctx, condensed)
	stageDurations["retrieve"] = time.Since(stageStart).Seconds()
	p.stageCompleted("retrieve", stageDurations["retrieve"])
	if tracer != nil {
		tracer.RecordSpan(ctx, ports.SpanRetrieve, condensed, fmt.Sprintf("%d documents", len(docs)), err)
	}
	if err != nil {
		return nil, err
	}

	stageStart = time.Now()
	answer, answerPrompt, err := Generate(ctx, docs, condensed, query.QuestionAnsweringPrompt, caps.answerLLM)
	stageDurations["generate"] = time.Since(stageStart).Seconds()
	p.stageCompleted("generate", stageDurations["generate"])
	if tracer != nil {
		output := ""
		if answer != nil {
			output = answer.AnswerText
		}
		tracer.RecordSpan(ctx, ports.SpanGenerate, condensed, output, err)
	}
	if err != nil {
		return nil, err
	}

	citedBeforeGuard := len(answer.UsedDocuments)
	guardErr := CheckGuard(query.QuestionAnsweringPrompt, answer, query.DocumentsRequired)
	if tracer != nil {
		tracer.RecordSpan(ctx, ports.SpanGuard, answer.AnswerText, string(answer.Status), guardErr)
	}
	if guardErr != nil {
		return nil, guardErr
	}
	if p.listener != nil && citedBeforeGuard > 0 && len(answer.UsedDocuments) == 0 {
		p.listener.GuardInconsistency()
	}

	if caps.guardrail != nil {
		outcome, err := caps.guardrail.Check(ctx, answer.AnswerText)
		if tracer != nil {
			tracer.RecordSpan(ctx, ports.SpanGuardrail, answer.AnswerText, fmt.Sprintf("toxic=%t", outcome.Toxic), err)
		}
		if err != nil {
			return nil, err
		}
		if outcome.Toxic {
			reasons := outcome.Reasons
			if len(reasons) == 0 {
				reasons = []string{"guardrail flagged the answer"}
			}
			if p.listener != nil {
				p.listener.GuardrailVetoed()
			}
			return nil, &domain.GuardError{Reasons: reasons}
		}
	}

	response := &domain.RagResponse{
		Answer: domain.TextWithFootnotes{
			Text:      answer.AnswerText,
			Footnotes: BuildFootnotes(answer.UsedDocuments),
		},
	}

	if tracer != nil {
		info := tracer.EndTrace(ctx, answer.AnswerText)
		response.ObservabilityInfo = &info
	}

	if query.Debug {
		response.Debug = &domain.DebugInfo{
			CondensedQuestion:  condensed,
			CondensationPrompt: condensationPrompt,
			AnswerPrompt:       answerPrompt,
			RetrievedDocuments: docs,
			DurationSeconds:    time.Since(start).Seconds(),
			StageDurations:     stageDurations,
		}
	}

	return response, nil
}

type capabilities struct {
	answerLLM   ports.LanguageModel
	condenseLLM ports.LanguageModel
	embedder    ports.EmbeddingModel
	searcher    ports.VectorSearcher
	compressor  ports.DocumentCompressor
	guardrail   ports.GuardrailChecker
	tracer      ports.Tracer
}

func (p *Pipeline) resolveCapabilities(query domain.RagQuery) (*capabilities, error) {
	caps := &capabilities{}

	var err error
	caps.answerLLM, err = p.factory.LanguageModel(query.QuestionAnsweringLLMSetting)
	if err != nil {
		return nil, err
	}

	caps.condenseLLM = caps.answerLLM
	if query.QuestionCondensingLLMSetting != nil {
		caps.condenseLLM, err = p.factory.LanguageModel(query.QuestionCondensingLLMSetting)
		if err != nil {
			return nil, err
		}
	}

	caps.embedder, err = p.factory.EmbeddingModel(query.EmbeddingSetting)
	if err != nil {
		return nil, err
	}

	storeSetting := query.VectorStoreSetting
	if storeSetting == nil {
		storeSetting = p.defaultStore
	}
	if storeSetting == nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "resolve vector store",
			fmt.Errorf("no vector store setting supplied and no environment default configured"))
	}
	caps.searcher, err = p.factory.VectorSearcher(storeSetting)
	if err != nil {
		return nil, err
	}

	if query.CompressorSetting != nil {
		caps.compressor, err = p.factory.Compressor(query.CompressorSetting)
		if err != nil {
			return nil, err
		}
	}

	if query.GuardrailSetting != nil {
		caps.guardrail, err = p.factory.Guardrail(query.GuardrailSetting)
		if err != nil {
			return nil, err
		}
	}

	if query.ObservabilitySetting != nil {
		caps.tracer, err = p.factory.Tracer(query.ObservabilitySetting)
		if err != nil {
			return nil, err
		}
	}

	return caps, nil
}
