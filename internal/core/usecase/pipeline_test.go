package usecase

import (
	"context"
	"testing"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
)

type factoryFake struct {
	llm        ports.LanguageModel
	embedder   ports.EmbeddingModel
	searcher   ports.VectorSearcher
	compressor ports.DocumentCompressor
	guardrail  ports.GuardrailChecker
	tracer     ports.Tracer

	llmResolutions int
}

func (f *factoryFake) LanguageModel(domain.LLMSetting) (ports.LanguageModel, error) {
	f.llmResolutions++
	return f.llm, nil
}

func (f *factoryFake) EmbeddingModel(domain.EmbeddingSetting) (ports.EmbeddingModel, error) {
	return f.embedder, nil
}

func (f *factoryFake) VectorSearcher(domain.VectorStoreSetting) (ports.VectorSearcher, error) {
	return f.searcher, nil
}

func (f *factoryFake) Compressor(domain.CompressorSetting) (ports.DocumentCompressor, error) {
	return f.compressor, nil
}

func (f *factoryFake) Guardrail(domain.GuardrailSetting) (ports.GuardrailChecker, error) {
	return f.guardrail, nil
}

func (f *factoryFake) Tracer(domain.ObservabilitySetting) (ports.Tracer, error) {
	return f.tracer, nil
}

type guardrailFake struct {
	outcome ports.GuardrailOutcome
	err     error
}

func (f *guardrailFake) Check(context.Context, string) (ports.GuardrailOutcome, error) {
	return f.outcome, f.err
}

func baseQuery() domain.RagQuery {
	return domain.RagQuery{
		Question:          "How do I start playing guitar?",
		EmbeddingSetting:  domain.OllamaEmbeddingSetting{BaseURL: "http://localhost:11434", Model: "nomic-embed-text"},
		DocumentIndexName: "knowledge",
		DocumentSearchParams: domain.QdrantParams{
			K: 4,
		},
		VectorStoreSetting:          domain.QdrantSetting{BaseURL: "http://localhost:6333"},
		QuestionAnsweringLLMSetting: domain.OllamaLLMSetting{BaseURL: "http://localhost:11434", Model: "llama3.1:8b"},
		QuestionAnsweringPrompt: domain.PromptTemplate{
			Formatter: domain.FormatterSimple,
			Template:  "Context:\n{context}\n\nQuestion: {question}",
			Inputs:    map[string]string{domain.NoAnswerInputKey: noAnswer},
		},
		DocumentsRequired: true,
	}
}

func TestPipelineRoundTrip(t *testing.T) {
	factory := &factoryFake{
		llm:      &llmFake{response: "You start by choosing an acoustic or electric guitar."},
		embedder: &embedderFake{},
		searcher: &searcherFake{docs: []domain.RetrievedDocument{{
			PageContent: "Guitars have six strings.",
			Metadata:    domain.DocumentMetadata{ID: "d1", Title: "Guitar Basics", Source: "http://x/guitar"},
		}}},
	}
	pipeline := NewPipeline(factory, nil)

	resp, err := pipeline.Execute(context.Background(), baseQuery())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Answer.Text != "You start by choosing an acoustic or electric guitar." {
		t.Fatalf("unexpected answer text %q", resp.Answer.Text)
	}
	if len(resp.Answer.Footnotes) != 1 {
		t.Fatalf("expected 1 footnote, got %d", len(resp.Answer.Footnotes))
	}
	fn := resp.Answer.Footnotes[0]
	if fn.Identifier != "d1" || fn.Title != "Guitar Basics" || fn.URL != "http://x/guitar" || fn.Content != "Guitars have six strings." {
		t.Fatalf("unexpected footnote %+v", fn)
	}
	if resp.ObservabilityInfo != nil {
		t.Fatalf("expected no observability info without a tracing setting")
	}
	if resp.Debug != nil {
		t.Fatalf("expected no debug payload unless requested")
	}
}

func TestPipelineGuardRejectionSurfaces(t *testing.T) {
	factory := &factoryFake{
		llm:      &llmFake{response: "a claim with no grounding"},
		embedder: &embedderFake{},
		searcher: &searcherFake{},
	}
	pipeline := NewPipeline(factory, nil)

	_, err := pipeline.Execute(context.Background(), baseQuery())
	if err == nil {
		t.Fatalf("expected guard rejection")
	}
	if !domain.IsKind(err, domain.ErrGuardCheckFailed) {
		t.Fatalf("expected guard check failure, got %v", err)
	}
}

func TestPipelineGuardrailVeto(t *testing.T) {
	query := baseQuery()
	query.GuardrailSetting = domain.BloomzGuardrailSetting{Endpoint: "http://guardrail", MaxScore: 0.5}

	factory := &factoryFake{
		llm:      &llmFake{response: "an answer"},
		embedder: &embedderFake{},
		searcher: &searcherFake{docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content")}},
		guardrail: &guardrailFake{outcome: ports.GuardrailOutcome{
			Toxic:   true,
			Reasons: []string{"insult score 0.91 above threshold 0.50"},
		}},
	}
	pipeline := NewPipeline(factory, nil)

	_, err := pipeline.Execute(context.Background(), query)
	if err == nil {
		t.Fatalf("expected guardrail veto")
	}
	if !domain.IsKind(err, domain.ErrGuardCheckFailed) {
		t.Fatalf("expected guard check failure kind, got %v", err)
	}
}

type listenerFake struct {
	stages             []string
	condensationSkips  int
	guardrailVetoes    int
	guardInconsistency int
}

func (l *listenerFake) StageCompleted(stage string, _ float64) {
	l.stages = append(l.stages, stage)
}

func (l *listenerFake) CondensationSkipped() { l.condensationSkips++ }
func (l *listenerFake) GuardrailVetoed()     { l.guardrailVetoes++ }
func (l *listenerFake) GuardInconsistency()  { l.guardInconsistency++ }

func TestPipelineNotifiesListener(t *testing.T) {
	factory := &factoryFake{
		llm:      &llmFake{response: "an answer"},
		embedder: &embedderFake{},
		searcher: &searcherFake{docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content")}},
	}
	pipeline := NewPipeline(factory, nil)
	listener := &listenerFake{}
	pipeline.SetListener(listener)

	if _, err := pipeline.Execute(context.Background(), baseQuery()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := []string{"condense", "retrieve", "generate"}
	if len(listener.stages) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, listener.stages)
	}
	for i, stage := range want {
		if listener.stages[i] != stage {
			t.Fatalf("expected stages %v, got %v", want, listener.stages)
		}
	}
	if listener.condensationSkips != 1 {
		t.Fatalf("expected one condensation skip without history, got %d", listener.condensationSkips)
	}
	if listener.guardrailVetoes != 0 || listener.guardInconsistency != 0 {
		t.Fatalf("unexpected guard events: %+v", listener)
	}
}

func TestPipelineListenerGuardEvents(t *testing.T) {
	query := baseQuery()
	query.GuardrailSetting = domain.BloomzGuardrailSetting{Endpoint: "http://guardrail", MaxScore: 0.5}

	factory := &factoryFake{
		llm:       &llmFake{response: "an answer"},
		embedder:  &embedderFake{},
		searcher:  &searcherFake{docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content")}},
		guardrail: &guardrailFake{outcome: ports.GuardrailOutcome{Toxic: true}},
	}
	pipeline := NewPipeline(factory, nil)
	listener := &listenerFake{}
	pipeline.SetListener(listener)

	if _, err := pipeline.Execute(context.Background(), query); err == nil {
		t.Fatalf("expected guardrail veto")
	}
	if listener.guardrailVetoes != 1 {
		t.Fatalf("expected one guardrail veto, got %d", listener.guardrailVetoes)
	}

	factory.llm = &llmFake{response: noAnswer}
	factory.guardrail = &guardrailFake{}
	listener = &listenerFake{}
	pipeline.SetListener(listener)

	if _, err := pipeline.Execute(context.Background(), query); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if listener.guardInconsistency != 1 {
		t.Fatalf("expected one guard inconsistency, got %d", listener.guardInconsistency)
	}
}

func TestPipelineDefaultVectorStoreFallback(t *testing.T) {
	query := baseQuery()
	query.VectorStoreSetting = nil

	factory := &factoryFake{
		llm:      &llmFake{response: "an answer"},
		embedder: &embedderFake{},
		searcher: &searcherFake{docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content")}},
	}
	pipeline := NewPipeline(factory, domain.QdrantSetting{BaseURL: "http://default:6333"})

	if _, err := pipeline.Execute(context.Background(), query); err != nil {
		t.Fatalf("Execute() with default store error = %v", err)
	}

	pipeline = NewPipeline(factory, nil)
	_, err := pipeline.Execute(context.Background(), query)
	if err == nil {
		t.Fatalf("expected configuration error without any vector store")
	}
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPipelineDebugPayload(t *testing.T) {
	query := baseQuery()
	query.Debug = true
	query.Dialog = &domain.Dialog{History: domain.DialogHistory{
		{Role: domain.RoleHuman, Text: "Tell me about guitars."},
		{Role: domain.RoleAI, Text: "Gladly."},
	}}

	factory := &factoryFake{
		llm:      &llmFake{response: "an answer"},
		embedder: &embedderFake{},
		searcher: &searcherFake{docs: []domain.RetrievedDocument{docFixture("d1", "Doc", "content")}},
	}
	pipeline := NewPipeline(factory, nil)

	resp, err := pipeline.Execute(context.Background(), query)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Debug == nil {
		t.Fatalf("expected debug payload")
	}
	if resp.Debug.CondensedQuestion != "an answer" {
		t.Fatalf("expected condensed question from the model, got %q", resp.Debug.CondensedQuestion)
	}
	if resp.Debug.AnswerPrompt == "" || len(resp.Debug.RetrievedDocuments) != 1 {
		t.Fatalf("incomplete debug payload: %+v", resp.Debug)
	}
}
