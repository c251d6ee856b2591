package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

func answeringPrompt() domain.PromptTemplate {
	return domain.PromptTemplate{
		Formatter: domain.FormatterSimple,
		Template:  "Context:\n{context}\n\nQuestion: {question}",
	}
}

func docFixture(id, title, content string) domain.RetrievedDocument {
	return domain.RetrievedDocument{
		PageContent: content,
		Metadata:    domain.DocumentMetadata{ID: id, Title: title},
	}
}

func TestGenerateJoinsContextInRetrieverOrder(t *testing.T) {
	llm := &llmFake{response: "an answer"}
	docs := []domain.RetrievedDocument{
		docFixture("d1", "First", "first content"),
		docFixture("d2", "Second", "second content"),
	}

	answer, rendered, err := Generate(context.Background(), docs, "q", answeringPrompt(), llm)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(rendered, "first content\n\nsecond content") {
		t.Fatalf("expected double-newline joined context, got %q", rendered)
	}
	if answer.AnswerText != "an answer" {
		t.Fatalf("unexpected answer text %q", answer.AnswerText)
	}
	if len(answer.UsedDocuments) != 2 {
		t.Fatalf("expected the passed documents back, got %d", len(answer.UsedDocuments))
	}
	if answer.Status != domain.StatusAnswered {
		t.Fatalf("expected answered status, got %s", answer.Status)
	}
}

func TestGenerateEmptyDocumentsStillRenders(t *testing.T) {
	llm := &llmFake{response: "canned non-answer"}

	answer, rendered, err := Generate(context.Background(), nil, "q", answeringPrompt(), llm)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.HasPrefix(rendered, "Context:\n\n") {
		t.Fatalf("expected empty context in rendered prompt, got %q", rendered)
	}
	if len(answer.UsedDocuments) != 0 {
		t.Fatalf("expected no used documents")
	}
}

func TestGenerateStaticInputsTakePrecedence(t *testing.T) {
	llm := &llmFake{response: "ok"}
	tmpl := domain.PromptTemplate{
		Formatter: domain.FormatterSimple,
		Template:  "{style} {context} {question}",
		Inputs:    map[string]string{"style": "concise", "question": "pinned"},
	}

	_, rendered, err := Generate(context.Background(), nil, "runtime question", tmpl, llm)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(rendered, "concise") {
		t.Fatalf("static input not rendered: %q", rendered)
	}
	if !strings.Contains(rendered, "pinned") || strings.Contains(rendered, "runtime question") {
		t.Fatalf("static inputs must override runtime variables: %q", rendered)
	}
}

func TestGenerateDetectsDeclinedAnswer(t *testing.T) {
	llm := &llmFake{response: "I do not know."}
	tmpl := answeringPrompt()
	tmpl.Inputs = map[string]string{domain.NoAnswerInputKey: "I do not know."}

	answer, _, err := Generate(context.Background(), nil, "q", tmpl, llm)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if answer.Status != domain.StatusDeclined {
		t.Fatalf("expected declined status, got %s", answer.Status)
	}
}
