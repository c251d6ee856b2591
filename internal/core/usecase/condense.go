package usecase

import (
	"context"
	"fmt"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
)

// defaultCondensePrompt asks the model to reformulate a follow-up into a
// standalone question without answering it.
var defaultCondensePrompt = domain.PromptTemplate{
	Formatter: domain.FormatterSimple,
	Template: `Given the conversation below and a follow-up question, rephrase the follow-up
into a standalone question that can be understood without the conversation.
Do not answer the question.

Conversation:
{chat_history}

Follow-up question:
{question}

Standalone question:`,
}

// Condense rewrites a context-dependent follow-up into a standalone question.
// With no history there is nothing to disambiguate, so the raw question is
// returned without a model call.
func Condense(
	ctx context.Context,
	history domain.DialogHistory,
	rawQuestion string,
	llm ports.LanguageModel,
	prompt *domain.PromptTemplate,
) (question string, renderedPrompt string, err error) {
	if history.Empty() {
		return rawQuestion, "", nil
	}

	tmpl := defaultCondensePrompt
	if prompt != nil {
		tmpl = *prompt
	}

	rendered, err := tmpl.Render(map[string]string{
		"chat_history": history.Transcript(),
		"question":     rawQuestion,
	})
	if err != nil {
		return "", "", err
	}

	condensed, err := llm.Generate(ctx, rendered)
	if err != nil {
		return "", rendered, fmt.Errorf("condense question: %w", err)
	}
	return condensed, rendered, nil
}
