package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragforge/orchestrator/internal/core/domain"
	"github.com/ragforge/orchestrator/internal/core/ports"
)

// Generate renders the answering prompt with the retrieved context and
// invokes the generation model. Empty documents still render the template:
// a "no context" branch in the prompt can produce a canned non-answer.
func Generate(
	ctx context.Context,
	docs []domain.RetrievedDocument,
	question string,
	tmpl domain.PromptTemplate,
	llm ports.LanguageModel,
) (answer *domain.RAGAnswer, renderedPrompt string, err error) {
	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.PageContent)
	}

	rendered, err := tmpl.Render(map[string]string{
		"context":  strings.Join(contents, "\n\n"),
		"question": question,
	})
	if err != nil {
		return nil, "", err
	}

	text, err := llm.Generate(ctx, rendered)
	if err != nil {
		return nil, rendered, fmt.Errorf("generate answer: %w", err)
	}

	status := domain.StatusAnswered
	if sentence, ok := tmpl.NoAnswerSentence(); ok && text == sentence {
		status = domain.StatusDeclined
	}

	return &domain.RAGAnswer{
		AnswerText:    text,
		UsedDocuments: docs,
		Status:        status,
	}, rendered, nil
}
