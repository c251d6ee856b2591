package usecase

import (
	"log/slog"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

// CheckGuard enforces consistency between what was retrieved and what was
// answered. Transitions are evaluated in order; first match wins:
//
//  1. no documents, documents required, model declined: accept.
//  2. no documents, documents required, model answered anyway: reject.
//  3. model declined but documents were found: accept and strip the
//     documents, they are not evidence for a non-answer.
//  4. anything else: accept unchanged.
//
// Transition 3 is the only place a RAGAnswer is mutated after construction.
func CheckGuard(prompt domain.PromptTemplate, answer *domain.RAGAnswer, documentsRequired bool) error {
	noAnswerSentence, hasNoAnswerSentence := prompt.NoAnswerSentence()
	noDocsRetrieved := len(answer.UsedDocuments) == 0
	noDocsButRequired := noDocsRetrieved && documentsRequired
	repliedNoAnswer := hasNoAnswerSentence && answer.AnswerText == noAnswerSentence

	switch {
	case noDocsButRequired && repliedNoAnswer:
		return nil
	case noDocsButRequired:
		return &domain.GuardError{
			Reasons: []string{"the system cannot provide an answer when no documents are found and documents are required"},
		}
	case repliedNoAnswer && !noDocsRetrieved:
		slog.Warn("guard_inconsistency",
			"reason", "model declined to answer despite retrieved documents",
			"stripped_documents", len(answer.UsedDocuments),
		)
		answer.UsedDocuments = nil
		return nil
	default:
		return nil
	}
}
