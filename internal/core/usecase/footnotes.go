package usecase

import "github.com/ragforge/orchestrator/internal/core/domain"

// BuildFootnotes turns the documents an answer actually used into citations.
// The redundant title prefix ingestion prepends to page content is stripped,
// and footnotes sharing (title, url, content) collapse into one.
func BuildFootnotes(docs []domain.RetrievedDocument) []domain.Footnote {
	footnotes := make([]domain.Footnote, 0, len(docs))
	for _, doc := range docs {
		footnotes = append(footnotes, domain.Footnote{
			Identifier: doc.Metadata.ID,
			Title:      doc.Metadata.Title,
			URL:        doc.Metadata.Source,
			Content:    domain.StripTitlePrefix(doc.PageContent, doc.Metadata.Title),
			Score:      doc.RetrieverScore,
		})
	}
	return domain.DedupeFootnotes(footnotes)
}
