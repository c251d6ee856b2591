package domain

import "strings"

// DocumentMetadata is the ambient metadata carried by every retrieved chunk.
// ID is a stable identifier assigned at indexing time; Title and Source come
// from the ingested page.
type DocumentMetadata struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Source string            `json:"source,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// RetrievedDocument is one chunk returned by a retriever. RetrieverScore is
// nil until a compression stage annotates a fresh copy; the base retrieval
// result is never mutated.
type RetrievedDocument struct {
	PageContent    string           `json:"pageContent"`
	Metadata       DocumentMetadata `json:"metadata"`
	RetrieverScore *float64         `json:"retrieverScore,omitempty"`
}

// WithScore returns a copy annotated with a compressor score, leaving the
// receiver untouched.
func (d RetrievedDocument) WithScore(score float64) RetrievedDocument {
	out := d
	out.RetrieverScore = &score
	return out
}

// AnswerStatus records whether the model found an answer in context or
// explicitly declined.
type AnswerStatus string

const (
	StatusAnswered AnswerStatus = "answered"
	StatusDeclined AnswerStatus = "declined"
)

// RAGAnswer is the generation stage output. UsedDocuments are exactly the
// documents that were in scope for the answer; only the RAG guard may strip
// them afterwards.
type RAGAnswer struct {
	AnswerText    string
	UsedDocuments []RetrievedDocument
	Status        AnswerStatus
}

// Footnote is a de-duplicated citation. Identity and equality are defined on
// (Title, URL, Content) only: the same logical source can resurface under
// different chunk identifiers across retrievals.
type Footnote struct {
	Identifier string   `json:"identifier"`
	Title      string   `json:"title"`
	URL        string   `json:"url,omitempty"`
	Content    string   `json:"content"`
	Score      *float64 `json:"score,omitempty"`
}

type footnoteKey struct {
	title   string
	url     string
	content string
}

// DedupeFootnotes collapses footnotes sharing the same (title, url, content)
// triple, keeping the first occurrence. Input order is otherwise preserved.
func DedupeFootnotes(footnotes []Footnote) []Footnote {
	seen := make(map[footnoteKey]struct{}, len(footnotes))
	out := make([]Footnote, 0, len(footnotes))
	for _, fn := range footnotes {
		key := footnoteKey{title: fn.Title, url: fn.URL, content: fn.Content}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, fn)
	}
	return out
}

// StripTitlePrefix removes the ingestion convention of prepending the page
// title to chunk content, so footnotes do not repeat their own title.
func StripTitlePrefix(content, title string) string {
	if title == "" {
		return content
	}
	trimmed := strings.TrimPrefix(content, title)
	if trimmed == content {
		return content
	}
	return strings.TrimLeft(trimmed, " \t\r\n")
}
