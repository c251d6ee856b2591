package domain

// RagQuery is the fully validated request handed to the pipeline executor.
// The boundary layer has already decoded the tagged unions and checked the
// search-params/vector-store provider match.
type RagQuery struct {
	Dialog   *Dialog
	Question string

	EmbeddingSetting     EmbeddingSetting
	DocumentIndexName    string
	DocumentSearchParams SearchParams
	VectorStoreSetting   VectorStoreSetting

	QuestionAnsweringLLMSetting LLMSetting
	QuestionAnsweringPrompt     PromptTemplate

	QuestionCondensingLLMSetting LLMSetting
	QuestionCondensingPrompt     *PromptTemplate

	CompressorSetting    CompressorSetting
	GuardrailSetting     GuardrailSetting
	ObservabilitySetting ObservabilitySetting

	DocumentsRequired bool
	Debug             bool
}

// History returns the dialog history, empty when no dialog was supplied.
func (q RagQuery) History() DialogHistory {
	if q.Dialog == nil {
		return nil
	}
	return q.Dialog.History
}

// TextWithFootnotes is the answer text plus its de-duplicated citations.
type TextWithFootnotes struct {
	Text      string     `json:"text"`
	Footnotes []Footnote `json:"footnotes"`
}

type ObservabilityInfo struct {
	TraceID   string `json:"traceId"`
	TraceName string `json:"traceName"`
	TraceURL  string `json:"traceUrl"`
}

// DebugInfo captures intermediate pipeline state, attached only when the
// caller asked for it.
type DebugInfo struct {
	CondensedQuestion  string              `json:"condensedQuestion"`
	CondensationPrompt string              `json:"condensationPrompt,omitempty"`
	AnswerPrompt       string              `json:"answerPrompt"`
	RetrievedDocuments []RetrievedDocument `json:"retrievedDocuments"`
	DurationSeconds    float64             `json:"durationSeconds"`
	StageDurations     map[string]float64  `json:"stageDurations,omitempty"`
}

// RagResponse is the terminal pipeline artifact returned to the caller.
type RagResponse struct {
	Answer            TextWithFootnotes  `json:"answer"`
	ObservabilityInfo *ObservabilityInfo `json:"observabilityInfo,omitempty"`
	Debug             *DebugInfo         `json:"debug,omitempty"`
}
