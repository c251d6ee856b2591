package httpadapter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

// ragQueryRequest is the wire shape of a query. Every provider-backed setting
// is a tagged object: a "provider" discriminator selects the variant, and the
// remaining fields are decoded against that variant alone.
type ragQueryRequest struct {
	Question string         `json:"question"`
	Dialog   *domain.Dialog `json:"dialog"`

	EmbeddingSetting     json.RawMessage `json:"embeddingSetting"`
	DocumentIndexName    string          `json:"documentIndexName"`
	DocumentSearchParams json.RawMessage `json:"documentSearchParams"`
	VectorStoreSetting   json.RawMessage `json:"vectorStoreSetting"`

	QuestionAnsweringLLMSetting json.RawMessage `json:"questionAnsweringLlmSetting"`
	QuestionAnsweringPrompt     *promptPayload  `json:"questionAnsweringPrompt"`

	QuestionCondensingLLMSetting json.RawMessage `json:"questionCondensingLlmSetting"`
	QuestionCondensingPrompt     *promptPayload  `json:"questionCondensingPrompt"`

	CompressorSetting    json.RawMessage `json:"compressorSetting"`
	GuardrailSetting     json.RawMessage `json:"guardrailSetting"`
	ObservabilitySetting json.RawMessage `json:"observabilitySetting"`

	// A pointer so an omitted field is distinguishable from an explicit
	// false; grounding is enforced unless the caller opts out.
	DocumentsRequired *bool `json:"documentsRequired"`
	Debug             bool  `json:"debug"`
}

type promptPayload struct {
	Formatter string            `json:"formatter"`
	Template  string            `json:"template"`
	Inputs    map[string]string `json:"inputs"`
}

func (p *promptPayload) toDomain() domain.PromptTemplate {
	return domain.PromptTemplate{
		Formatter: domain.PromptFormatter(p.Formatter),
		Template:  p.Template,
		Inputs:    p.Inputs,
	}
}

func providerTag(raw json.RawMessage) (string, error) {
	var tag struct {
		Provider string `json:"provider"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return "", badRequest("setting is not a JSON object", err)
	}
	if tag.Provider == "" {
		return "", badRequest("setting is missing the provider field", nil)
	}
	return tag.Provider, nil
}

func badRequest(msg string, err error) error {
	if err == nil {
		err = fmt.Errorf("%s", msg)
	} else {
		err = fmt.Errorf("%s: %w", msg, err)
	}
	return domain.WrapError(domain.ErrBadRequest, "decode request", err)
}

func unknownProvider(field, provider string) error {
	return domain.WrapError(domain.ErrUnknownProviderSetting, "decode "+field,
		fmt.Errorf("provider %q is not supported", provider))
}

func decodeInto(field string, raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return badRequest("invalid "+field+" setting", err)
	}
	return nil
}

type llmSettingPayload struct {
	APIKey         string  `json:"apiKey"`
	AccessToken    string  `json:"accessToken"`
	BaseURL        string  `json:"baseUrl"`
	Endpoint       string  `json:"endpoint"`
	DeploymentName string  `json:"deploymentName"`
	APIVersion     string  `json:"apiVersion"`
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	TimeoutSeconds int     `json:"timeoutSeconds"`
}

func (p llmSettingPayload) timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func decodeLLMSetting(field string, raw json.RawMessage) (domain.LLMSetting, error) {
	provider, err := providerTag(raw)
	if err != nil {
		return nil, err
	}
	var p llmSettingPayload
	if err := decodeInto(field, raw, &p); err != nil {
		return nil, err
	}

	switch domain.Provider(provider) {
	case domain.ProviderOpenAI:
		return domain.OpenAILLMSetting{
			APIKey:      p.APIKey,
			BaseURL:     p.BaseURL,
			Model:       p.Model,
			Temperature: p.Temperature,
			Timeout:     p.timeout(),
		}, nil
	case domain.ProviderAzureOpenAI:
		return domain.AzureOpenAILLMSetting{
			APIKey:         p.APIKey,
			Endpoint:       p.Endpoint,
			DeploymentName: p.DeploymentName,
			APIVersion:     p.APIVersion,
			Temperature:    p.Temperature,
			Timeout:        p.timeout(),
		}, nil
	case domain.ProviderOllama:
		return domain.OllamaLLMSetting{
			BaseURL:     p.BaseURL,
			Model:       p.Model,
			Temperature: p.Temperature,
			Timeout:     p.timeout(),
		}, nil
	case domain.ProviderHuggingFaceTGI:
		return domain.HuggingFaceTGILLMSetting{
			APIKey:      p.APIKey,
			BaseURL:     p.BaseURL,
			Model:       p.Model,
			Temperature: p.Temperature,
			Timeout:     p.timeout(),
		}, nil
	case domain.ProviderVertexAI:
		return domain.VertexAILLMSetting{
			AccessToken: p.AccessToken,
			Endpoint:    p.Endpoint,
			Model:       p.Model,
			Temperature: p.Temperature,
			Timeout:     p.timeout(),
		}, nil
	default:
		return nil, unknownProvider(field, provider)
	}
}

func decodeEmbeddingSetting(raw json.RawMessage) (domain.EmbeddingSetting, error) {
	provider, err := providerTag(raw)
	if err != nil {
		return nil, err
	}
	var p llmSettingPayload
	if err := decodeInto("embedding", raw, &p); err != nil {
		return nil, err
	}

	switch domain.Provider(provider) {
	case domain.ProviderOpenAI:
		return domain.OpenAIEmbeddingSetting{
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Timeout: p.timeout(),
		}, nil
	case domain.ProviderAzureOpenAI:
		return domain.AzureOpenAIEmbeddingSetting{
			APIKey:         p.APIKey,
			Endpoint:       p.Endpoint,
			DeploymentName: p.DeploymentName,
			APIVersion:     p.APIVersion,
			Timeout:        p.timeout(),
		}, nil
	case domain.ProviderOllama:
		return domain.OllamaEmbeddingSetting{
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Timeout: p.timeout(),
		}, nil
	case domain.ProviderHuggingFaceTEI:
		return domain.HuggingFaceTEIEmbeddingSetting{
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			Timeout: p.timeout(),
		}, nil
	default:
		return nil, unknownProvider("embedding", provider)
	}
}

func decodeVectorStoreSetting(raw json.RawMessage) (domain.VectorStoreSetting, error) {
	provider, err := providerTag(raw)
	if err != nil {
		return nil, err
	}

	switch domain.Provider(provider) {
	case domain.ProviderOpenSearch:
		var p struct {
			BaseURL        string `json:"baseUrl"`
			Username       string `json:"username"`
			Password       string `json:"password"`
			TimeoutSeconds int    `json:"timeoutSeconds"`
		}
		if err := decodeInto("vector store", raw, &p); err != nil {
			return nil, err
		}
		return domain.OpenSearchSetting{
			BaseURL:  p.BaseURL,
			Username: p.Username,
			Password: p.Password,
			Timeout:  time.Duration(p.TimeoutSeconds) * time.Second,
		}, nil
	case domain.ProviderQdrant:
		var p struct {
			BaseURL        string `json:"baseUrl"`
			APIKey         string `json:"apiKey"`
			TimeoutSeconds int    `json:"timeoutSeconds"`
		}
		if err := decodeInto("vector store", raw, &p); err != nil {
			return nil, err
		}
		return domain.QdrantSetting{
			BaseURL: p.BaseURL,
			APIKey:  p.APIKey,
			Timeout: time.Duration(p.TimeoutSeconds) * time.Second,
		}, nil
	default:
		return nil, unknownProvider("vector store", provider)
	}
}

func decodeSearchParams(raw json.RawMessage) (domain.SearchParams, error) {
	provider, err := providerTag(raw)
	if err != nil {
		return nil, err
	}
	var p struct {
		K      int            `json:"k"`
		Filter map[string]any `json:"filter"`
	}
	if err := decodeInto("search params", raw, &p); err != nil {
		return nil, err
	}

	switch domain.Provider(provider) {
	case domain.ProviderOpenSearch:
		return domain.OpenSearchParams{K: p.K, FilterQuery: p.Filter}, nil
	case domain.ProviderQdrant:
		return domain.QdrantParams{K: p.K, FilterQuery: p.Filter}, nil
	default:
		return nil, unknownProvider("search params", provider)
	}
}

func decodeCompressorSetting(raw json.RawMessage) (domain.CompressorSetting, error) {
	provider, err := providerTag(raw)
	if err != nil {
		return nil, err
	}

	switch domain.Provider(provider) {
	case domain.ProviderBloomzRerank:
		var p struct {
			Endpoint       string  `json:"endpoint"`
			MinScore       float64 `json:"minScore"`
			MaxDocuments   int     `json:"maxDocuments"`
			Label          string  `json:"label"`
			TimeoutSeconds int     `json:"timeoutSeconds"`
		}
		if err := decodeInto("compressor", raw, &p); err != nil {
			return nil, err
		}
		return domain.BloomzRerankSetting{
			Endpoint:     p.Endpoint,
			MinScore:     p.MinScore,
			MaxDocuments: p.MaxDocuments,
			Label:        p.Label,
			Timeout:      time.Duration(p.TimeoutSeconds) * time.Second,
		}, nil
	default:
		return nil, unknownProvider("compressor", provider)
	}
}

func decodeGuardrailSetting(raw json.RawMessage) (domain.GuardrailSetting, error) {
	provider, err := providerTag(raw)
	if err != nil {
		return nil, err
	}

	switch domain.Provider(provider) {
	case domain.ProviderBloomzGuardrail:
		var p struct {
			Endpoint       string  `json:"endpoint"`
			MaxScore       float64 `json:"maxScore"`
			TimeoutSeconds int     `json:"timeoutSeconds"`
		}
		if err := decodeInto("guardrail", raw, &p); err != nil {
			return nil, err
		}
		return domain.BloomzGuardrailSetting{
			Endpoint: p.Endpoint,
			MaxScore: p.MaxScore,
			Timeout:  time.Duration(p.TimeoutSeconds) * time.Second,
		}, nil
	default:
		return nil, unknownProvider("guardrail", provider)
	}
}

func decodeObservabilitySetting(raw json.RawMessage) (domain.ObservabilitySetting, error) {
	provider, err := providerTag(raw)
	if err != nil {
		return nil, err
	}

	switch domain.Provider(provider) {
	case domain.ProviderLangfuse:
		var p struct {
			Host      string   `json:"host"`
			PublicKey string   `json:"publicKey"`
			SecretKey string   `json:"secretKey"`
			TraceName string   `json:"traceName"`
			UserID    string   `json:"userId"`
			SessionID string   `json:"sessionId"`
			Tags      []string `json:"tags"`
		}
		if err := decodeInto("observability", raw, &p); err != nil {
			return nil, err
		}
		return domain.LangfuseSetting{
			Host:      p.Host,
			PublicKey: p.PublicKey,
			SecretKey: p.SecretKey,
			TraceName: p.TraceName,
			UserID:    p.UserID,
			SessionID: p.SessionID,
			Tags:      p.Tags,
		}, nil
	default:
		return nil, unknownProvider("observability", provider)
	}
}

// toDomainQuery validates the request and assembles a RagQuery. The provider
// carried by the search params must match the provider of the vector store the
// query will actually hit, which is the configured default when the request
// does not carry its own store setting.
func (req *ragQueryRequest) toDomainQuery(defaultStoreProvider domain.Provider) (domain.RagQuery, error) {
	var query domain.RagQuery

	documentsRequired := true
	if req.DocumentsRequired != nil {
		documentsRequired = *req.DocumentsRequired
	}

	if req.Question == "" {
		return query, badRequest("question is required", nil)
	}
	if req.EmbeddingSetting == nil {
		return query, badRequest("embeddingSetting is required", nil)
	}
	if req.QuestionAnsweringLLMSetting == nil {
		return query, badRequest("questionAnsweringLlmSetting is required", nil)
	}
	if req.QuestionAnsweringPrompt == nil || req.QuestionAnsweringPrompt.Template == "" {
		return query, badRequest("questionAnsweringPrompt is required", nil)
	}
	if req.DocumentIndexName == "" {
		return query, badRequest("documentIndexName is required", nil)
	}
	if req.DocumentSearchParams == nil {
		return query, badRequest("documentSearchParams is required", nil)
	}

	embedding, err := decodeEmbeddingSetting(req.EmbeddingSetting)
	if err != nil {
		return query, err
	}
	searchParams, err := decodeSearchParams(req.DocumentSearchParams)
	if err != nil {
		return query, err
	}
	answerLLM, err := decodeLLMSetting("answering llm", req.QuestionAnsweringLLMSetting)
	if err != nil {
		return query, err
	}

	var store domain.VectorStoreSetting
	if req.VectorStoreSetting != nil {
		store, err = decodeVectorStoreSetting(req.VectorStoreSetting)
		if err != nil {
			return query, err
		}
	}

	effectiveProvider := defaultStoreProvider
	if store != nil {
		effectiveProvider = store.VectorStoreProvider()
	}
	if effectiveProvider == "" {
		return query, domain.WrapError(domain.ErrConfiguration, "decode request",
			fmt.Errorf("no vector store setting supplied and no default vector store configured"))
	}
	if searchParams.SearchProvider() != effectiveProvider {
		return query, badRequest(
			fmt.Sprintf("search params target provider %q but the vector store provider is %q",
				searchParams.SearchProvider(), effectiveProvider), nil)
	}

	var condenseLLM domain.LLMSetting
	if req.QuestionCondensingLLMSetting != nil {
		condenseLLM, err = decodeLLMSetting("condensing llm", req.QuestionCondensingLLMSetting)
		if err != nil {
			return query, err
		}
	}

	var compressor domain.CompressorSetting
	if req.CompressorSetting != nil {
		compressor, err = decodeCompressorSetting(req.CompressorSetting)
		if err != nil {
			return query, err
		}
	}

	var guard domain.GuardrailSetting
	if req.GuardrailSetting != nil {
		guard, err = decodeGuardrailSetting(req.GuardrailSetting)
		if err != nil {
			return query, err
		}
	}

	var obs domain.ObservabilitySetting
	if req.ObservabilitySetting != nil {
		obs, err = decodeObservabilitySetting(req.ObservabilitySetting)
		if err != nil {
			return query, err
		}
	}

	query = domain.RagQuery{
		Dialog:                       req.Dialog,
		Question:                     req.Question,
		EmbeddingSetting:             embedding,
		DocumentIndexName:            req.DocumentIndexName,
		DocumentSearchParams:         searchParams,
		VectorStoreSetting:           store,
		QuestionAnsweringLLMSetting:  answerLLM,
		QuestionAnsweringPrompt:      req.QuestionAnsweringPrompt.toDomain(),
		QuestionCondensingLLMSetting: condenseLLM,
		CompressorSetting:            compressor,
		GuardrailSetting:             guard,
		ObservabilitySetting:         obs,
		DocumentsRequired:            documentsRequired,
		Debug:                        req.Debug,
	}
	if req.QuestionCondensingPrompt != nil {
		prompt := req.QuestionCondensingPrompt.toDomain()
		query.QuestionCondensingPrompt = &prompt
	}

	return query, nil
}
