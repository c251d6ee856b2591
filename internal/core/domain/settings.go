package domain

import "time"

// Provider identifies a concrete third-party backend inside a tagged setting.
type Provider string

const (
	ProviderOpenAI          Provider = "openai"
	ProviderAzureOpenAI     Provider = "azure-openai"
	ProviderOllama          Provider = "ollama"
	ProviderHuggingFaceTGI  Provider = "huggingface-tgi"
	ProviderHuggingFaceTEI  Provider = "huggingface-tei"
	ProviderVertexAI        Provider = "vertexai"
	ProviderOpenSearch      Provider = "opensearch"
	ProviderQdrant          Provider = "qdrant"
	ProviderBloomzRerank    Provider = "bloomz-rerank"
	ProviderBloomzGuardrail Provider = "bloomz-guardrail"
	ProviderLangfuse        Provider = "langfuse"
)

// LLMSetting is a closed sum over generation model configurations. The
// factory registry performs an exhaustive type switch over its variants.
type LLMSetting interface {
	LLMProvider() Provider
}

type OpenAILLMSetting struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func (OpenAILLMSetting) LLMProvider() Provider { return ProviderOpenAI }

type AzureOpenAILLMSetting struct {
	APIKey         string
	Endpoint       string
	DeploymentName string
	APIVersion     string
	Temperature    float64
	Timeout        time.Duration
}

func (AzureOpenAILLMSetting) LLMProvider() Provider { return ProviderAzureOpenAI }

type OllamaLLMSetting struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func (OllamaLLMSetting) LLMProvider() Provider { return ProviderOllama }

type HuggingFaceTGILLMSetting struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func (HuggingFaceTGILLMSetting) LLMProvider() Provider { return ProviderHuggingFaceTGI }

type VertexAILLMSetting struct {
	AccessToken string
	Endpoint    string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func (VertexAILLMSetting) LLMProvider() Provider { return ProviderVertexAI }

// EmbeddingSetting is a closed sum over embedding model configurations.
type EmbeddingSetting interface {
	EmbeddingProvider() Provider
}

type OpenAIEmbeddingSetting struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (OpenAIEmbeddingSetting) EmbeddingProvider() Provider { return ProviderOpenAI }

type AzureOpenAIEmbeddingSetting struct {
	APIKey         string
	Endpoint       string
	DeploymentName string
	APIVersion     string
	Timeout        time.Duration
}

func (AzureOpenAIEmbeddingSetting) EmbeddingProvider() Provider { return ProviderAzureOpenAI }

type OllamaEmbeddingSetting struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (OllamaEmbeddingSetting) EmbeddingProvider() Provider { return ProviderOllama }

type HuggingFaceTEIEmbeddingSetting struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func (HuggingFaceTEIEmbeddingSetting) EmbeddingProvider() Provider { return ProviderHuggingFaceTEI }

// VectorStoreSetting is a closed sum over vector store configurations.
type VectorStoreSetting interface {
	VectorStoreProvider() Provider
}

type OpenSearchSetting struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

func (OpenSearchSetting) VectorStoreProvider() Provider { return ProviderOpenSearch }

type QdrantSetting struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func (QdrantSetting) VectorStoreProvider() Provider { return ProviderQdrant }

// CompressorSetting is a closed sum over document compressor configurations.
type CompressorSetting interface {
	CompressorProvider() Provider
}

// BloomzRerankSetting points at a scoring endpoint that classifies each
// document against the query. Label selects the score the reranker keeps.
type BloomzRerankSetting struct {
	Endpoint     string
	MinScore     float64
	MaxDocuments int
	Label        string
	Timeout      time.Duration
}

func (BloomzRerankSetting) CompressorProvider() Provider { return ProviderBloomzRerank }

// GuardrailSetting is a closed sum over post-generation guardrail
// configurations.
type GuardrailSetting interface {
	GuardrailProvider() Provider
}

type BloomzGuardrailSetting struct {
	Endpoint string
	MaxScore float64
	Timeout  time.Duration
}

func (BloomzGuardrailSetting) GuardrailProvider() Provider { return ProviderBloomzGuardrail }

// ObservabilitySetting is a closed sum over tracing backend configurations.
type ObservabilitySetting interface {
	ObservabilityProvider() Provider
}

type LangfuseSetting struct {
	Host      string
	PublicKey string
	SecretKey string
	TraceName string
	UserID    string
	SessionID string
	Tags      []string
}

func (LangfuseSetting) ObservabilityProvider() Provider { return ProviderLangfuse }

// SearchParams shapes a vector store query. The boundary layer guarantees the
// params provider matches the effective vector store provider before the core
// runs.
type SearchParams interface {
	SearchProvider() Provider
	ResultCount() int
	Filter() map[string]any
}

type OpenSearchParams struct {
	K           int
	FilterQuery map[string]any
}

func (p OpenSearchParams) SearchProvider() Provider { return ProviderOpenSearch }
func (p OpenSearchParams) ResultCount() int         { return p.K }
func (p OpenSearchParams) Filter() map[string]any   { return p.FilterQuery }

type QdrantParams struct {
	K           int
	FilterQuery map[string]any
}

func (p QdrantParams) SearchProvider() Provider { return ProviderQdrant }
func (p QdrantParams) ResultCount() int         { return p.K }
func (p QdrantParams) Filter() map[string]any   { return p.FilterQuery }
