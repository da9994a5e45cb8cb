package loader

import "github.com/giantswarm/bailian-loader/internal/llm"

const (
	// EnvAPIKey is the environment variable holding the DashScope API key.
	EnvAPIKey = "DASHSCOPE_API_KEY"

	// DefaultBaseURL is DashScope's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	DefaultMaxTokens        = 4000
	DefaultTopP             = 1.0
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0
)

// ClientConfig is everything needed to construct a client for one attempt.
type ClientConfig struct {
	ModelName   string
	Temperature float64
	APIKey      string
	BaseURL     string

	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// NewClientConfig fills in the default base URL and the fixed sampling parameters.
func NewClientConfig(modelName string, temperature float64, apiKey, baseURL string) ClientConfig {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return ClientConfig{
		ModelName:        modelName,
		Temperature:      temperature,
		APIKey:           apiKey,
		BaseURL:          baseURL,
		MaxTokens:        DefaultMaxTokens,
		TopP:             DefaultTopP,
		FrequencyPenalty: DefaultFrequencyPenalty,
		PresencePenalty:  DefaultPresencePenalty,
	}
}

// Options converts the config to llm client options.
func (c ClientConfig) Options() []llm.Option {
	return []llm.Option{
		llm.WithBaseURL(c.BaseURL),
		llm.WithAPIKey(c.APIKey),
		llm.WithModel(c.ModelName),
		llm.WithTemperature(c.Temperature),
		llm.WithSampling(llm.Sampling{
			MaxTokens:        c.MaxTokens,
			TopP:             c.TopP,
			FrequencyPenalty: c.FrequencyPenalty,
			PresencePenalty:  c.PresencePenalty,
		}),
	}
}
