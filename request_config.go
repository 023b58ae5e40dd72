package kamba

// ResponseFormat tells a provider what shape of output the caller expects.
type ResponseFormat string

const (
	ResponseFormatText ResponseFormat = "text"
	ResponseFormatJSON ResponseFormat = "json"
)

// LLMRequestConfig holds the generation parameters of a request.
type LLMRequestConfig struct {
	MaxToken       int64
	TopP           float64
	Temperature    float64
	TopK           int64
	ResponseFormat ResponseFormat
}

// RequestOption mutates an LLMRequestConfig.
type RequestOption func(*LLMRequestConfig)

// DefaultRequestConfig is the base every NewRequestConfig call starts from.
var DefaultRequestConfig = LLMRequestConfig{
	MaxToken:       1000,
	TopP:           0.5,
	Temperature:    0.5,
	TopK:           40,
	ResponseFormat: ResponseFormatText,
}

// NewRequestConfig builds a request config from the defaults and the given options.
//
// Example usage:
//
//	config := kamba.NewRequestConfig(
//	    kamba.WithMaxToken(2000),
//	    kamba.WithTemperature(0.7),
//	)
func NewRequestConfig(opts ...RequestOption) LLMRequestConfig {
	config := DefaultRequestConfig
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

func WithMaxToken(maxToken int64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.MaxToken = maxToken
	}
}

func WithTopP(topP float64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.TopP = topP
	}
}

func WithTemperature(temperature float64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.Temperature = temperature
	}
}

func WithTopK(topK int64) RequestOption {
	return func(c *LLMRequestConfig) {
		c.TopK = topK
	}
}

// WithJSONResponse asks the provider for a JSON document where the backend supports it.
func WithJSONResponse() RequestOption {
	return func(c *LLMRequestConfig) {
		c.ResponseFormat = ResponseFormatJSON
	}
}
