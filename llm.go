package kamba

import (
	"context"
)

// LLMRequest pairs generation parameters with a provider. The assistant keeps one for
// spoken answers and one for structured JSON output.
type LLMRequest struct {
	requestConfig LLMRequestConfig
	provider      LLMProvider
}

// NewLLMRequest creates an LLMRequest.
//
// Example usage:
//
//	service, _ := kamba.NewGoogleGeminiService(ctx, apiKey, "gemini-2.0-flash")
//	provider, _ := kamba.NewGeminiProvider(service, logger)
//
//	titles := kamba.NewLLMRequest(kamba.NewRequestConfig(
//	    kamba.WithJSONResponse(),
//	    kamba.WithMaxToken(256),
//	), provider)
func NewLLMRequest(config LLMRequestConfig, provider LLMProvider) *LLMRequest {
	return &LLMRequest{
		requestConfig: config,
		provider:      provider,
	}
}

// Generate sends messages with the bound configuration.
func (r *LLMRequest) Generate(ctx context.Context, messages []LLMMessage) (LLMResponse, error) {
	return r.provider.GetResponse(ctx, messages, r.requestConfig)
}

func (r *LLMRequest) Config() LLMRequestConfig {
	return r.requestConfig
}
