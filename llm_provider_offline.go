package kamba

import (
	"context"
	"strings"
)

const (
	offlineAnswer = "Estou em modo offline e não consigo falar com o modelo agora. " +
		"Configura um fornecedor para receberes respostas reais sobre Angola."
	// offlineJSON satisfies both the quick reply and the title prompts.
	offlineJSON = `{"suggestions":["Tenta outra vez","Fala-me de Luanda"],"title":"Kamba em modo offline"}`
)

// OfflineLLMProvider answers without calling any model. It backs the "offline" provider of
// the CLI and stands in for a real backend in tests.
type OfflineLLMProvider struct {
	response *LLMResponse
}

// OfflineOption configures an OfflineLLMProvider.
type OfflineOption func(*OfflineLLMProvider)

// WithResponse makes the provider return response for every request.
func WithResponse(response LLMResponse) OfflineOption {
	return func(p *OfflineLLMProvider) {
		p.response = &response
	}
}

// NewOfflineLLMProvider returns a provider that answers without a network call.
// JSON requests get canned suggestions and a title; other requests get a fixed answer.
func NewOfflineLLMProvider(opts ...OfflineOption) *OfflineLLMProvider {
	provider := &OfflineLLMProvider{}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// GetResponse implements LLMProvider. Without a fixed response it returns a canned JSON
// object for JSON requests and a short notice otherwise.
func (p *OfflineLLMProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return LLMResponse{}, err
	}
	if p.response != nil {
		return *p.response, nil
	}

	text := offlineAnswer
	if config.ResponseFormat == ResponseFormatJSON {
		text = offlineJSON
	}

	input := 0
	for _, m := range messages {
		input += len(strings.Fields(m.Text))
	}
	return LLMResponse{
		Text:             text,
		TotalInputToken:  input,
		TotalOutputToken: len(strings.Fields(text)),
	}, nil
}
