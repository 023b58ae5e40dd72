package kamba

import (
	"context"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClientProvider covers the two OpenAI endpoints kamba uses: chat completions for
// answers and audio speech for the spoken reply.
type OpenAIClientProvider interface {
	CreateCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)

	// CreateSpeech synthesizes speech; the caller must close the response body.
	CreateSpeech(ctx context.Context, params openai.AudioSpeechNewParams) (*http.Response, error)
}

// OpenAIClient implements OpenAIClientProvider with the official SDK.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates an OpenAIClient. The same client serves the language model and
// the speech synthesizer:
//
//	client := kamba.NewOpenAIClient(apiKey, option.WithMaxRetries(1))
//	llm := kamba.NewOpenAILLMProvider(kamba.OpenAIProviderConfig{Client: client})
//	tts := kamba.NewOpenAISpeechSynthesizer(kamba.OpenAISpeechConfig{Client: client})
func NewOpenAIClient(apiKey string, opts ...option.RequestOption) *OpenAIClient {
	opts = append(opts, option.WithAPIKey(apiKey))
	return &OpenAIClient{
		client: openai.NewClient(opts...),
	}
}

func (c *OpenAIClient) CreateCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

// CreateSpeech returns the raw audio response; the caller closes the body.
func (c *OpenAIClient) CreateSpeech(ctx context.Context, params openai.AudioSpeechNewParams) (*http.Response, error) {
	return c.client.Audio.Speech.New(ctx, params)
}
