package kamba

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingTransport answers every request with a canned response and keeps the request bodies.
type recordingTransport struct {
	status      int
	body        string
	contentType string

	paths  []string
	bodies []string
}

func (m *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		m.bodies = append(m.bodies, string(body))
	}
	m.paths = append(m.paths, req.URL.Path)

	contentType := m.contentType
	if contentType == "" {
		contentType = "application/json"
	}
	return &http.Response{
		StatusCode: m.status,
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(m.body)),
		Request:    req,
	}, nil
}

func newTestOpenAIClient(transport http.RoundTripper) *OpenAIClient {
	return NewOpenAIClient("test-key",
		option.WithHTTPClient(&http.Client{Transport: transport}),
		option.WithMaxRetries(0),
	)
}

const openAICompletionJSON = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "Luanda é a capital de Angola."},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 20, "completion_tokens": 8, "total_tokens": 28}
}`

func TestNewOpenAILLMProvider_DefaultModel(t *testing.T) {
	provider := NewOpenAILLMProvider(OpenAIProviderConfig{})
	assert.Equal(t, openai.ChatModelGPT4oMini, provider.model)

	provider = NewOpenAILLMProvider(OpenAIProviderConfig{Model: openai.ChatModelGPT4o})
	assert.Equal(t, openai.ChatModelGPT4o, provider.model)
}

func TestOpenAILLMProvider_GetResponse(t *testing.T) {
	transport := &recordingTransport{status: http.StatusOK, body: openAICompletionJSON}
	provider := NewOpenAILLMProvider(OpenAIProviderConfig{Client: newTestOpenAIClient(transport)})

	resp, err := provider.GetResponse(context.Background(), []LLMMessage{
		{Role: SystemRole, Text: "És o Kamba."},
		{Role: UserRole, Text: "Qual é a capital?", Attachment: "data:image/png;base64,cG5n"},
	}, NewRequestConfig(WithMaxToken(500)))

	require.NoError(t, err)
	assert.Equal(t, "Luanda é a capital de Angola.", resp.Text)
	assert.Equal(t, 20, resp.TotalInputToken)
	assert.Equal(t, 8, resp.TotalOutputToken)

	require.Len(t, transport.bodies, 1)
	assert.True(t, strings.HasSuffix(transport.paths[0], "/chat/completions"))

	var sent struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &sent))
	assert.Equal(t, "gpt-4o-mini", sent.Model)
	assert.Equal(t, 500, sent.MaxTokens)
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, "system", sent.Messages[0].Role)
	assert.Equal(t, "user", sent.Messages[1].Role)
	assert.Contains(t, string(sent.Messages[1].Content), "image_url")
	assert.Contains(t, string(sent.Messages[1].Content), "cG5n")
	assert.Contains(t, string(sent.Messages[1].Content), "capital")
}

func TestOpenAILLMProvider_GetResponse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "api error", status: http.StatusBadRequest, body: `{"error": {"message": "bad request", "type": "invalid_request_error"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"id": "x", "object": "chat.completion", "choices": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &recordingTransport{status: tt.status, body: tt.body}
			provider := NewOpenAILLMProvider(OpenAIProviderConfig{Client: newTestOpenAIClient(transport)})

			_, err := provider.GetResponse(context.Background(), []LLMMessage{{Role: UserRole, Text: "Olá"}}, NewRequestConfig())
			assert.Error(t, err)
		})
	}
}

func TestOpenAILLMProvider_GetResponse_JSONMode(t *testing.T) {
	transport := &recordingTransport{status: http.StatusOK, body: openAICompletionJSON}
	provider := NewOpenAILLMProvider(OpenAIProviderConfig{Client: newTestOpenAIClient(transport)})

	_, err := provider.GetResponse(context.Background(), []LLMMessage{{Role: UserRole, Text: "Sugere respostas"}},
		NewRequestConfig(WithJSONResponse()))
	require.NoError(t, err)

	var sent struct {
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	require.Len(t, transport.bodies, 1)
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &sent))
	assert.Equal(t, "json_object", sent.ResponseFormat.Type)
}
