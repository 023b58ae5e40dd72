// Package kamba implements the conversation history and AI collaborator layer of the
// Kamba assistant: chats persisted in a key-value store, and thin request/response
// wrappers around hosted language and speech models.
package kamba

import "context"

// LLMMessageRole is the role of a message sent to a language model.
type LLMMessageRole string

const (
	UserRole      LLMMessageRole = "user"
	AssistantRole LLMMessageRole = "assistant"
	SystemRole    LLMMessageRole = "system"
)

// LLMMessage is a single message of a language model request.
type LLMMessage struct {
	Role LLMMessageRole `json:"role"`
	Text string         `json:"text"`
	// Attachment is an optional image data URI; only honoured on user messages.
	Attachment string `json:"attachment,omitempty"`
}

// LLMResponse is the result of a language model request.
type LLMResponse struct {
	Text             string
	TotalInputToken  int
	TotalOutputToken int
	CompletionTime   float64
}

// LLMProvider is implemented by every hosted language model backend.
type LLMProvider interface {
	GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error)
}
