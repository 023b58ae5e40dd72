package kamba

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModelService defines the interface for interacting with the Gemini model
type GeminiModelService interface {
	// StartChat opens a session on a model configured for this call only.
	StartChat(config *genai.GenerationConfig, systemInstruction *genai.Content, initialHistory []*genai.Content) ChatSessionService
}

// ChatSessionService defines the interface for chat session management
type ChatSessionService interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GoogleGeminiService implements GeminiModelService using the genai client
type GoogleGeminiService struct {
	client    *genai.Client
	modelName string
}

// GoogleGeminiChatSessionService implements ChatSessionService using genai.ChatSession
type GoogleGeminiChatSessionService struct {
	cs *genai.ChatSession
}

// NewGoogleGeminiService creates a new instance of GoogleGeminiService
func NewGoogleGeminiService(ctx context.Context, apiKey, modelName string) (*GoogleGeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GoogleGeminiService{
		client:    client,
		modelName: modelName,
	}, nil
}

// StartChat initializes a new chat session with the provided initial history
func (g *GoogleGeminiService) StartChat(config *genai.GenerationConfig, systemInstruction *genai.Content, initialHistory []*genai.Content) ChatSessionService {
	model := g.client.GenerativeModel(g.modelName)
	if config != nil {
		model.GenerationConfig = *config
	}
	model.SystemInstruction = systemInstruction

	cs := model.StartChat()
	cs.History = initialHistory
	return &GoogleGeminiChatSessionService{cs: cs}
}

// Close releases the underlying client.
func (g *GoogleGeminiService) Close() error {
	return g.client.Close()
}

// SendMessage sends a message to the chat session and returns the response
func (s *GoogleGeminiChatSessionService) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return s.cs.SendMessage(ctx, parts...)
}
