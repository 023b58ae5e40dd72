package kamba

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/shaharia-lab/kamba/observability"
)

const (
	GeminiRoleUser  GeminiRole = "user"
	GeminiRoleModel GeminiRole = "model"
)

type GeminiRole = string

// GeminiProvider implements LLMProvider on top of a GeminiModelService.
type GeminiProvider struct {
	service GeminiModelService
	log     observability.Logger
}

// NewGeminiProvider wraps service. API key and model checks belong to the service.
func NewGeminiProvider(service GeminiModelService, log observability.Logger) (*GeminiProvider, error) {
	if service == nil {
		return nil, errors.New("GeminiModelService cannot be nil")
	}
	if log == nil {
		log = observability.NewNullLogger()
	}
	return &GeminiProvider{
		service: service,
		log:     log,
	}, nil
}

// GetResponse sends the conversation to Gemini. System messages become the system
// instruction; the last message is sent as the new turn and the rest as chat history.
func (p *GeminiProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	startTime := time.Now()

	genaiConfig, err := mapLLMConfigToGenaiConfig(config)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("failed to map request config: %w", err)
	}

	systemInstruction, contents, err := p.mapLLMMessagesToGenaiContent(messages)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("failed to map messages: %w", err)
	}
	if len(contents) == 0 {
		return LLMResponse{}, errors.New("cannot start LLM conversation with empty initial message")
	}

	history := contents[:len(contents)-1]
	last := contents[len(contents)-1]
	session := p.service.StartChat(genaiConfig, systemInstruction, history)
	if session == nil {
		return LLMResponse{}, errors.New("gemini model service returned no chat session")
	}

	p.log.Debugf("Gemini request: %d history contents, %d parts", len(history), len(last.Parts))
	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("gemini SendMessage failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return LLMResponse{}, fmt.Errorf("request blocked by API: %s", resp.PromptFeedback.BlockReason.String())
		}
		return LLMResponse{}, errors.New("gemini API returned no candidates")
	}

	var text string
	if content := resp.Candidates[0].Content; content != nil {
		text = extractTextFromParts(content.Parts)
	}

	response := LLMResponse{
		Text:           text,
		CompletionTime: time.Since(startTime).Seconds(),
	}
	if resp.UsageMetadata != nil {
		response.TotalInputToken = int(resp.UsageMetadata.PromptTokenCount)
		response.TotalOutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return response, nil
}

func (p *GeminiProvider) mapLLMMessagesToGenaiContent(messages []LLMMessage) (*genai.Content, []*genai.Content, error) {
	var systemParts []genai.Part
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		var role GeminiRole
		switch msg.Role {
		case SystemRole:
			systemParts = append(systemParts, genai.Text(msg.Text))
			continue
		case UserRole:
			role = GeminiRoleUser
		case AssistantRole:
			role = GeminiRoleModel
		default:
			return nil, nil, fmt.Errorf("unsupported LLMMessageRole: %s", msg.Role)
		}

		parts := []genai.Part{genai.Text(msg.Text)}
		if msg.Attachment != "" && msg.Role == UserRole {
			uri, err := ParseDataURI(msg.Attachment)
			if err != nil {
				return nil, nil, err
			}
			parts = append(parts, genai.Blob{MIMEType: uri.MIMEType, Data: uri.Data})
		}

		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	// Gemini rejects histories that open with a model turn, e.g. a greeting.
	for len(contents) > 0 && contents[0].Role == GeminiRoleModel {
		p.log.Debug("dropping leading model content from gemini history")
		contents = contents[1:]
	}

	var systemInstruction *genai.Content
	if len(systemParts) > 0 {
		systemInstruction = &genai.Content{Parts: systemParts}
	}
	return systemInstruction, contents, nil
}

func mapLLMConfigToGenaiConfig(config LLMRequestConfig) (*genai.GenerationConfig, error) {
	genaiConfig := &genai.GenerationConfig{}
	if config.MaxToken > 0 {
		if config.MaxToken > int64(^uint32(0)>>1) {
			return nil, fmt.Errorf("MaxToken %d exceeds int32 limit", config.MaxToken)
		}
		maxTokens := int32(config.MaxToken)
		genaiConfig.MaxOutputTokens = &maxTokens
	}
	if config.Temperature >= 0 {
		temp := float32(config.Temperature)
		genaiConfig.Temperature = &temp
	}
	if config.TopP > 0 {
		topP := float32(config.TopP)
		genaiConfig.TopP = &topP
	}
	if config.TopK > 0 {
		if config.TopK > int64(^uint32(0)>>1) {
			return nil, fmt.Errorf("TopK %d exceeds int32 limit", config.TopK)
		}
		topK := int32(config.TopK)
		genaiConfig.TopK = &topK
	}
	if config.ResponseFormat == ResponseFormatJSON {
		genaiConfig.ResponseMIMEType = "application/json"
	}
	return genaiConfig, nil
}

func extractTextFromParts(parts []genai.Part) string {
	var sb strings.Builder
	for _, part := range parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
