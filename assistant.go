package kamba

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shaharia-lab/kamba/observability"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("no text returned from LLM")
	// ErrNoAudio is returned when speech synthesis produced no audio.
	ErrNoAudio = errors.New("no media returned")
)

const (
	// AssistantName is the persona the system prompt introduces.
	AssistantName = "Kamba"

	quickReplyCount = 2
	titlePrefix     = "Conversa sobre"
)

const quickRepliesSchema = `{
  "type": "object",
  "required": ["suggestions"],
  "properties": {
    "suggestions": {"type": "array", "items": {"type": "string"}}
  }
}`

const titleSchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1}
  }
}`

// RespondResult is the assistant's answer to a user turn.
type RespondResult struct {
	Text string
	// Audio is a `data:audio/wav;base64,...` URI of the spoken answer.
	Audio string
}

// Assistant answers user queries, suggests quick replies and names chats using an
// LLMProvider for text and a SpeechSynthesizer for audio.
type Assistant struct {
	speech  SpeechSynthesizer
	prompts *PromptSet
	logger  observability.Logger
	timeout time.Duration

	respondConfig LLMRequestConfig
	answers       *LLMRequest
	structured    *LLMRequest
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithAssistantLogger sets the logger for prompt failures and parse warnings.
func WithAssistantLogger(logger observability.Logger) AssistantOption {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithRequestTimeout bounds every model and speech call. Zero disables the timeout.
func WithRequestTimeout(timeout time.Duration) AssistantOption {
	return func(a *Assistant) {
		a.timeout = timeout
	}
}

// WithRespondConfig sets the generation parameters used for answers.
func WithRespondConfig(config LLMRequestConfig) AssistantOption {
	return func(a *Assistant) {
		a.respondConfig = config
	}
}

// NewAssistant creates an Assistant. A nil speech synthesizer makes every Respond call
// fail with ErrNoAudio.
func NewAssistant(provider LLMProvider, speech SpeechSynthesizer, opts ...AssistantOption) (*Assistant, error) {
	prompts, err := NewPromptSet()
	if err != nil {
		return nil, err
	}

	a := &Assistant{
		speech:        speech,
		prompts:       prompts,
		logger:        observability.NewNullLogger(),
		respondConfig: NewRequestConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.answers = NewLLMRequest(a.respondConfig, provider)
	a.structured = NewLLMRequest(NewRequestConfig(
		WithJSONResponse(),
		WithTemperature(0.2),
		WithMaxToken(256),
	), provider)
	return a, nil
}

// Respond answers query, optionally about the image in attachment, and speaks the answer.
func (a *Assistant) Respond(ctx context.Context, query string, attachment string) (RespondResult, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	hasImage := false
	if attachment != "" {
		uri, err := ParseDataURI(attachment)
		if err != nil {
			return RespondResult{}, fmt.Errorf("failed to read attachment: %w", err)
		}
		if !uri.IsImage() {
			return RespondResult{}, fmt.Errorf("%w: attachment is %s, not an image", ErrInvalidDataURI, uri.MIMEType)
		}
		hasImage = true
	}

	system, err := a.prompts.Persona(AssistantName)
	if err != nil {
		return RespondResult{}, err
	}
	prompt, err := a.prompts.Query(query, hasImage)
	if err != nil {
		return RespondResult{}, err
	}

	resp, err := a.answers.Generate(ctx, []LLMMessage{
		{Role: SystemRole, Text: system},
		{Role: UserRole, Text: prompt, Attachment: attachment},
	})
	if err != nil {
		return RespondResult{}, fmt.Errorf("failed to generate response: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return RespondResult{}, ErrEmptyResponse
	}

	a.logger.WithFields(map[string]interface{}{
		"input_tokens":  resp.TotalInputToken,
		"output_tokens": resp.TotalOutputToken,
		"has_image":     hasImage,
	}).Debug("response generated")

	if a.speech == nil {
		return RespondResult{}, ErrNoAudio
	}
	pcm, err := a.speech.Synthesize(ctx, text)
	if err != nil {
		return RespondResult{}, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	if len(pcm.Data) == 0 {
		return RespondResult{}, ErrNoAudio
	}

	audio, err := WAVDataURI(pcm)
	if err != nil {
		return RespondResult{}, fmt.Errorf("failed to encode speech: %w", err)
	}

	return RespondResult{Text: text, Audio: audio}, nil
}

// SuggestQuickReplies proposes short follow-up messages for the transcript. Two are
// requested; whatever number the model returns is passed through.
func (a *Assistant) SuggestQuickReplies(ctx context.Context, conversationHistory string) ([]string, error) {
	prompt, err := a.prompts.QuickReplies(conversationHistory, quickReplyCount)
	if err != nil {
		return nil, err
	}

	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := a.generateJSON(ctx, prompt, quickRepliesSchema, &out); err != nil {
		return nil, fmt.Errorf("failed to suggest quick replies: %w", err)
	}

	suggestions := make([]string, 0, len(out.Suggestions))
	for _, s := range out.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions, nil
}

// GenerateTitle names a chat from its transcript. It implements TitleGenerator.
func (a *Assistant) GenerateTitle(ctx context.Context, conversationHistory string) (string, error) {
	prompt, err := a.prompts.Title(conversationHistory)
	if err != nil {
		return "", err
	}

	var out struct {
		Title string `json:"title"`
	}
	if err := a.generateJSON(ctx, prompt, titleSchema, &out); err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}

	title := cleanTitle(out.Title)
	if title == "" {
		return "", ErrEmptyResponse
	}
	return title, nil
}

func (a *Assistant) generateJSON(ctx context.Context, prompt string, schema string, target interface{}) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.structured.Generate(ctx, []LLMMessage{
		{Role: UserRole, Text: prompt},
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return ErrEmptyResponse
	}

	_, err = NewSchemaJSONExtractor(target, schema).Extract(resp)
	return err
}

func (a *Assistant) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) >= len(titlePrefix) && strings.EqualFold(title[:len(titlePrefix)], titlePrefix) {
		title = strings.TrimSpace(title[len(titlePrefix):])
		title = strings.TrimSpace(strings.TrimPrefix(title, ":"))
	}
	return strings.Trim(title, `"'`)
}
