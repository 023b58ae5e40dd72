package kamba

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) GetResponse(ctx context.Context, messages []LLMMessage, config LLMRequestConfig) (LLMResponse, error) {
	args := m.Called(ctx, messages, config)
	return args.Get(0).(LLMResponse), args.Error(1)
}

type MockSpeechSynthesizer struct {
	mock.Mock
}

func (m *MockSpeechSynthesizer) Synthesize(ctx context.Context, text string) (PCMAudio, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(PCMAudio), args.Error(1)
}

func testPCM() PCMAudio {
	audio := DefaultPCMFormat
	audio.Data = []byte{0, 1, 2, 3}
	return audio
}

func newTestAssistant(t *testing.T, provider LLMProvider, speech SpeechSynthesizer, opts ...AssistantOption) *Assistant {
	t.Helper()
	a, err := NewAssistant(provider, speech, opts...)
	require.NoError(t, err)
	return a
}

func TestAssistant_Respond(t *testing.T) {
	ctx := context.Background()
	provider := new(MockLLMProvider)
	speech := new(MockSpeechSynthesizer)
	a := newTestAssistant(t, provider, speech)

	provider.On("GetResponse", mock.Anything, mock.MatchedBy(func(messages []LLMMessage) bool {
		return len(messages) == 2 &&
			messages[0].Role == SystemRole &&
			strings.Contains(messages[0].Text, "Kamba") &&
			strings.Contains(messages[0].Text, "Angolan Portuguese") &&
			messages[1].Role == UserRole &&
			strings.Contains(messages[1].Text, `"Qual é o prato típico?"`) &&
			!strings.Contains(messages[1].Text, "image") &&
			messages[1].Attachment == ""
	}), NewRequestConfig()).Return(LLMResponse{Text: " É a muamba de galinha. "}, nil).Once()
	speech.On("Synthesize", mock.Anything, "É a muamba de galinha.").Return(testPCM(), nil).Once()

	result, err := a.Respond(ctx, "Qual é o prato típico?", "")

	require.NoError(t, err)
	assert.Equal(t, "É a muamba de galinha.", result.Text)
	audio, err := ParseDataURI(result.Audio)
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", audio.MIMEType)
	assert.Len(t, audio.Data, 44+4)
	provider.AssertExpectations(t)
	speech.AssertExpectations(t)
}

func TestAssistant_Respond_WithImage(t *testing.T) {
	provider := new(MockLLMProvider)
	speech := new(MockSpeechSynthesizer)
	a := newTestAssistant(t, provider, speech)
	image := DataURI{MIMEType: "image/jpeg", Data: []byte("jpeg")}.String()

	provider.On("GetResponse", mock.Anything, mock.MatchedBy(func(messages []LLMMessage) bool {
		return len(messages) == 2 &&
			messages[1].Attachment == image &&
			strings.Contains(messages[1].Text, "provided an image")
	}), mock.Anything).Return(LLMResponse{Text: "É a Fortaleza de São Miguel."}, nil).Once()
	speech.On("Synthesize", mock.Anything, mock.Anything).Return(testPCM(), nil).Once()

	result, err := a.Respond(context.Background(), "Onde é isto?", image)

	require.NoError(t, err)
	assert.Equal(t, "É a Fortaleza de São Miguel.", result.Text)
	provider.AssertExpectations(t)
}

func TestAssistant_Respond_Errors(t *testing.T) {
	providerErr := errors.New("quota exceeded")

	tests := []struct {
		name       string
		attachment string
		speech     func() SpeechSynthesizer
		response   LLMResponse
		respErr    error
		wantErr    error
	}{
		{
			name:     "empty text",
			response: LLMResponse{Text: "   "},
			wantErr:  ErrEmptyResponse,
		},
		{
			name:    "provider failure",
			respErr: providerErr,
			wantErr: providerErr,
		},
		{
			name:     "no audio",
			response: LLMResponse{Text: "Olá"},
			speech: func() SpeechSynthesizer {
				s := new(MockSpeechSynthesizer)
				s.On("Synthesize", mock.Anything, mock.Anything).Return(DefaultPCMFormat, nil)
				return s
			},
			wantErr: ErrNoAudio,
		},
		{
			name:     "no synthesizer",
			response: LLMResponse{Text: "Olá"},
			speech:   func() SpeechSynthesizer { return nil },
			wantErr:  ErrNoAudio,
		},
		{
			name:       "malformed attachment",
			attachment: "data:image/png,raw",
			wantErr:    ErrInvalidDataURI,
		},
		{
			name:       "attachment is not an image",
			attachment: "data:application/pdf;base64,cGRm",
			wantErr:    ErrInvalidDataURI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(MockLLMProvider)
			provider.On("GetResponse", mock.Anything, mock.Anything, mock.Anything).Return(tt.response, tt.respErr).Maybe()

			var speech SpeechSynthesizer = new(MockSpeechSynthesizer)
			if tt.speech != nil {
				speech = tt.speech()
			}
			a := newTestAssistant(t, provider, speech)

			_, err := a.Respond(context.Background(), "Olá", tt.attachment)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAssistant_RequestTimeout(t *testing.T) {
	provider := new(MockLLMProvider)
	a := newTestAssistant(t, provider, SilentSpeechSynthesizer{}, WithRequestTimeout(time.Minute))

	provider.On("GetResponse", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Minute
	}), mock.Anything, mock.Anything).Return(LLMResponse{Text: "Olá"}, nil).Once()

	_, err := a.Respond(context.Background(), "Olá", "")
	require.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestAssistant_SuggestQuickReplies(t *testing.T) {
	transcript := "assistant: Olá!\nuser: Fala-me de Luanda\nassistant: Luanda é a capital."

	tests := []struct {
		name     string
		response string
		want     []string
		wantErr  bool
	}{
		{
			name:     "fenced json",
			response: "```json\n{\"suggestions\": [\"Conta-me mais\", \"E Benguela?\"]}\n```",
			want:     []string{"Conta-me mais", "E Benguela?"},
		},
		{
			name:     "count is not enforced",
			response: `{"suggestions": ["Sim", "Não", "Talvez", "  "]}`,
			want:     []string{"Sim", "Não", "Talvez"},
		},
		{
			name:     "wrong shape",
			response: `{"replies": ["Sim"]}`,
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(MockLLMProvider)
			provider.On("GetResponse", mock.Anything, mock.MatchedBy(func(messages []LLMMessage) bool {
				return len(messages) == 1 &&
					strings.Contains(messages[0].Text, transcript) &&
					strings.Contains(messages[0].Text, "suggest 2 quick reply options")
			}), mock.MatchedBy(func(config LLMRequestConfig) bool {
				return config.ResponseFormat == ResponseFormatJSON
			})).Return(LLMResponse{Text: tt.response}, nil).Once()

			a := newTestAssistant(t, provider, nil)
			suggestions, err := a.SuggestQuickReplies(context.Background(), transcript)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, suggestions)
			provider.AssertExpectations(t)
		})
	}
}

func TestAssistant_GenerateTitle(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  error
	}{
		{name: "plain title", response: `{"title": "Música Angolana"}`, want: "Música Angolana"},
		{name: "prefix stripped", response: `{"title": "Conversa sobre: Semba"}`, want: "Semba"},
		{name: "only the prefix", response: `{"title": "Conversa sobre"}`, wantErr: ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(MockLLMProvider)
			provider.On("GetResponse", mock.Anything, mock.MatchedBy(func(messages []LLMMessage) bool {
				return strings.Contains(messages[0].Text, "3-5 words") &&
					strings.Contains(messages[0].Text, "user: Olá")
			}), mock.Anything).Return(LLMResponse{Text: tt.response}, nil).Once()

			a := newTestAssistant(t, provider, nil)
			title, err := a.GenerateTitle(context.Background(), "user: Olá")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, title)
		})
	}
}

func TestAssistant_GenerateTitle_ProviderError(t *testing.T) {
	provider := new(MockLLMProvider)
	provider.On("GetResponse", mock.Anything, mock.Anything, mock.Anything).Return(LLMResponse{}, context.DeadlineExceeded)

	a := newTestAssistant(t, provider, nil)
	_, err := a.GenerateTitle(context.Background(), "user: Olá")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCleanTitle(t *testing.T) {
	tests := map[string]string{
		"Cultura de Angola":           "Cultura de Angola",
		"  Cultura de Angola  ":       "Cultura de Angola",
		"Conversa sobre Kuduro":       "Kuduro",
		"conversa sobre: Kuduro":      "Kuduro",
		`"Praias do Mussulo"`:         "Praias do Mussulo",
		"Conversas sobre a história":  "Conversas sobre a história",
	}
	for input, want := range tests {
		assert.Equal(t, want, cleanTitle(input), input)
	}
}
