package kamba

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openai/openai-go"
)

// SpeechSynthesizer turns assistant text into raw PCM audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (PCMAudio, error)
}

// OpenAISpeechSynthesizer uses the OpenAI speech endpoint with PCM output
// (24 kHz, mono, 16-bit little endian).
type OpenAISpeechSynthesizer struct {
	client OpenAIClientProvider
	model  openai.SpeechModel
	voice  string
}

// OpenAISpeechConfig holds the configuration of an OpenAISpeechSynthesizer.
type OpenAISpeechConfig struct {
	Client OpenAIClientProvider
	Model  openai.SpeechModel
	Voice  string
}

// NewOpenAISpeechSynthesizer defaults to the tts-1 model and the alloy voice.
func NewOpenAISpeechSynthesizer(config OpenAISpeechConfig) *OpenAISpeechSynthesizer {
	if config.Model == "" {
		config.Model = openai.SpeechModelTTS1
	}
	if config.Voice == "" {
		config.Voice = "alloy"
	}
	return &OpenAISpeechSynthesizer{
		client: config.Client,
		model:  config.Model,
		voice:  config.Voice,
	}
}

// Synthesize implements SpeechSynthesizer.
func (s *OpenAISpeechSynthesizer) Synthesize(ctx context.Context, text string) (PCMAudio, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.AudioSpeechNewParams{
		Input:          openai.F(text),
		Model:          openai.F(s.model),
		Voice:          openai.F(openai.AudioSpeechNewParamsVoice(s.voice)),
		ResponseFormat: openai.F(openai.AudioSpeechNewParamsResponseFormatPCM),
	})
	if err != nil {
		return PCMAudio{}, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PCMAudio{}, fmt.Errorf("openai speech request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return PCMAudio{}, fmt.Errorf("failed to read speech audio: %w", err)
	}

	audio := DefaultPCMFormat
	audio.Data = data
	return audio, nil
}

// SilentSpeechSynthesizer returns a short stretch of silence. It lets the assistant run
// without a speech backend.
type SilentSpeechSynthesizer struct {
	Duration float64 // seconds
}

// Synthesize implements SpeechSynthesizer.
func (s SilentSpeechSynthesizer) Synthesize(ctx context.Context, _ string) (PCMAudio, error) {
	if err := ctx.Err(); err != nil {
		return PCMAudio{}, err
	}
	duration := s.Duration
	if duration <= 0 {
		duration = 0.1
	}
	audio := DefaultPCMFormat
	samples := int(duration * float64(audio.SampleRate))
	audio.Data = make([]byte, samples*audio.Channels*audio.SampleWidth)
	return audio, nil
}
