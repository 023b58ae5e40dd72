package kamba

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAISpeechSynthesizer_Synthesize(t *testing.T) {
	pcm := string([]byte{0x01, 0x00, 0xff, 0x7f})
	transport := &recordingTransport{status: http.StatusOK, body: pcm, contentType: "application/octet-stream"}
	synth := NewOpenAISpeechSynthesizer(OpenAISpeechConfig{Client: newTestOpenAIClient(transport)})

	audio, err := synth.Synthesize(context.Background(), "Olá, mundo")

	require.NoError(t, err)
	assert.Equal(t, []byte(pcm), audio.Data)
	assert.Equal(t, 24000, audio.SampleRate)
	assert.Equal(t, 1, audio.Channels)
	assert.Equal(t, 2, audio.SampleWidth)

	require.Len(t, transport.bodies, 1)
	assert.True(t, strings.HasSuffix(transport.paths[0], "/audio/speech"))
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &sent))
	assert.Equal(t, "tts-1", sent["model"])
	assert.Equal(t, "alloy", sent["voice"])
	assert.Equal(t, "pcm", sent["response_format"])
	assert.Equal(t, "Olá, mundo", sent["input"])
}

func TestOpenAISpeechSynthesizer_Error(t *testing.T) {
	transport := &recordingTransport{status: http.StatusUnauthorized, body: `{"error": {"message": "bad key"}}`}
	synth := NewOpenAISpeechSynthesizer(OpenAISpeechConfig{Client: newTestOpenAIClient(transport), Voice: "nova"})

	_, err := synth.Synthesize(context.Background(), "Olá")
	assert.Error(t, err)
}

func TestSilentSpeechSynthesizer(t *testing.T) {
	audio, err := SilentSpeechSynthesizer{Duration: 0.5}.Synthesize(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Len(t, audio.Data, 12000*2)

	audio, err = SilentSpeechSynthesizer{}.Synthesize(context.Background(), "ignored")
	require.NoError(t, err)
	assert.NotEmpty(t, audio.Data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SilentSpeechSynthesizer{}.Synthesize(ctx, "ignored")
	assert.ErrorIs(t, err, context.Canceled)
}
