package kamba

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAV(t *testing.T) {
	audio := DefaultPCMFormat
	audio.Data = []byte{1, 2, 3, 4, 5, 6}

	wav, err := EncodeWAV(audio)
	require.NoError(t, err)
	require.Len(t, wav, 44+len(audio.Data))

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+6), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(wav[16:20]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "PCM format")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "channels")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]), "sample rate")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]), "bits per sample")
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, audio.Data, wav[44:])
}

func TestEncodeWAV_InvalidFormat(t *testing.T) {
	_, err := EncodeWAV(PCMAudio{Data: []byte{0}, Channels: 0, SampleRate: 24000, SampleWidth: 2})
	assert.Error(t, err)
}

func TestWAVDataURI(t *testing.T) {
	audio := DefaultPCMFormat
	audio.Data = make([]byte, 480)

	uri, err := WAVDataURI(audio)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:audio/wav;base64,"))

	decoded, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", decoded.MIMEType)
	assert.Len(t, decoded.Data, 44+480)
}
