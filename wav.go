package kamba

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PCMAudio is raw little-endian PCM as produced by speech synthesis backends.
type PCMAudio struct {
	Data        []byte
	Channels    int
	SampleRate  int
	SampleWidth int // bytes per sample
}

// DefaultPCMFormat is the format the hosted TTS models emit: 24 kHz, mono, 16-bit.
var DefaultPCMFormat = PCMAudio{Channels: 1, SampleRate: 24000, SampleWidth: 2}

// EncodeWAV wraps the PCM payload in a RIFF/WAVE container.
func EncodeWAV(audio PCMAudio) ([]byte, error) {
	if audio.Channels <= 0 || audio.SampleRate <= 0 || audio.SampleWidth <= 0 {
		return nil, fmt.Errorf("invalid PCM format: channels=%d rate=%d width=%d", audio.Channels, audio.SampleRate, audio.SampleWidth)
	}

	dataSize := uint32(len(audio.Data))
	blockAlign := uint16(audio.Channels * audio.SampleWidth)
	byteRate := uint32(audio.SampleRate) * uint32(blockAlign)

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(audio.Data)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(audio.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(audio.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, uint16(audio.SampleWidth*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(audio.Data)

	return buf.Bytes(), nil
}

// WAVDataURI encodes PCM audio as an embeddable `data:audio/wav;base64,...` string.
func WAVDataURI(audio PCMAudio) (string, error) {
	wav, err := EncodeWAV(audio)
	if err != nil {
		return "", err
	}
	return DataURI{MIMEType: "audio/wav", Data: wav}.String(), nil
}
