package kamba

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantMIME  string
		wantData  []byte
		wantImage bool
		wantErr   bool
	}{
		{
			name:      "png image",
			uri:       "data:image/png;base64,iVBORw0KGgo=",
			wantMIME:  "image/png",
			wantData:  []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
			wantImage: true,
		},
		{
			name:     "wav audio",
			uri:      "data:audio/wav;base64,UklGRg==",
			wantMIME: "audio/wav",
			wantData: []byte("RIFF"),
		},
		{
			name:     "default mime type",
			uri:      "data:;base64,aGk=",
			wantMIME: "text/plain",
			wantData: []byte("hi"),
		},
		{name: "missing prefix", uri: "image/png;base64,aGk=", wantErr: true},
		{name: "missing comma", uri: "data:image/png;base64", wantErr: true},
		{name: "not base64 encoded", uri: "data:text/plain,hello", wantErr: true},
		{name: "bad payload", uri: "data:image/png;base64,***", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := ParseDataURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDataURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, uri.MIMEType)
			assert.Equal(t, tt.wantData, uri.Data)
			assert.Equal(t, tt.wantImage, uri.IsImage())
		})
	}
}

func TestDataURI_String(t *testing.T) {
	uri := DataURI{MIMEType: "image/jpeg", Data: []byte("jpeg-bytes")}

	encoded := uri.String()
	assert.Equal(t, "data:image/jpeg;base64,anBlZy1ieXRlcw==", encoded)

	decoded, err := ParseDataURI(encoded)
	require.NoError(t, err)
	assert.Equal(t, uri, decoded)
}
