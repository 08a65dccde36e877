package stt

import (
	"net/url"
	"testing"

	"github.com/careplus-labs/voice-relay/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeepgramConfig() *config.DeepgramConfig {
	return &config.DeepgramConfig{
		APIKey:         "dg-key",
		Model:          "nova-2-general",
		Language:       "en-US",
		Encoding:       "linear16",
		SampleRate:     16000,
		Channels:       1,
		Punctuate:      true,
		InterimResults: false,
		Endpointing:    1000,
	}
}

func TestBuildListenURL(t *testing.T) {
	raw := buildListenURL(testDeepgramConfig())

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "wss", u.Scheme)
	assert.Equal(t, "api.deepgram.com", u.Host)
	assert.Equal(t, "/v1/listen", u.Path)

	q := u.Query()
	assert.Equal(t, "linear16", q.Get("encoding"))
	assert.Equal(t, "16000", q.Get("sample_rate"))
	assert.Equal(t, "1", q.Get("channels"))
	assert.Equal(t, "nova-2-general", q.Get("model"))
	assert.Equal(t, "en-US", q.Get("language"))
	assert.Equal(t, "true", q.Get("punctuate"))
	assert.Equal(t, "false", q.Get("interim_results"))
	assert.Equal(t, "1000", q.Get("endpointing"))
}

func TestParseTranscript(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantOK   bool
		wantText string
		wantFin  bool
	}{
		{
			name:     "final transcript",
			payload:  `{"is_final":true,"channel":{"alternatives":[{"transcript":"I want a massage"}]}}`,
			wantOK:   true,
			wantText: "I want a massage",
			wantFin:  true,
		},
		{
			name:     "interim transcript",
			payload:  `{"is_final":false,"channel":{"alternatives":[{"transcript":"I want"}]}}`,
			wantOK:   true,
			wantText: "I want",
			wantFin:  false,
		},
		{
			name:     "empty final",
			payload:  `{"is_final":true,"channel":{"alternatives":[{"transcript":""}]}}`,
			wantOK:   true,
			wantText: "",
			wantFin:  true,
		},
		{
			name:    "metadata message",
			payload: `{"type":"Metadata","request_id":"abc"}`,
			wantOK:  false,
		},
		{
			name:    "malformed json",
			payload: `{not json`,
			wantOK:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := parseTranscript([]byte(tt.payload))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantText, ev.Text)
				assert.Equal(t, tt.wantFin, ev.IsFinal)
			}
		})
	}
}
