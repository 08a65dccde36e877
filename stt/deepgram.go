// Package stt provides streaming speech-recognition clients. Deepgram over
// a WebSocket is the default backend; Google Cloud Speech is available for
// deployments without Deepgram credentials.
package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/careplus-labs/voice-relay/config"
	"github.com/careplus-labs/voice-relay/interfaces"
)

const deepgramListenURL = "wss://api.deepgram.com/v1/listen"

// DeepgramClient is a live transcription connection for one session.
type DeepgramClient struct {
	conn    *websocket.Conn
	events  chan interfaces.TranscriptEvent
	errs    chan error
	writeMu sync.Mutex
	logger  *zap.Logger
}

// DialDeepgram opens the streaming connection. A dial failure is a
// session-level fatal error; the caller aborts session setup.
func DialDeepgram(ctx context.Context, cfg *config.DeepgramConfig, logger *zap.Logger) (*DeepgramClient, error) {
	u := buildListenURL(cfg)
	header := http.Header{"Authorization": []string{"Token " + cfg.APIKey}}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("could not connect to deepgram (status %s): %w", resp.Status, err)
		}
		return nil, fmt.Errorf("could not connect to deepgram: %w", err)
	}

	c := &DeepgramClient{
		conn:   conn,
		events: make(chan interfaces.TranscriptEvent, 16),
		errs:   make(chan error, 1),
		logger: logger,
	}
	go c.readLoop()
	return c, nil
}

func buildListenURL(cfg *config.DeepgramConfig) string {
	params := url.Values{}
	params.Set("encoding", cfg.Encoding)
	params.Set("sample_rate", strconv.Itoa(cfg.SampleRate))
	params.Set("channels", strconv.Itoa(cfg.Channels))
	params.Set("model", cfg.Model)
	params.Set("language", cfg.Language)
	params.Set("punctuate", strconv.FormatBool(cfg.Punctuate))
	params.Set("interim_results", strconv.FormatBool(cfg.InterimResults))
	params.Set("endpointing", strconv.Itoa(cfg.Endpointing))
	return deepgramListenURL + "?" + params.Encode()
}

// deepgramResponse is the subset of the live transcription message the
// relay cares about.
type deepgramResponse struct {
	IsFinal bool `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// parseTranscript extracts a transcript event from one Deepgram message.
// Messages without alternatives (metadata, keepalives) yield ok=false.
func parseTranscript(data []byte) (interfaces.TranscriptEvent, bool) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return interfaces.TranscriptEvent{}, false
	}
	if len(resp.Channel.Alternatives) == 0 {
		return interfaces.TranscriptEvent{}, false
	}
	return interfaces.TranscriptEvent{
		Text:    resp.Channel.Alternatives[0].Transcript,
		IsFinal: resp.IsFinal,
	}, true
}

func (c *DeepgramClient) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.errs <- fmt.Errorf("deepgram read failed: %w", err)
			return
		}
		if ev, ok := parseTranscript(data); ok {
			c.events <- ev
		}
	}
}

// SendAudio forwards one chunk of browser audio upstream.
func (c *DeepgramClient) SendAudio(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Events returns the transcript stream. The channel closes when the
// upstream connection ends.
func (c *DeepgramClient) Events() <-chan interfaces.TranscriptEvent {
	return c.events
}

func (c *DeepgramClient) Errors() <-chan error {
	return c.errs
}

// Close tells Deepgram the stream is over and tears down the connection.
func (c *DeepgramClient) Close() error {
	c.writeMu.Lock()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		c.logger.Debug("deepgram close message failed", zap.Error(err))
	}
	c.writeMu.Unlock()
	return c.conn.Close()
}
