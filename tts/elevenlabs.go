package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/careplus-labs/voice-relay/config"
	"github.com/careplus-labs/voice-relay/sentence"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	// streamReadSize matches the frame size the browser player consumes.
	streamReadSize = 4096
	// maxChunkChars keeps each synthesis request comfortably inside the
	// vendor's per-request text limit.
	maxChunkChars = 2500
)

// Client streams synthesized speech from ElevenLabs.
type Client struct {
	httpClient      *http.Client
	BaseURL         string
	APIKey          string
	VoiceID         string
	Model           string
	Stability       float64
	SimilarityBoost float64
}

// NewClient builds a synthesis client from config.
func NewClient(cfg *config.ElevenLabsConfig) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		BaseURL:         defaultBaseURL,
		APIKey:          cfg.APIKey,
		VoiceID:         cfg.VoiceID,
		Model:           cfg.Model,
		Stability:       cfg.Stability,
		SimilarityBoost: cfg.SimilarityBoost,
	}
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to speech and hands audio to emit in stream
// order. Long utterances are split on sentence boundaries so each request
// stays under the vendor limit; emit receives frames of all pieces
// back to back.
func (c *Client) Synthesize(ctx context.Context, text string, emit func([]byte) error) error {
	for _, piece := range sentence.Chunk(text, maxChunkChars) {
		if err := c.synthesizePiece(ctx, piece, emit); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) synthesizePiece(ctx context.Context, text string, emit func([]byte) error) error {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.Model,
		VoiceSettings: voiceSettings{
			Stability:       c.Stability,
			SimilarityBoost: c.SimilarityBoost,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", c.BaseURL, c.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("synthesis returned status %d: %s", resp.StatusCode, detail)
	}

	buf := make([]byte, streamReadSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, buf[:n])
			if emitErr := emit(frame); emitErr != nil {
				return fmt.Errorf("failed to deliver audio frame: %w", emitErr)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read synthesis stream: %w", err)
		}
	}
}
