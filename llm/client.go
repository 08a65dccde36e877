// Package llm is the completion collaborator: an OpenAI-compatible chat
// completions client producing one candidate assistant reply per turn.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/careplus-labs/voice-relay/config"
	"github.com/careplus-labs/voice-relay/conversation"
)

const defaultBaseURL = "https://api.openai.com/v1/chat/completions"

type Client struct {
	httpClient  *http.Client
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

func NewClient(cfg *config.OpenAIConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		BaseURL:     defaultBaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Complete sends the filtered turn history and returns the raw assistant
// reply. Any failure aborts the caller's turn; there is no retry.
func (c *Client) Complete(ctx context.Context, turns []conversation.Turn) (string, error) {
	messages := make([]message, len(turns))
	for i, t := range turns {
		messages[i] = message{Role: string(t.Role), Content: t.Content}
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send completion request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion API returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
