// Package groq is the cloud inference provider, speaking the
// OpenAI-compatible chat completions API hosted by Groq.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

var _ engine.Engine = (*Client)(nil)

// Client communicates with the Groq chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client with the given API key.
func New(apiKey string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 0},
	}
}

// NewWithBaseURL overrides the API endpoint, used in tests.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []engine.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message engine.Message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Generate sends messages to the given model and returns the response text.
func (c *Client) Generate(ctx context.Context, model string, messages []engine.Message) (string, error) {
	if c.apiKey == "" {
		return "", engine.ProviderError("generate", fmt.Errorf("groq API key is not configured"))
	}

	body, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", engine.ProviderError("generate", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", engine.ProviderError("generate", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", engine.WrapError("generate", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", engine.ProviderError("generate", fmt.Errorf("decoding response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return "", engine.ProviderError("generate", fmt.Errorf("groq: %s (%s)", result.Error.Message, result.Error.Type))
		}
		return "", engine.ProviderError("generate", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if len(result.Choices) == 0 {
		return "", engine.ProviderError("generate", fmt.Errorf("empty choices array"))
	}
	return result.Choices[0].Message.Content, nil
}

// Embed is not offered by the Groq API.
func (c *Client) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	return nil, engine.ProviderError("embed", fmt.Errorf("groq does not support embeddings"))
}

// IsRunning returns true if the configured key can reach the models endpoint.
func (c *Client) IsRunning(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
