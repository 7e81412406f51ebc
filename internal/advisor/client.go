package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel errors for advisor failures. Handlers map these to fallback
// behavior rather than surfacing raw provider errors to clients.
var (
	ErrNotConfigured = errors.New("advisor: no API key configured")
	ErrTimeout       = errors.New("advisor: request timed out")
	ErrTransport     = errors.New("advisor: transport failure")
	ErrUnavailable   = errors.New("advisor: service unavailable")
	ErrEmptyResponse = errors.New("advisor: empty response")
)

const defaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"

// Client generates text completions from an external language model.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// GroqClient talks to the Groq OpenAI-compatible chat completions API.
type GroqClient struct {
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64

	baseURL    string       // For testing - defaults to the Groq API
	httpClient *http.Client // For testing - defaults to http.DefaultClient
}

// NewGroqClient creates a client for the Groq chat completions API.
func NewGroqClient(model, apiKey string, maxTokens int, temperature float64) *GroqClient {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &GroqClient{
		Model:       model,
		APIKey:      apiKey,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		baseURL:     defaultBaseURL,
	}
}

// NewGroqClientWithHTTP creates a client with custom HTTP client and base URL (for testing).
func NewGroqClientWithHTTP(model, apiKey, baseURL string, client *http.Client) *GroqClient {
	c := NewGroqClient(model, apiKey, 1024, 0.7)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	c.httpClient = client
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends a chat completion request and returns the first choice's content.
func (c *GroqClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", ErrNotConfigured
	}

	messages := []chatMessage{}
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: status %s", ErrUnavailable, resp.Status)
		}
		return "", fmt.Errorf("%w: status %s", ErrTransport, resp.Status)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}
