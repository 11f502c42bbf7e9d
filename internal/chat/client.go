// Package chat forwards a conversation, primed with the user's finances, to an
// OpenAI-compatible chat-completion endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finstress/internal/models"
)

var (
	ErrMissingAPIKey   = errors.New("API key is not configured: set FINSTRESS_CHAT_APIKEY")
	ErrMissingEndpoint = errors.New("API endpoint is not configured: set FINSTRESS_CHAT_URL")
	ErrEmptyReply      = errors.New("the API returned no reply")
)

// Config holds the chat-completion settings.
type Config struct {
	EndpointURL string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Message is one wire message.
type Message struct {
	Role    models.Role `json:"role"`
	Content string      `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error communicating with the API (status %d)", e.StatusCode)
}

// Completer produces the assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client calls the chat-completion endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	u, err := url.Parse(cfg.EndpointURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrMissingEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	// Zero timeout means the request is bounded only by ctx.
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}, nil
}

// Complete sends messages and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &StatusError{StatusCode: res.StatusCode, Body: string(raw)}
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	return out.Choices[0].Message.Content, nil
}
