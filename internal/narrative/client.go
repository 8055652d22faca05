package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ClientConfig configures the completion API client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Referer string
	Title   string
	Timeout time.Duration
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	http   *resty.Client
	model  string
	logger *zap.Logger
}

// NewClient returns a client with a bounded per-request timeout.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Referer != "" {
		rc.SetHeader("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		rc.SetHeader("X-Title", cfg.Title)
	}
	return &Client{http: rc, model: cfg.Model, logger: logger}
}

// Complete sends the prompt and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   800,
		Temperature: 0.7,
	}

	var out completionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("call completion api: %w", err)
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn("completion api returned non-success status",
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", fmt.Errorf("completion api status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("completion api returned no content")
	}
	return out.Choices[0].Message.Content, nil
}
