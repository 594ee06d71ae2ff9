// Package llm invokes an OpenAI-compatible chat-completions backend in
// structured-output mode. The credential is instance state passed in at
// construction, never read from ambient process state by the client itself.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Invocation failure sentinels. RateLimited and Timeout are transient and
// retried; the rest are fatal and surfaced immediately.
var (
	ErrUnauthorized  = errors.New("llm: unauthorized")
	ErrRateLimited   = errors.New("llm: rate limited")
	ErrTimeout       = errors.New("llm: attempt timed out")
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrUnknown       = errors.New("llm: request failed")
)

// Config configures a Client.
type Config struct {
	// APIKey authenticates against the completion backend. Required.
	APIKey string

	// BaseURL of the OpenAI-compatible API. Default: https://api.openai.com/v1.
	BaseURL string `yaml:"base_url"`

	// Model name. Default: gpt-4o.
	Model string `yaml:"model"`

	// MaxRetries bounds retry attempts after the first call. Default: 3.
	MaxRetries int `yaml:"max_retries"`

	// RetryBase is the backoff unit; attempt n waits base<<n plus jitter.
	// Default: 500ms.
	RetryBase time.Duration `yaml:"retry_base"`

	// AttemptTimeout bounds each individual outbound call. Default: 60s.
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client `yaml:"-"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 60 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client calls the chat-completions endpoint.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Client. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	cfg.defaults()
	return &Client{cfg: cfg, logger: cfg.Logger}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the completion text. Structured
// output mode (json_object) is always requested; free-form prose responses
// are not trusted downstream. Transient failures are retried with
// exponential backoff and jitter up to MaxRetries.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff(c.cfg.RetryBase, attempt)
			c.logger.Debug("llm retry", "attempt", attempt, "wait", wait, "cause", lastErr)
			if err := sleepCtx(ctx, wait); err != nil {
				return "", err
			}
		}

		content, err := c.attempt(ctx, prompt)
		if err == nil {
			return content, nil
		}
		if err := ctx.Err(); err != nil {
			// Parent cancelled or deadline passed; do not retry.
			return "", err
		}
		if !transient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("llm: retries exhausted: %w", lastErr)
}

func (c *Client) attempt(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrUnknown, err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUnknown, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUnknown, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: status 429", ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d", ErrUnknown, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnknown, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

func transient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// backoff returns base<<attempt plus up to 50% uniform jitter.
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << uint(attempt-1)
	return d + rand.N(d/2+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
