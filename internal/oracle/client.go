// Package oracle calls an external reasoning service to verify whether a
// set of artist name variants refers to the same entity. The client fails
// soft: callers treat any error as "could not verify".
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vibeset.fm/catalog/internal/dedup"
)

const (
	// DefaultEndpoint points to a local OpenAI-compatible endpoint.
	DefaultEndpoint = "http://127.0.0.1:11434/v1"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 512
)

// Config holds the oracle connection settings.
type Config struct {
	Endpoint    string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	endpointURL string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	client      *http.Client
	logger      zerolog.Logger
}

// NewClient builds a Client for the given configuration.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpointURL: chatCompletionsURL(endpoint),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "oracle").Logger(),
	}
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Verify asks the oracle whether the given name variants refer to one
// artist. Transport failures, non-JSON output, and out-of-contract field
// types all surface as an error; callers treat errors as "could not
// verify" and fall back to internal confidence.
func (c *Client) Verify(ctx context.Context, names []string) (*dedup.Verdict, error) {
	if c == nil {
		return nil, fmt.Errorf("oracle client is nil")
	}

	variants := make([]string, 0, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			variants = append(variants, trimmed)
		}
	}
	if len(variants) < 2 {
		return nil, fmt.Errorf("at least two name variants are required")
	}

	content, err := c.complete(ctx, buildVerifyPrompt(variants))
	if err != nil {
		return nil, err
	}

	verdict, err := parseVerdict(content, c.logger)
	if err != nil {
		return nil, fmt.Errorf("parse oracle verdict: %w", err)
	}
	return verdict, nil
}

// GenerateAliases asks the oracle for known alternate spellings of a
// single artist name. The returned list starts with the proposed primary
// alias.
func (c *Client) GenerateAliases(ctx context.Context, name string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("oracle client is nil")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("artist name is required")
	}

	content, err := c.complete(ctx, buildAliasPrompt(trimmed))
	if err != nil {
		return nil, err
	}

	aliases, err := parseAliasList(content)
	if err != nil {
		return nil, fmt.Errorf("parse oracle alias list: %w", err)
	}
	return aliases, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal oracle request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build oracle request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send oracle request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read oracle response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload chatErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return "", fmt.Errorf("oracle endpoint status %d: %s", resp.StatusCode, msg)
			}
		}
		return "", fmt.Errorf("oracle endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("oracle response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("oracle response was empty")
	}

	c.logger.Debug().
		Int64("latency_ms", time.Since(started).Milliseconds()).
		Msg("oracle call completed")

	return content, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func chatCompletionsURL(endpoint string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if strings.HasSuffix(trimmed, "/chat/completions") {
		return trimmed
	}
	return trimmed + "/chat/completions"
}
