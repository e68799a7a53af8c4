// Package anthropic implements llm.Client against the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/sse"
)

const (
	// Name is the canonical backend name.
	Name = "anthropic"

	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5-20250929"

	// APIKeyEnv is the conventional environment variable for the key.
	APIKeyEnv = "ANTHROPIC_API_KEY"

	defaultBaseURL = "https://api.anthropic.com"
	messagesPath   = "/v1/messages"
	apiVersion     = "2023-06-01"
)

// Client talks to the Messages API over plain HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

var _ llm.Client = (*Client)(nil)

// New returns a Client. A missing API key yields a *llm.ConfigurationError.
func New(cfg llm.BackendConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &llm.ConfigurationError{Backend: Name, Setting: APIKeyEnv}
	}

	c := &Client{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		maxTokens: cfg.ResolveMaxTokens(),
		httpClient: &http.Client{
			// Generations can be slow; streaming bodies are bounded by ctx.
			Timeout: 5 * time.Minute,
		},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}

	return c, nil
}

// Name returns "anthropic".
func (c *Client) Name() string {
	return Name
}

// Generate performs a non-streaming Messages call and joins every text
// content block.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Generation, error) {
	httpResp, err := c.do(ctx, req, false)
	if err != nil {
		return llm.Generation{}, err
	}
	defer httpResp.Body.Close()

	var resp messagesResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return llm.Generation{}, &llm.BackendError{Backend: Name, Err: fmt.Errorf("decoding response: %w", err)}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return llm.Generation{Text: text.String(), Provider: Name}, nil
}

// Stream starts a streaming Messages call. Only text deltas are surfaced.
func (c *Client) Stream(ctx context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	httpResp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}

	return &stream{
		body:   httpResp.Body,
		reader: sse.NewReader(httpResp.Body),
	}, nil
}

func (c *Client) do(ctx context.Context, req llm.GenerationRequest, streaming bool) (*http.Response, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    req.SystemPrompt,
		Messages:  []message{{Role: "user", Content: req.UserMessage}},
		Stream:    streaming,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)
	if streaming {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.BackendError{Backend: Name, Err: err}
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		return nil, parseHTTPError(httpResp)
	}

	return httpResp, nil
}

func parseHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	msg := strings.TrimSpace(string(raw))
	var errResp errorResponse
	if err := json.Unmarshal(raw, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &llm.BackendError{Backend: Name, StatusCode: resp.StatusCode, Err: errors.New(msg)}
}
