// Package gemini implements llm.Client for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Streaming uses the SDK's
// iter.Seq2 iterator, converted into the pull-based llm.Stream.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/papercomputeco/storysprout/pkg/llm"
)

const (
	// Name is the canonical backend name.
	Name = "gemini"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash"

	// APIKeyEnv is the conventional environment variable for the key.
	APIKeyEnv = "GEMINI_API_KEY"
)

// Client implements llm.Client on top of a genai client.
type Client struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

var _ llm.Client = (*Client)(nil)

// New creates a Client. A missing API key yields a *llm.ConfigurationError.
func New(ctx context.Context, cfg llm.BackendConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &llm.ConfigurationError{Backend: Name, Setting: APIKeyEnv}
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:    gc,
		model:     model,
		maxTokens: int32(cfg.ResolveMaxTokens()),
	}, nil
}

// Name returns "gemini".
func (c *Client) Name() string {
	return Name
}

// Generate performs a blocking GenerateContent call.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Generation, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.UserMessage), c.config(req))
	if err != nil {
		return llm.Generation{}, wrapError(err)
	}

	return llm.Generation{Text: resp.Text(), Provider: Name}, nil
}

// Stream starts a streaming GenerateContent call.
func (c *Client) Stream(ctx context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	seq := c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(req.UserMessage), c.config(req))
	return newStream(seq), nil
}

func (c *Client) config(req llm.GenerationRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: c.maxTokens,
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	return cfg
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.BackendError{Backend: Name, StatusCode: apiErr.Code, Err: err}
	}
	return &llm.BackendError{Backend: Name, Err: err}
}
