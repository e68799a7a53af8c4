// Package openai implements llm.Client on the official openai-go SDK using
// the Chat Completions API.
package openai

import (
	"context"
	"errors"
	"io"
	"sync"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/papercomputeco/storysprout/pkg/llm"
)

const (
	// Name is the canonical backend name.
	Name = "openai"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// APIKeyEnv is the conventional environment variable for the key.
	APIKeyEnv = "OPENAI_API_KEY"
)

// Client wraps an SDK client bound to a single model.
type Client struct {
	sdk       openai.Client
	model     string
	maxTokens int64
}

var _ llm.Client = (*Client)(nil)

// New returns a Client. A missing API key yields a *llm.ConfigurationError.
// Extra request options are appended after the ones derived from cfg.
func New(cfg llm.BackendConfig, extra ...option.RequestOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &llm.ConfigurationError{Backend: Name, Setting: APIKeyEnv}
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		sdk:       openai.NewClient(opts...),
		model:     model,
		maxTokens: int64(cfg.ResolveMaxTokens()),
	}, nil
}

// Name returns "openai".
func (c *Client) Name() string {
	return Name
}

// Generate performs a blocking chat completion.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Generation, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, c.params(req))
	if err != nil {
		return llm.Generation{}, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Generation{}, &llm.BackendError{Backend: Name, Err: errors.New("empty choices")}
	}

	return llm.Generation{Text: resp.Choices[0].Message.Content, Provider: Name}, nil
}

// Stream starts a streaming chat completion. HTTP failures surface from the
// first call to Next.
func (c *Client) Stream(ctx context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	return &stream{
		sse: c.sdk.Chat.Completions.NewStreaming(ctx, c.params(req)),
	}, nil
}

func (c *Client) params(req llm.GenerationRequest) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.model),
		MaxTokens: openai.Int(c.maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserMessage),
		},
	}
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &llm.BackendError{Backend: Name, StatusCode: apiErr.StatusCode, Err: err}
	}
	return &llm.BackendError{Backend: Name, Err: err}
}

type stream struct {
	sse       *ssestream.Stream[openai.ChatCompletionChunk]
	closeOnce sync.Once
}

func (s *stream) Next() (string, error) {
	for s.sse.Next() {
		chunk := s.sse.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			return text, nil
		}
	}

	if err := s.sse.Err(); err != nil {
		return "", wrapError(err)
	}
	return "", io.EOF
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.sse.Close()
	})
	return err
}
