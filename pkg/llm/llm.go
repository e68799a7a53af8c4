// Package llm defines the provider-agnostic surface used to generate story
// beats. Concrete backends live under pkg/llm/provider.
package llm

import "context"

// GenerationRequest holds the prompts for one generation. It is passed by
// value and never mutated after construction.
type GenerationRequest struct {
	SystemPrompt string
	UserMessage  string
}

// Generation is the result of a blocking Generate call.
type Generation struct {
	// Text is the raw model output with no post-processing.
	Text string

	// Provider is the name of the backend that produced Text.
	Provider string
}

// Client is implemented by every backend.
type Client interface {
	// Name returns the canonical backend name (e.g. "anthropic", "openai").
	Name() string

	// Generate performs a single non-streaming round trip.
	Generate(ctx context.Context, req GenerationRequest) (Generation, error)

	// Stream starts a streaming generation. Fragments are pulled lazily from
	// the returned Stream.
	Stream(ctx context.Context, req GenerationRequest) (Stream, error)
}

// Stream yields text fragments from an in-flight generation.
type Stream interface {
	// Next blocks until the next text fragment is available. It returns
	// io.EOF once the backend signals the end of the response.
	Next() (string, error)

	// Close releases the underlying backend handle. It is safe to call more
	// than once and after Next has returned io.EOF.
	Close() error
}

// BackendConfig configures a single backend.
type BackendConfig struct {
	// APIKey is the credential sent to the backend. Required for hosted
	// backends.
	APIKey string

	// BaseURL overrides the backend's default endpoint.
	BaseURL string

	// Model overrides the backend's default model identifier.
	Model string

	// MaxTokens is the output token ceiling. Zero selects DefaultMaxTokens.
	MaxTokens int
}

// DefaultMaxTokens is the output token ceiling used when none is configured.
const DefaultMaxTokens = 1024

// ResolveMaxTokens returns c.MaxTokens or DefaultMaxTokens when unset.
func (c BackendConfig) ResolveMaxTokens() int {
	if c.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return c.MaxTokens
}

// ErrorResponse is the JSON error body returned by the HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
