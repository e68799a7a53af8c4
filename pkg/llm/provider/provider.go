// Package provider selects and lazily constructs the LLM backend used to
// generate story beats.
package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/storysprout/pkg/llm/provider/gemini"
	"github.com/papercomputeco/storysprout/pkg/llm/provider/ollama"
	"github.com/papercomputeco/storysprout/pkg/llm/provider/openai"
)

// Backend names.
const (
	Anthropic = anthropic.Name
	OpenAI    = openai.Name
	Gemini    = gemini.Name
	Ollama    = ollama.Name

	// Default is selected when no backend, or an unknown one, is configured.
	Default = Anthropic
)

// SupportedProviders returns the list of supported backend names.
func SupportedProviders() []string {
	return []string{Anthropic, OpenAI, Gemini, Ollama}
}

// Resolve normalises name to a supported backend, falling back to Default.
func Resolve(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range SupportedProviders() {
		if p == name {
			return p
		}
	}
	return Default
}

// Config carries the backend selection and per-backend settings.
type Config struct {
	// Selected is the backend name. Empty or unknown selects Default.
	Selected string

	Anthropic llm.BackendConfig
	OpenAI    llm.BackendConfig
	Gemini    llm.BackendConfig
	Ollama    llm.BackendConfig
}

// New constructs the named backend directly.
func New(ctx context.Context, name string, cfg Config) (llm.Client, error) {
	switch Resolve(name) {
	case OpenAI:
		return openai.New(cfg.OpenAI)
	case Gemini:
		return gemini.New(ctx, cfg.Gemini)
	case Ollama:
		return ollama.New(cfg.Ollama), nil
	default:
		return anthropic.New(cfg.Anthropic)
	}
}

// Registry holds the process-wide backend handle. The handle is created on
// first use and reused for the registry's lifetime, including a
// construction error.
type Registry struct {
	name string
	cfg  Config

	once   sync.Once
	client llm.Client
	err    error

	// build is swapped in tests.
	build func(ctx context.Context, name string, cfg Config) (llm.Client, error)
}

// NewRegistry returns a Registry for cfg. No backend is contacted or
// constructed until Active is used.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		name:  Resolve(cfg.Selected),
		cfg:   cfg,
		build: New,
	}
}

// Name returns the resolved backend name.
func (r *Registry) Name() string {
	return r.name
}

// Active returns a client bound to the selected backend. The returned
// client defers construction of the real backend to its first call.
func (r *Registry) Active() llm.Client {
	return &lazyClient{registry: r}
}

func (r *Registry) get(ctx context.Context) (llm.Client, error) {
	r.once.Do(func() {
		// The handle outlives the request that triggers construction.
		r.client, r.err = r.build(context.WithoutCancel(ctx), r.name, r.cfg)
	})
	return r.client, r.err
}

type lazyClient struct {
	registry *Registry
}

func (c *lazyClient) Name() string {
	return c.registry.name
}

func (c *lazyClient) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Generation, error) {
	client, err := c.registry.get(ctx)
	if err != nil {
		return llm.Generation{}, err
	}
	return client.Generate(ctx, req)
}

func (c *lazyClient) Stream(ctx context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	client, err := c.registry.get(ctx)
	if err != nil {
		return nil, err
	}
	return client.Stream(ctx, req)
}
