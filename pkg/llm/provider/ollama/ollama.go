// Package ollama implements llm.Client against a local Ollama server's
// /api/chat endpoint. Streaming responses are newline-delimited JSON.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/storysprout/pkg/llm"
)

const (
	// Name is the canonical backend name.
	Name = "ollama"

	// DefaultModel is used when no model is configured.
	DefaultModel = "llama3.2"

	// DefaultBaseURL is the address of a default local Ollama install.
	DefaultBaseURL = "http://localhost:11434"

	chatPath = "/api/chat"
)

// Client talks to Ollama over plain HTTP. No credentials are needed.
type Client struct {
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

var _ llm.Client = (*Client)(nil)

// New returns a Client.
func New(cfg llm.BackendConfig) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxTokens:  cfg.ResolveMaxTokens(),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	return c
}

// Name returns "ollama".
func (c *Client) Name() string {
	return Name
}

// Generate performs a non-streaming chat call.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest) (llm.Generation, error) {
	httpResp, err := c.do(ctx, req, false)
	if err != nil {
		return llm.Generation{}, err
	}
	defer httpResp.Body.Close()

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return llm.Generation{}, &llm.BackendError{Backend: Name, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.Error != "" {
		return llm.Generation{}, &llm.BackendError{Backend: Name, Err: errors.New(resp.Error)}
	}

	return llm.Generation{Text: resp.Message.Content, Provider: Name}, nil
}

// Stream starts a streaming chat call.
func (c *Client) Stream(ctx context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	httpResp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &stream{body: httpResp.Body, scanner: scanner}, nil
}

func (c *Client) do(ctx context.Context, req llm.GenerationRequest, streaming bool) (*http.Response, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserMessage})

	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   streaming,
		Options:  &chatOptions{NumPredict: c.maxTokens},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.BackendError{Backend: Name, Err: err}
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64*1024))

		msg := strings.TrimSpace(string(raw))
		var errResp chatResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		if msg == "" {
			msg = http.StatusText(httpResp.StatusCode)
		}
		return nil, &llm.BackendError{Backend: Name, StatusCode: httpResp.StatusCode, Err: errors.New(msg)}
	}

	return httpResp, nil
}

type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	done      bool
	closeOnce sync.Once
}

func (s *stream) Next() (string, error) {
	for !s.done && s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.done = true
			return "", &llm.BackendError{Backend: Name, Err: fmt.Errorf("decoding chunk: %w", err)}
		}
		if chunk.Error != "" {
			s.done = true
			return "", &llm.BackendError{Backend: Name, Err: errors.New(chunk.Error)}
		}
		if chunk.Done {
			s.done = true
		}
		if chunk.Message.Content != "" {
			return chunk.Message.Content, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		s.done = true
		return "", &llm.BackendError{Backend: Name, Err: err}
	}
	s.done = true
	return "", io.EOF
}

func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
