package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/llm/provider/anthropic"
)

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		handler  http.HandlerFunc
		lastBody map[string]any
		lastHdr  http.Header
		client   *anthropic.Client
		ctx      context.Context
		req      llm.GenerationRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		req = llm.GenerationRequest{SystemPrompt: "be kind", UserMessage: "begin"}
		lastBody = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastHdr = r.Header.Clone()
			Expect(r.URL.Path).To(Equal("/v1/messages"))
			Expect(json.NewDecoder(r.Body).Decode(&lastBody)).To(Succeed())
			handler(w, r)
		}))

		var err error
		client, err = anthropic.New(llm.BackendConfig{APIKey: "test-key", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an API key", func() {
		_, err := anthropic.New(llm.BackendConfig{})
		var cfgErr *llm.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Setting).To(Equal("ANTHROPIC_API_KEY"))
	})

	Describe("Generate", func() {
		It("shapes the request and joins text blocks", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `{"id":"msg_1","type":"message","content":[{"type":"text","text":"{\"beat\":"},{"type":"text","text":"1}"}]}`)
			}

			gen, err := client.Generate(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(gen.Text).To(Equal(`{"beat":1}`))
			Expect(gen.Provider).To(Equal("anthropic"))

			Expect(lastHdr.Get("X-Api-Key")).To(Equal("test-key"))
			Expect(lastHdr.Get("Anthropic-Version")).To(Equal("2023-06-01"))
			Expect(lastBody["model"]).To(Equal(anthropic.DefaultModel))
			Expect(lastBody["max_tokens"]).To(BeNumerically("==", 1024))
			Expect(lastBody["system"]).To(Equal("be kind"))
			Expect(lastBody).NotTo(HaveKey("stream"))
		})

		It("surfaces API errors as BackendError", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
			}

			_, err := client.Generate(ctx, req)
			var backendErr *llm.BackendError
			Expect(errors.As(err, &backendErr)).To(BeTrue())
			Expect(backendErr.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(err.Error()).To(ContainSubstring("slow down"))
		})
	})

	Describe("Stream", func() {
		It("yields only text deltas", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\"}\n\n")
				fmt.Fprint(w, "event: ping\ndata: {\"type\":\"ping\"}\n\n")
				fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"{\\\"seg\"}}\n\n")
				fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"ment\\\"\"}}\n\n")
				fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
			}

			s, err := client.Stream(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			Expect(lastBody["stream"]).To(BeTrue())

			var frags []string
			for {
				frag, err := s.Next()
				if err == io.EOF {
					break
				}
				Expect(err).NotTo(HaveOccurred())
				frags = append(frags, frag)
			}
			Expect(frags).To(Equal([]string{`{"seg`, `ment"`}))
			Expect(s.Close()).To(Succeed())
		})

		It("reports stream error events", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
			}

			s, err := client.Stream(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			_, err = s.Next()
			Expect(err).To(MatchError(ContainSubstring("Overloaded")))
		})

		It("fails before streaming on a non-200 status", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}

			_, err := client.Stream(ctx, req)
			Expect(err).To(MatchError(ContainSubstring("status 401")))
		})
	})
})
