package gemini

import (
	"context"
	"errors"
	"io"
	"iter"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/genai"

	"github.com/papercomputeco/storysprout/pkg/llm"
)

// chunks returns a genai-style streaming iterator over pre-built responses,
// optionally ending with err.
func chunks(err error, texts ...string) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, t := range texts {
			resp := &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: t}}},
				}},
			}
			if !yield(resp, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

var _ = Describe("New", func() {
	It("requires an API key", func() {
		_, err := New(context.Background(), llm.BackendConfig{})
		var cfgErr *llm.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Setting).To(Equal(APIKeyEnv))
	})

	It("applies defaults", func() {
		c, err := New(context.Background(), llm.BackendConfig{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Name()).To(Equal("gemini"))
		Expect(c.model).To(Equal(DefaultModel))
		Expect(c.maxTokens).To(Equal(int32(llm.DefaultMaxTokens)))
	})

	It("builds a system instruction", func() {
		c, err := New(context.Background(), llm.BackendConfig{APIKey: "k", MaxTokens: 300})
		Expect(err).NotTo(HaveOccurred())

		cfg := c.config(llm.GenerationRequest{SystemPrompt: "be kind"})
		Expect(cfg.MaxOutputTokens).To(Equal(int32(300)))
		Expect(cfg.SystemInstruction.Parts[0].Text).To(Equal("be kind"))
	})
})

var _ = Describe("stream", func() {
	It("yields non-empty text chunks then EOF", func() {
		s := newStream(chunks(nil, `{"segment":"A`, "", `B"}`))
		defer s.Close()

		var frags []string
		for {
			frag, err := s.Next()
			if err == io.EOF {
				break
			}
			Expect(err).NotTo(HaveOccurred())
			frags = append(frags, frag)
		}
		Expect(frags).To(Equal([]string{`{"segment":"A`, `B"}`}))

		_, err := s.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("wraps iterator errors as BackendError", func() {
		s := newStream(chunks(errors.New("quota exceeded"), "x"))
		defer s.Close()

		frag, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(frag).To(Equal("x"))

		_, err = s.Next()
		var backendErr *llm.BackendError
		Expect(errors.As(err, &backendErr)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("quota exceeded"))
	})

	It("can be closed before draining", func() {
		s := newStream(chunks(nil, "a", "b"))
		_, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())
		Expect(s.Close()).To(Succeed())
	})
})
