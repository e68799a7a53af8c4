package story_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/storysprout/pkg/story"
)

func ptr(s string) *string { return &s }

func storyWithBeats(n int) *story.Story {
	s := &story.Story{ID: "s1", StyleSlug: "silly-goofy", ThemeSlug: "penguins"}
	for i := 1; i <= n; i++ {
		s.Beats = append(s.Beats, story.Beat{
			BeatNumber:   i,
			Segment:      fmt.Sprintf("segment %d", i),
			Question:     ptr("Which way?"),
			Options:      []string{"Left", "Right"},
			ChosenOption: ptr(fmt.Sprintf("stored %d", i)),
		})
	}
	s.CurrentBeat = n
	return s
}

var _ = Describe("PromptBuilder", func() {
	var builder *story.PromptBuilder

	BeforeEach(func() {
		builder = story.NewPromptBuilder(nil)
	})

	It("starts a new story at beat 1", func() {
		p, err := builder.Build(storyWithBeats(0), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.NextBeat).To(Equal(1))
		Expect(p.UserMessage).To(Equal("Begin a new penguins story. This is beat 1 of 5 — introduce the main character and setting."))
		Expect(p.SystemPrompt).To(ContainSubstring("STYLE: Silly & Goofy"))
		Expect(p.SystemPrompt).To(ContainSubstring("CURRENT BEAT: 1 of 5\nThis is \"Meet the Friend\""))
		Expect(p.SystemPrompt).To(HaveSuffix("THEME: Penguins"))
	})

	It("recaps prior beats and overrides the last choice", func() {
		p, err := builder.Build(storyWithBeats(2), ptr("Slide down the hill"))
		Expect(err).NotTo(HaveOccurred())
		Expect(p.NextBeat).To(Equal(3))
		Expect(p.UserMessage).To(Equal(
			"STORY SO FAR:\n" +
				"[Beat 1]\nsegment 1\n> Child chose: \"stored 1\"\n\n" +
				"[Beat 2]\nsegment 2\n> Child chose: \"Slide down the hill\"\n\n" +
				"Continue the story. This is beat 3 of 5. " +
				"The child chose: \"Slide down the hill\" — weave this choice into the story naturally."))
	})

	It("keeps the stored choice when none is given", func() {
		p, err := builder.Build(storyWithBeats(1), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.UserMessage).To(ContainSubstring(`The child chose: "stored 1"`))
	})

	It("asks for a wrap-up on the final beat", func() {
		p, err := builder.Build(storyWithBeats(4), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.NextBeat).To(Equal(5))
		Expect(p.UserMessage).To(HaveSuffix("This is the final beat — wrap up warmly. Do NOT include a question or options."))
		Expect(p.SystemPrompt).To(ContainSubstring(`This is "Cozy Ending"`))
	})

	It("falls back to calm bedtime instructions for an unknown style", func() {
		s := storyWithBeats(0)
		s.StyleSlug = "opera"
		p, err := builder.Build(s, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.SystemPrompt).To(ContainSubstring("STYLE: Calm Bedtime"))
	})

	It("rejects an unknown theme", func() {
		s := storyWithBeats(0)
		s.ThemeSlug = "volcano"
		_, err := builder.Build(s, nil)
		Expect(err).To(MatchError(story.ErrUnknownTheme))
	})

	It("refuses to build past the final beat", func() {
		_, err := builder.Build(storyWithBeats(5), nil)
		Expect(err).To(HaveOccurred())
	})

	It("converts to a generation request", func() {
		p := story.Prompt{SystemPrompt: "sys", UserMessage: "user"}
		req := p.Request()
		Expect(req.SystemPrompt).To(Equal("sys"))
		Expect(req.UserMessage).To(Equal("user"))
	})
})

var _ = Describe("BeatLabel", func() {
	It("names the five beats", func() {
		Expect(story.BeatLabel(1)).To(Equal("Meet the Friend"))
		Expect(story.BeatLabel(5)).To(Equal("Cozy Ending"))
		Expect(story.BeatLabel(0)).To(BeEmpty())
		Expect(story.BeatLabel(6)).To(BeEmpty())
	})
})
