package story_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/story"
)

var _ = Describe("Story", func() {
	It("tracks the next beat and last beat", func() {
		s := storyWithBeats(0)
		Expect(s.NextBeatNumber()).To(Equal(1))
		Expect(s.LastBeat()).To(BeNil())

		s = storyWithBeats(3)
		Expect(s.NextBeatNumber()).To(Equal(4))
		Expect(s.LastBeat().BeatNumber).To(Equal(3))
		Expect(s.Finished()).To(BeFalse())

		s.IsComplete = true
		Expect(s.Finished()).To(BeTrue())
	})

	It("serializes beats with camelCase keys and explicit nulls", func() {
		b := story.NewBeat("s1", &beat.Response{Beat: 5, Segment: "The end."}, "anthropic", `{"beat":5}`)
		payload, err := json.Marshal(b)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKeyWithValue("storyId", "s1"))
		Expect(got).To(HaveKeyWithValue("beatNumber", BeNumerically("==", 5)))
		Expect(got).To(HaveKeyWithValue("rawJson", `{"beat":5}`))
		Expect(got).To(HaveKeyWithValue("question", BeNil()))
		Expect(got).To(HaveKeyWithValue("chosenOption", BeNil()))
		Expect(got["options"]).To(BeEmpty())
	})
})

var _ = Describe("Catalog", func() {
	c := story.DefaultCatalog()

	It("lists three styles and six themes", func() {
		Expect(c.Styles).To(HaveLen(3))
		Expect(c.Themes).To(HaveLen(6))
	})

	It("looks entries up by slug", func() {
		st, ok := c.LookupStyle("whimsical-rhyme")
		Expect(ok).To(BeTrue())
		Expect(st.Emoji).To(Equal("✨"))

		th, ok := c.LookupTheme("ocean")
		Expect(ok).To(BeTrue())
		Expect(th.Name).To(Equal("Ocean"))

		_, ok = c.LookupTheme("desert")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Markdown", func() {
	It("renders titles, beats and the chosen option", func() {
		s := storyWithBeats(2)
		md := story.Markdown(s, nil)
		Expect(md).To(HavePrefix("# 🐧 Penguins\n\n_Silly & Goofy_ · beat 2 of 5\n"))
		Expect(md).To(ContainSubstring("## 1. Meet the Friend\n\nsegment 1\n"))
		Expect(md).To(ContainSubstring("**Which way?**"))
		Expect(md).To(ContainSubstring("- Left\n"))
	})

	It("marks a complete story", func() {
		s := storyWithBeats(1)
		s.Beats[0].ChosenOption = ptr("Right")
		s.IsComplete = true
		md := story.Markdown(s, nil)
		Expect(md).To(ContainSubstring("The End"))
		Expect(md).To(ContainSubstring("- **Right** ✓"))
	})
})
