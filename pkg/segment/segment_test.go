package segment_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/storysprout/pkg/segment"
)

// feedAll feeds each chunk in order and returns every non-empty fragment.
func feedAll(e *segment.Extractor, chunks ...string) []string {
	var out []string
	for _, c := range chunks {
		if frag := e.Feed(c); frag != "" {
			out = append(out, frag)
		}
	}
	return out
}

var _ = Describe("Extractor", func() {
	var e *segment.Extractor

	BeforeEach(func() {
		e = segment.New(segment.DefaultField)
	})

	Describe("Feed", func() {
		It("emits nothing before the field marker appears", func() {
			Expect(e.Feed(`{"beat":1,`)).To(BeEmpty())
			Expect(e.Feed(`"segm`)).To(BeEmpty())
			Expect(e.Started()).To(BeFalse())
		})

		It("reveals text once the marker arrives across chunks", func() {
			frags := feedAll(e,
				`{"beat":1,"segm`,
				`ent":"Pepper hopped.","question":"What next?","options":["Nap","Play"]}`,
			)
			Expect(frags).To(Equal([]string{"Pepper hopped."}))
			Expect(e.Started()).To(BeTrue())
		})

		It("matches the marker with and without whitespace around the colon", func() {
			Expect(segment.New("segment").Feed(`{"segment":"a"}`)).To(Equal("a"))
			Expect(segment.New("segment").Feed(`{"segment" : "b"}`)).To(Equal("b"))
			Expect(segment.New("segment").Feed("{\"segment\":\n\t\"c\"}")).To(Equal("c"))
		})

		It("emits only the new suffix on each call", func() {
			Expect(e.Feed(`{"segment":"Once up`)).To(Equal("Once up"))
			Expect(e.Feed(`on a time`)).To(Equal("on a time"))
			Expect(e.Feed(`","beat":1}`)).To(BeEmpty())
			Expect(e.Emitted()).To(Equal(len("Once upon a time")))
		})

		It("never emits past the closing quote", func() {
			Expect(e.Feed(`{"segment":"done","question":"more text"}`)).To(Equal("done"))
			Expect(e.Feed(` trailing "segment":"again"`)).To(BeEmpty())
		})

		It("holds back a trailing backslash until the escape completes", func() {
			Expect(e.Feed(`{"segment":"She said \`)).To(Equal("She said "))
			Expect(e.Feed(`"hi\`)).To(Equal(`"hi`))
			Expect(e.Feed(`"`)).To(Equal(`"`))
		})

		It("decodes recognised escapes", func() {
			frag := e.Feed(`{"segment":"a\nb\tc\\d\/e\"f"}`)
			Expect(frag).To(Equal("a\nb\tc\\d/e\"f"))
		})

		It("passes unknown escaped characters through literally", func() {
			Expect(e.Feed(`{"segment":"x\qy"}`)).To(Equal("xqy"))
		})

		It("holds back a multibyte rune split across chunks", func() {
			full := `{"segment":"snow ❄ flake"}`
			idx := strings.Index(full, "❄") + 1

			first := e.Feed(full[:idx])
			Expect(first).To(Equal("snow "))
			rest := e.Feed(full[idx:])
			Expect(first + rest).To(Equal("snow ❄ flake"))
		})

		It("yields nothing when the field never appears", func() {
			Expect(feedAll(e, `{"beat":1,`, `"story":"nope"}`)).To(BeEmpty())
			Expect(e.Raw()).To(Equal(`{"beat":1,"story":"nope"}`))
		})
	})

	Describe("incremental emission", func() {
		raws := []string{
			`{"beat":2,"segment":"Pip found a \"shiny\" shell.\nIt sparkled!","question":"Keep it?","options":["Yes","Share it"]}`,
			"```json\n{\"segment\" : \"Tabs\\tand slashes \\/ and \\\\ too\",\"beat\":3}\n```",
			`{"segment":"ends with escape \\"}`,
			`{"segment":"unterminated and still going`,
		}

		It("concatenates prefix emissions into the one-pass decoded value", func() {
			for _, raw := range raws {
				want, found := segment.Decode(raw, segment.DefaultField)
				Expect(found).To(BeTrue())

				for split := 1; split <= 4; split++ {
					ex := segment.New(segment.DefaultField)
					var got strings.Builder
					for i := 0; i < len(raw); i += split {
						end := min(i+split, len(raw))
						got.WriteString(ex.Feed(raw[i:end]))
					}
					Expect(got.String()).To(Equal(want), "raw=%q split=%d", raw, split)
				}
			}
		})

		It("never emits a backslash from a split escape", func() {
			raw := `{"segment":"a\"b\nc\/d\te"}`
			ex := segment.New(segment.DefaultField)
			for i := range len(raw) {
				frag := ex.Feed(raw[i : i+1])
				Expect(frag).NotTo(ContainSubstring(`\`))
			}
		})
	})
})

var _ = Describe("Decode", func() {
	It("reports not found when the marker is absent", func() {
		_, found := segment.Decode(`{"beat":1}`, "segment")
		Expect(found).To(BeFalse())
	})

	It("decodes any requested field name", func() {
		value, found := segment.Decode(`{"question":"Nap or play?"}`, "question")
		Expect(found).To(BeTrue())
		Expect(value).To(Equal("Nap or play?"))
	})
})
