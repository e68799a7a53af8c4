// Package storagetest holds the behaviour every storage.Driver must share,
// expressed as ginkgo specs that each driver's suite registers.
package storagetest

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/storage"
)

// Response returns a valid response for beat n.
func Response(n int) *beat.Response {
	segment := strings.TrimSpace(strings.Repeat("cozy ", 45))
	if n == beat.FinalBeat {
		return &beat.Response{Beat: n, Segment: segment, Options: []string{}}
	}

	q := "What should Pip do next?"
	return &beat.Response{Beat: n, Segment: segment, Question: &q, Options: []string{"Build a snowman", "Go sledding"}}
}

// DriverSpecs registers the shared specs. newDriver is called before each
// spec and the driver is closed after it.
func DriverSpecs(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("CreateStory and GetStory", func() {
		It("creates an empty story", func() {
			s, err := driver.CreateStory(ctx, "calm-bedtime", "penguins")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.ID).NotTo(BeEmpty())
			Expect(s.CurrentBeat).To(Equal(0))
			Expect(s.IsComplete).To(BeFalse())

			got, err := driver.GetStory(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.StyleSlug).To(Equal("calm-bedtime"))
			Expect(got.ThemeSlug).To(Equal("penguins"))
			Expect(got.Beats).To(BeEmpty())
		})

		It("returns NotFoundError for an unknown story", func() {
			_, err := driver.GetStory(ctx, "missing")
			Expect(storage.IsNotFound(err)).To(BeTrue())

			var nf storage.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.Kind).To(Equal("story"))
		})
	})

	Describe("PersistBeat", func() {
		It("stores beats and returns them ordered by number", func() {
			s, err := driver.CreateStory(ctx, "silly-goofy", "space")
			Expect(err).NotTo(HaveOccurred())

			for _, n := range []int{2, 1} {
				b, err := driver.PersistBeat(ctx, s.ID, n, Response(n), "anthropic", `{"raw":true}`)
				Expect(err).NotTo(HaveOccurred())
				Expect(b.ID).NotTo(BeEmpty())
				Expect(b.StoryID).To(Equal(s.ID))
				Expect(b.BeatNumber).To(Equal(n))
				Expect(b.ChosenOption).To(BeNil())
			}

			got, err := driver.GetStory(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Beats).To(HaveLen(2))
			Expect(got.Beats[0].BeatNumber).To(Equal(1))
			Expect(got.Beats[1].BeatNumber).To(Equal(2))
			Expect(*got.Beats[0].Question).To(Equal("What should Pip do next?"))
			Expect(got.Beats[0].Options).To(Equal([]string{"Build a snowman", "Go sledding"}))
			Expect(got.Beats[0].Provider).To(Equal("anthropic"))
			Expect(got.Beats[0].RawJSON).To(Equal(`{"raw":true}`))
		})

		It("stores the final beat with no question and empty options", func() {
			s, err := driver.CreateStory(ctx, "calm-bedtime", "farm")
			Expect(err).NotTo(HaveOccurred())

			_, err = driver.PersistBeat(ctx, s.ID, 5, Response(5), "openai", "{}")
			Expect(err).NotTo(HaveOccurred())

			got, err := driver.GetStory(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Beats[0].Question).To(BeNil())
			Expect(got.Beats[0].Options).NotTo(BeNil())
			Expect(got.Beats[0].Options).To(BeEmpty())
		})

		It("rejects a duplicate beat number", func() {
			s, err := driver.CreateStory(ctx, "calm-bedtime", "farm")
			Expect(err).NotTo(HaveOccurred())

			_, err = driver.PersistBeat(ctx, s.ID, 1, Response(1), "anthropic", "{}")
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.PersistBeat(ctx, s.ID, 1, Response(1), "anthropic", "{}")
			Expect(err).To(MatchError(storage.ErrBeatExists))
		})

		It("rejects an unknown story", func() {
			_, err := driver.PersistBeat(ctx, "missing", 1, Response(1), "anthropic", "{}")
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("SetChosenOption", func() {
		It("attaches the choice to the beat", func() {
			s, err := driver.CreateStory(ctx, "calm-bedtime", "ocean")
			Expect(err).NotTo(HaveOccurred())
			b, err := driver.PersistBeat(ctx, s.ID, 1, Response(1), "anthropic", "{}")
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.SetChosenOption(ctx, b.ID, "Go sledding")).To(Succeed())

			got, err := driver.GetStory(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Beats[0].ChosenOption).NotTo(BeNil())
			Expect(*got.Beats[0].ChosenOption).To(Equal("Go sledding"))
		})

		It("returns NotFoundError for an unknown beat", func() {
			err := driver.SetChosenOption(ctx, "missing", "x")
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("MarkStory", func() {
		It("updates progress and completion", func() {
			s, err := driver.CreateStory(ctx, "calm-bedtime", "jungle")
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.MarkStory(ctx, s.ID, 5, true)).To(Succeed())

			got, err := driver.GetStory(ctx, s.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.CurrentBeat).To(Equal(5))
			Expect(got.IsComplete).To(BeTrue())
			Expect(got.UpdatedAt).NotTo(BeTemporally("<", got.CreatedAt))
		})

		It("returns NotFoundError for an unknown story", func() {
			Expect(storage.IsNotFound(driver.MarkStory(ctx, "missing", 1, false))).To(BeTrue())
		})
	})

	Describe("ListStories", func() {
		It("lists newest first", func() {
			first, err := driver.CreateStory(ctx, "calm-bedtime", "penguins")
			Expect(err).NotTo(HaveOccurred())
			time.Sleep(5 * time.Millisecond)
			second, err := driver.CreateStory(ctx, "silly-goofy", "space")
			Expect(err).NotTo(HaveOccurred())

			list, err := driver.ListStories(ctx)
			Expect(err).NotTo(HaveOccurred())

			var ids []string
			for _, s := range list {
				ids = append(ids, s.ID)
			}
			Expect(ids).To(ContainElements(first.ID, second.ID))
			Expect(indexOf(ids, second.ID)).To(BeNumerically("<", indexOf(ids, first.ID)))
		})
	})
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
