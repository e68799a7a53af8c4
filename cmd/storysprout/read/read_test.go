package readcmder_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	readcmder "github.com/papercomputeco/storysprout/cmd/storysprout/read"
	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/story"
)

var _ = Describe("read command", func() {
	var (
		server  *httptest.Server
		stories map[string]*story.Story
		tmpDir  string
		origDir string
	)

	execute := func(args ...string) (string, string, error) {
		var out, status bytes.Buffer
		cmd := readcmder.NewReadCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&status)
		cmd.SetArgs(append(args, "--api-target", server.URL))
		err := cmd.Execute()
		return out.String(), status.String(), err
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "storysprout-read-test-*")
		Expect(err).NotTo(HaveOccurred())
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".storysprout"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		question := "Should Pip slide down the hill or build a snow fort?"
		chosen := "Slide down the hill"
		stories = map[string]*story.Story{
			"story-1": {
				ID:          "story-1",
				StyleSlug:   "calm-bedtime",
				ThemeSlug:   "penguins",
				CurrentBeat: 2,
				Beats: []story.Beat{
					{
						BeatNumber:   1,
						Segment:      "Pip the penguin waddled across the glittering ice.",
						Question:     &question,
						Options:      []string{chosen, "Build a snow fort"},
						ChosenOption: &chosen,
					},
				},
			},
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if r.URL.Path == "/stories" {
				list := make([]*story.Story, 0, len(stories))
				for _, st := range stories {
					list = append(list, st)
				}
				_ = json.NewEncoder(w).Encode(list)
				return
			}

			st, ok := stories[filepath.Base(r.URL.Path)]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(llm.ErrorResponse{Error: "Story not found"})
				return
			}
			_ = json.NewEncoder(w).Encode(st)
		}))
	})

	AfterEach(func() {
		server.Close()
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("prints a story as plain markdown with --raw", func() {
		out, _, err := execute("story-1", "--raw")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("# 🐧 Penguins"))
		Expect(out).To(ContainSubstring("_Calm Bedtime_ · beat 2 of 5"))
		Expect(out).To(ContainSubstring("Pip the penguin waddled across the glittering ice."))
		Expect(out).To(ContainSubstring("- **Slide down the hill** ✓"))
		Expect(out).To(ContainSubstring("- Build a snow fort"))
	})

	It("renders a story for the terminal by default", func() {
		out, _, err := execute("story-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Penguins"))
		Expect(out).To(ContainSubstring("Pip"))
	})

	It("reports progress on the status writer", func() {
		_, status, err := execute("story-1", "--raw")
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(ContainSubstring("Fetching story"))
	})

	It("surfaces the API error for an unknown story", func() {
		_, _, err := execute("missing", "--raw")
		Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		Expect(err).To(MatchError(ContainSubstring("Story not found")))
	})

	It("lists stories when no ID is given", func() {
		out, _, err := execute()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("story-1"))
		Expect(out).To(ContainSubstring("Penguins (calm-bedtime, beat 2 of 5)"))
	})

	It("says so when there are no stories", func() {
		stories = map[string]*story.Story{}
		out, _, err := execute()
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No stories yet."))
	})

	It("rejects more than one story ID", func() {
		_, _, err := execute("a", "b")
		Expect(err).To(HaveOccurred())
	})
})
