// Package readcmder provides the read command that renders stories from a
// running StorySprout API server in the terminal.
package readcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/storysprout/pkg/cliui"
	"github.com/papercomputeco/storysprout/pkg/config"
	"github.com/papercomputeco/storysprout/pkg/llm"
	"github.com/papercomputeco/storysprout/pkg/logger"
	"github.com/papercomputeco/storysprout/pkg/story"
)

const requestTimeout = 15 * time.Second

type readCommander struct {
	apiTarget string
	raw       bool
	wrap      int

	debug  bool
	logger *slog.Logger
}

const readLongDesc string = `Read a story from the StorySprout API.

With a story ID, fetches the story and renders every beat as markdown,
including each question and the option the child picked. Without an ID,
lists the stored stories, newest first.

Use --raw to print plain markdown instead of the styled rendering.

Examples:
  storysprout read
  storysprout read 6b1f4c9e-5d0a-4f6b-9d33-2c6f0f1b7a10
  storysprout read 6b1f4c9e-5d0a-4f6b-9d33-2c6f0f1b7a10 --raw > story.md
  storysprout read --api-target http://stories.local:8081`

const readShortDesc string = "Render a story in the terminal"

func NewReadCmd() *cobra.Command {
	cmder := &readCommander{}

	cmd := &cobra.Command{
		Use:   "read [story-id]",
		Short: readShortDesc,
		Long:  readLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.logger = logger.New(
				logger.WithDebug(cmder.debug),
				logger.WithPretty(true),
				logger.WithWriter(cmd.ErrOrStderr()),
			)

			if len(args) == 0 {
				return cmder.list(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			return cmder.read(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print plain markdown without terminal styling")
	cmd.Flags().IntVar(&cmder.wrap, "wrap", cliui.DefaultWrap, "Column width for rendered output")

	return cmd
}

func (c *readCommander) read(ctx context.Context, out, status io.Writer, id string) error {
	var st story.Story
	err := cliui.Step(status, "Fetching story", func() error {
		return c.getJSON(ctx, "/stories/"+url.PathEscape(id), &st)
	})
	if err != nil {
		return err
	}

	c.logger.Debug("fetched story",
		"story_id", st.ID,
		"beats", len(st.Beats),
		"complete", st.IsComplete,
	)

	doc := story.Markdown(&st, story.DefaultCatalog())
	if c.raw {
		_, err := io.WriteString(out, doc)
		return err
	}

	rendered, err := cliui.RenderMarkdown(doc, c.wrap)
	if err != nil {
		c.logger.Warn("markdown rendering failed, printing plain text", "error", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func (c *readCommander) list(ctx context.Context, out, status io.Writer) error {
	var stories []*story.Story
	err := cliui.Step(status, "Fetching stories", func() error {
		return c.getJSON(ctx, "/stories", &stories)
	})
	if err != nil {
		return err
	}

	if len(stories) == 0 {
		fmt.Fprintln(out, cliui.DimStyle.Render("No stories yet."))
		return nil
	}

	catalog := story.DefaultCatalog()
	rows := make([]cliui.KeyValue, 0, len(stories))
	for _, st := range stories {
		rows = append(rows, cliui.KeyValue{Key: st.ID, Value: summary(st, catalog)})
	}
	return cliui.WriteKeyValues(out, rows)
}

func summary(st *story.Story, catalog *story.Catalog) string {
	theme := st.ThemeSlug
	if t, ok := catalog.LookupTheme(st.ThemeSlug); ok {
		theme = t.Name
	}

	progress := fmt.Sprintf("beat %d of 5", st.CurrentBeat)
	if st.IsComplete {
		progress = "complete"
	}
	return fmt.Sprintf("%s (%s, %s)", theme, st.StyleSlug, progress)
}

// getJSON fetches path from the API target and decodes the JSON body into v.
func (c *readCommander) getJSON(ctx context.Context, path string, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	target, err := url.Parse(c.apiTarget)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	target = target.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	c.logger.Debug("requesting", "url", target.String())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to StorySprout API at %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr llm.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
