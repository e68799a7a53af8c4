package story

import (
	"fmt"
	"strings"
)

// Markdown renders s as a markdown document for terminal reading. Titles
// come from c; unknown slugs are shown as-is.
func Markdown(s *Story, c *Catalog) string {
	if c == nil {
		c = DefaultCatalog()
	}

	title := s.ThemeSlug
	if theme, ok := c.LookupTheme(s.ThemeSlug); ok {
		title = theme.Emoji + " " + theme.Name
	}
	style := s.StyleSlug
	if st, ok := c.LookupStyle(s.StyleSlug); ok {
		style = st.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "_%s_", style)
	if s.IsComplete {
		b.WriteString(" · The End")
	} else {
		fmt.Fprintf(&b, " · beat %d of 5", s.CurrentBeat)
	}
	b.WriteString("\n")

	for _, bt := range s.Beats {
		fmt.Fprintf(&b, "\n## %d. %s\n\n%s\n", bt.BeatNumber, BeatLabel(bt.BeatNumber), bt.Segment)

		if bt.Question != nil {
			fmt.Fprintf(&b, "\n**%s**\n\n", *bt.Question)
			for _, opt := range bt.Options {
				if bt.ChosenOption != nil && *bt.ChosenOption == opt {
					fmt.Fprintf(&b, "- **%s** ✓\n", opt)
				} else {
					fmt.Fprintf(&b, "- %s\n", opt)
				}
			}
		}
	}

	return b.String()
}
