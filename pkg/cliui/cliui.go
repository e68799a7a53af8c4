// Package cliui provides terminal UI helpers (step spinners, key/value
// listings, markdown rendering) for storysprout CLI commands.
package cliui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DefaultWrap is the column width markdown is wrapped at.
const DefaultWrap = 80

var (
	sprout = lipgloss.Color("78")

	SuccessMark  = lipgloss.NewStyle().Foreground(sprout).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	KeyStyle     = lipgloss.NewStyle().Foreground(sprout).Bold(true)
	ValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	DimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	UnsetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(sprout)
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var mu sync.Mutex

	go func() {
		defer close(stopped)

		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)
	<-stopped

	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// KeyValue is one row of a key/value listing.
type KeyValue struct {
	Key   string
	Value string
}

// WriteKeyValues writes rows as aligned "key = value" lines. Empty values
// are shown as (unset).
func WriteKeyValues(w io.Writer, rows []KeyValue) error {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Key))
	}

	for _, r := range rows {
		value := ValueStyle.Render(r.Value)
		if r.Value == "" {
			value = UnsetStyle.Render("(unset)")
		}

		pad := strings.Repeat(" ", width-len(r.Key))
		if _, err := fmt.Fprintf(w, "%s%s = %s\n", KeyStyle.Render(r.Key), pad, value); err != nil {
			return err
		}
	}
	return nil
}

// MaskSecret hides all but the last four characters of a credential.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}

// RenderMarkdown renders markdown content for terminal display using
// glamour. On failure the unrendered content is returned with the error.
func RenderMarkdown(content string, wrap int) (string, error) {
	if wrap <= 0 {
		wrap = DefaultWrap
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithEmoji(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
