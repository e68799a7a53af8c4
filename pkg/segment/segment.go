// Package segment reveals the decoded value of a single JSON string field
// while the surrounding JSON document is still arriving from a streaming
// LLM response.
//
// The Extractor re-scans the whole accumulated buffer on every Feed call
// instead of keeping incremental parse state. Escape sequences split across
// chunk boundaries then need no special bookkeeping: a trailing lone
// backslash simply stops the scan until the next chunk arrives.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultField is the JSON field carrying story text in a beat response.
const DefaultField = "segment"

// Extractor incrementally decodes one JSON string field from a growing raw
// text buffer. An Extractor belongs to a single stream and is not safe for
// concurrent use.
type Extractor struct {
	marker *regexp.Regexp

	raw     strings.Builder
	started bool

	// emitted is the number of decoded bytes already returned by Feed.
	emitted int
}

// New returns an Extractor tracking the given field name.
func New(field string) *Extractor {
	return &Extractor{
		marker: markerFor(field),
	}
}

// Feed appends chunk to the accumulated buffer and returns the decoded text
// that became available since the previous call. It returns an empty string
// when nothing new is decodable yet.
func (e *Extractor) Feed(chunk string) string {
	e.raw.WriteString(chunk)

	value, found := scan(e.raw.String(), e.marker)
	if !found {
		return ""
	}
	e.started = true

	// Hold back a multibyte rune whose trailing bytes have not arrived yet.
	value = completeRunes(value)
	if len(value) <= e.emitted {
		return ""
	}

	delta := value[e.emitted:]
	e.emitted = len(value)
	return delta
}

// Raw returns everything fed to the extractor so far.
func (e *Extractor) Raw() string {
	return e.raw.String()
}

// Started reports whether the field marker has been seen.
func (e *Extractor) Started() bool {
	return e.started
}

// Emitted returns the number of decoded bytes returned by Feed so far.
func (e *Extractor) Emitted() int {
	return e.emitted
}

// Decode decodes the field value from raw in a single pass, stopping at the
// closing quote or at the end of the input. found is false when the field
// marker does not occur in raw.
func Decode(raw, field string) (value string, found bool) {
	return scan(raw, markerFor(field))
}

func markerFor(field string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*:\s*"`)
}

// scan locates the first marker match and decodes the string value that
// follows it.
func scan(raw string, marker *regexp.Regexp) (string, bool) {
	loc := marker.FindStringIndex(raw)
	if loc == nil {
		return "", false
	}

	var b strings.Builder
	for i := loc[1]; i < len(raw); {
		ch := raw[i]

		switch ch {
		case '"':
			return b.String(), true

		case '\\':
			if i+1 >= len(raw) {
				// Escape split at the buffer edge; wait for more input.
				return b.String(), true
			}

			next := raw[i+1]
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				// Covers \" \\ \/ and passes any other escaped byte through.
				b.WriteByte(next)
			}
			i += 2

		default:
			b.WriteByte(ch)
			i++
		}
	}

	return b.String(), true
}

// completeRunes trims an incomplete UTF-8 sequence from the end of s.
func completeRunes(s string) string {
	if s == "" {
		return s
	}

	// A UTF-8 sequence is at most utf8.UTFMax bytes long.
	start := len(s) - 1
	for start > 0 && start > len(s)-utf8.UTFMax && !utf8.RuneStart(s[start]) {
		start--
	}

	if !utf8.FullRuneInString(s[start:]) {
		return s[:start]
	}
	return s
}
