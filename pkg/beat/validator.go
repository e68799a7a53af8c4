package beat

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// excerptLen is the number of characters of raw text quoted in an
// InvalidJSON message.
const excerptLen = 200

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*\\n?")
	trailingFence = regexp.MustCompile("\\n?```\\s*$")
)

// Validator runs the four validation stages in order: JSON recovery,
// shape, beat-position structure and content safety. It is safe for
// concurrent use once constructed.
type Validator struct {
	denylist Denylist
	terms    []compiledTerm
	minWords int
	maxWords int
}

// Option configures a Validator.
type Option func(*Validator)

// WithDenylist replaces the content safety denylist.
func WithDenylist(d Denylist) Option {
	return func(v *Validator) {
		v.denylist = d
	}
}

// WithWordBounds overrides the inclusive segment word count bounds.
func WithWordBounds(minWords, maxWords int) Option {
	return func(v *Validator) {
		v.minWords = minWords
		v.maxWords = maxWords
	}
}

// NewValidator returns a Validator using the default denylist and word
// bounds unless overridden by opts.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		denylist: defaultDenylist,
		minWords: DefaultMinWords,
		maxWords: DefaultMaxWords,
	}

	for _, opt := range opts {
		opt(v)
	}

	v.terms = v.denylist.compile()
	return v
}

var defaultValidator = NewValidator()

// Validate runs raw through the default Validator.
func Validate(raw string, expectedBeat int) (*Response, error) {
	return defaultValidator.Validate(raw, expectedBeat)
}

// Validate parses raw and checks it against the rules for expectedBeat.
// The first failing stage short-circuits and is returned as a
// *ValidationError.
func (v *Validator) Validate(raw string, expectedBeat int) (*Response, error) {
	doc, err := parseJSON(raw)
	if err != nil {
		return nil, err
	}

	resp, err := checkShape(doc)
	if err != nil {
		return nil, err
	}

	if err := v.checkStructure(resp, expectedBeat); err != nil {
		return nil, err
	}

	if term, ok := v.firstBlocked(resp); ok {
		return nil, &ValidationError{
			Stage:   StageSafety,
			Message: fmt.Sprintf("Content safety violation: blocked word %q", term),
		}
	}

	return resp, nil
}

// StripFences removes a surrounding ``` or ```json code fence and trims
// whitespace.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func parseJSON(raw string) (any, error) {
	var doc any
	if err := json.Unmarshal([]byte(StripFences(raw)), &doc); err != nil {
		return nil, &ValidationError{
			Stage:   StageJSON,
			Message: "Invalid JSON: " + excerpt(raw),
		}
	}
	return doc, nil
}

func excerpt(raw string) string {
	runes := []rune(raw)
	if len(runes) <= excerptLen {
		return raw
	}
	return string(runes[:excerptLen])
}

// checkShape verifies field types and collects every violation before
// failing.
func checkShape(doc any) (*Response, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, schemaError([]string{"response: expected object"})
	}

	var issues []string
	resp := &Response{}

	switch n, present := obj["beat"]; {
	case !present:
		issues = append(issues, "beat: required")
	default:
		f, isNum := n.(float64)
		switch {
		case !isNum || f != math.Trunc(f):
			issues = append(issues, "beat: expected integer")
		case f < 1 || f > FinalBeat:
			issues = append(issues, fmt.Sprintf("beat: must be between 1 and %d", FinalBeat))
		default:
			resp.Beat = int(f)
		}
	}

	switch s, present := obj["segment"]; {
	case !present:
		issues = append(issues, "segment: required")
	default:
		str, isStr := s.(string)
		switch {
		case !isStr:
			issues = append(issues, "segment: expected string")
		case str == "":
			issues = append(issues, "segment: must not be empty")
		default:
			resp.Segment = str
		}
	}

	// A missing question is treated like an explicit null.
	if q, present := obj["question"]; present && q != nil {
		str, isStr := q.(string)
		if isStr {
			resp.Question = &str
		} else {
			issues = append(issues, "question: expected string or null")
		}
	}

	switch o, present := obj["options"]; {
	case !present:
		issues = append(issues, "options: required")
	default:
		list, isList := o.([]any)
		if !isList {
			issues = append(issues, "options: expected array of strings")
			break
		}
		resp.Options = make([]string, 0, len(list))
		for i, item := range list {
			str, isStr := item.(string)
			if !isStr {
				issues = append(issues, fmt.Sprintf("options.%d: expected string", i))
				continue
			}
			resp.Options = append(resp.Options, str)
		}
	}

	if len(issues) > 0 {
		return nil, schemaError(issues)
	}
	return resp, nil
}

func schemaError(issues []string) error {
	return &ValidationError{
		Stage:   StageSchema,
		Message: "Schema validation failed: " + strings.Join(issues, "; "),
	}
}

func (v *Validator) checkStructure(resp *Response, expectedBeat int) error {
	fail := func(format string, args ...any) error {
		return &ValidationError{Stage: StageStructure, Message: fmt.Sprintf(format, args...)}
	}

	if resp.Beat != expectedBeat {
		return fail("Expected beat %d, got beat %d", expectedBeat, resp.Beat)
	}

	if expectedBeat < FinalBeat {
		if !resp.HasQuestion() {
			return fail("Beat %d must include a question", expectedBeat)
		}
		if len(resp.Options) != ChoiceCount {
			return fail("Beat %d must have exactly %d options, got %d", expectedBeat, ChoiceCount, len(resp.Options))
		}
	} else {
		if resp.HasQuestion() {
			return fail("Beat %d should not have a question", FinalBeat)
		}
		if len(resp.Options) > 0 {
			return fail("Beat %d should not have options", FinalBeat)
		}
	}

	words := len(strings.Fields(resp.Segment))
	if words < v.minWords {
		return fail("Segment too short: %d words (minimum %d)", words, v.minWords)
	}
	if words > v.maxWords {
		return fail("Segment too long: %d words (maximum %d)", words, v.maxWords)
	}

	return nil
}

func (v *Validator) firstBlocked(resp *Response) (string, bool) {
	parts := make([]string, 0, 2+len(resp.Options))
	parts = append(parts, resp.Segment)
	if resp.Question != nil {
		parts = append(parts, *resp.Question)
	} else {
		parts = append(parts, "")
	}
	parts = append(parts, resp.Options...)

	text := strings.ToLower(strings.Join(parts, " "))
	for _, t := range v.terms {
		if t.pattern.MatchString(text) {
			return t.term, true
		}
	}
	return "", false
}
