package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/storysprout/pkg/beat"
	"github.com/papercomputeco/storysprout/pkg/llm"
)

// ErrUnknownTheme is returned when a story's theme is not in the catalog.
var ErrUnknownTheme = errors.New("unknown theme")

var beatLabels = [beat.FinalBeat]string{
	"Meet the Friend",
	"Something Happens",
	"Try a Thing",
	"Big Hooray",
	"Cozy Ending",
}

// BeatLabel returns the display label for beat n, or "" when out of range.
func BeatLabel(n int) string {
	if n < 1 || n > beat.FinalBeat {
		return ""
	}
	return beatLabels[n-1]
}

var beatGuidance = map[int]string{
	1: `This is "Meet the Friend" — introduce the main character and the setting.
Give the character a name and a simple personality trait.
Paint the scene with 2-3 sensory details a toddler would love (colors, sounds, textures).`,

	2: `This is "Something Happens" — a fun, surprising event occurs.
Build on the character and setting from beat 1.
The event should be exciting but NOT scary — think "a rainbow appeared" not "a storm came."`,

	3: `This is "Try a Thing" — the character tries something or explores.
Reference the child's previous choice naturally.
Show the character being brave, curious, or kind.`,

	4: `This is "Big Hooray" — the happy success or delightful reveal.
This is the emotional peak — make it joyful and satisfying.
Tie back to earlier beats so the story feels connected.
IMPORTANT: This is NOT the last beat. You MUST include a "question" and exactly 2 "options" — the child still has one more choice before the story ends.`,

	5: `This is "Cozy Ending" — a calm, warm wrap-up.
Slow the pace down. Use gentle, sleepy language.
End with the character feeling safe, happy, and ready to rest.
Do NOT include a question or options — the story is complete.`,
}

var styleInstructions = map[string]string{
	"whimsical-rhyme": `STYLE: Whimsical Rhyme
- Write in bouncy rhyming couplets (AABB pattern)
- Use playful repetition kids can chant along with
- Sprinkle in fun nonsense words (e.g., "snippety-snap", "wobbleflop")
- Keep the rhythm sing-songy and musical
- The question and options should also have a playful tone (but don't need to rhyme)`,

	"calm-bedtime": `STYLE: Calm Bedtime
- Use slow, gentle pacing with short, soft sentences
- Include sensory details: warm blankets, twinkling stars, soft breezes
- Tone should be soothing and reassuring — like a whispered story
- Use words like "gently", "softly", "quietly", "snuggled"
- The question should feel calm, never urgent`,

	"silly-goofy": `STYLE: Silly & Goofy
- Use funny sound effects (SPLAT! BOING! WHOOOOSH!)
- Include absurd, exaggerated situations that make kids giggle
- Playful exaggeration is great — "a sandwich the size of a mountain"
- Physical comedy works well — tripping, silly dances, funny faces
- The question options should both sound hilarious`,
}

const baseSystemPrompt = `You are a bedtime story narrator for children aged 3-5. You create warm, imaginative, interactive stories.

ABSOLUTE RULES — NEVER BREAK THESE:
- Content must be 100% appropriate for ages 3-5
- NO violence, danger, fear, sadness, villains, darkness, monsters, getting lost, or being alone
- NO conflict between characters — everyone is kind and helpful
- BOTH choice options must lead to equally happy, positive outcomes
- Use simple vocabulary a 3-year-old can understand
- Keep sentences short (under 15 words each)
- Each beat's story segment must be 80-120 words

RESPONSE FORMAT — Return ONLY valid JSON, no markdown, no code fences:
{
  "beat": <beat number 1-5>,
  "segment": "<the story text for this beat>",
  "question": "<question for the child>",
  "options": ["<option 1>", "<option 2>"]
}

CRITICAL: Beats 1-4 MUST include a non-null "question" and exactly 2 "options".
Beat 5 (and ONLY beat 5) must have "question": null and "options": [].

CHOICE DESIGN:
- Questions should be simple and engaging — "What should Pepper do next?"
- Each option should be 3-8 words
- Options must be concrete actions, not abstract concepts
- Both options must be equally appealing and lead to happy outcomes`

// Prompt is the system prompt and user message for one beat.
type Prompt struct {
	SystemPrompt string
	UserMessage  string

	// NextBeat is the beat number the prompt asks for.
	NextBeat int
}

// Request converts p to a generation request.
func (p Prompt) Request() llm.GenerationRequest {
	return llm.GenerationRequest{SystemPrompt: p.SystemPrompt, UserMessage: p.UserMessage}
}

// PromptBuilder turns a story and the child's latest choice into a Prompt.
type PromptBuilder struct {
	catalog *Catalog
}

// NewPromptBuilder returns a builder resolving styles and themes from
// catalog. A nil catalog uses DefaultCatalog.
func NewPromptBuilder(catalog *Catalog) *PromptBuilder {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &PromptBuilder{catalog: catalog}
}

// recapBeat is one prior beat as it appears in the story-so-far recap.
type recapBeat struct {
	number       int
	segment      string
	chosenOption *string
}

// Build returns the prompt for the beat after the last one in s. When
// chosenOption is non-nil it replaces the choice recorded on the last beat.
func (b *PromptBuilder) Build(s *Story, chosenOption *string) (Prompt, error) {
	theme, ok := b.catalog.LookupTheme(s.ThemeSlug)
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnknownTheme, s.ThemeSlug)
	}

	next := s.NextBeatNumber()
	if next > beat.FinalBeat {
		return Prompt{}, fmt.Errorf("story %s already has %d beats", s.ID, len(s.Beats))
	}

	previous := make([]recapBeat, 0, len(s.Beats))
	for i, pb := range s.Beats {
		rb := recapBeat{number: pb.BeatNumber, segment: pb.Segment, chosenOption: pb.ChosenOption}
		if i == len(s.Beats)-1 && chosenOption != nil {
			rb.chosenOption = chosenOption
		}
		previous = append(previous, rb)
	}

	return Prompt{
		SystemPrompt: systemPrompt(s.StyleSlug, theme.Name, next),
		UserMessage:  userMessage(theme.Name, next, previous),
		NextBeat:     next,
	}, nil
}

func systemPrompt(styleSlug, themeName string, beatNumber int) string {
	style, ok := styleInstructions[styleSlug]
	if !ok {
		style = styleInstructions[DefaultStyleSlug]
	}

	return fmt.Sprintf("%s\n\n%s\n\nCURRENT BEAT: %d of %d\n%s\n\nTHEME: %s",
		baseSystemPrompt, style, beatNumber, beat.FinalBeat, beatGuidance[beatNumber], themeName)
}

func userMessage(themeName string, beatNumber int, previous []recapBeat) string {
	if beatNumber == 1 {
		return fmt.Sprintf("Begin a new %s story. This is beat 1 of %d — introduce the main character and setting.",
			strings.ToLower(themeName), beat.FinalBeat)
	}

	recap := make([]string, 0, len(previous))
	for _, pb := range previous {
		text := fmt.Sprintf("[Beat %d]\n%s", pb.number, pb.segment)
		if pb.chosenOption != nil && *pb.chosenOption != "" {
			text += fmt.Sprintf("\n> Child chose: \"%s\"", *pb.chosenOption)
		}
		recap = append(recap, text)
	}

	instruction := fmt.Sprintf("Continue the story. This is beat %d of %d.", beatNumber, beat.FinalBeat)
	if n := len(previous); n > 0 {
		if last := previous[n-1].chosenOption; last != nil && *last != "" {
			instruction += fmt.Sprintf(" The child chose: \"%s\" — weave this choice into the story naturally.", *last)
		}
	}
	if beatNumber == beat.FinalBeat {
		instruction += " This is the final beat — wrap up warmly. Do NOT include a question or options."
	}

	return fmt.Sprintf("STORY SO FAR:\n%s\n\n%s", strings.Join(recap, "\n\n"), instruction)
}
