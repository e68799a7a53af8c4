// Package beat defines the structured response an LLM returns for one story
// beat and the pipeline that turns raw provider text into a trusted Response.
package beat

const (
	// FinalBeat is the number of the closing beat. Stories have exactly this
	// many beats.
	FinalBeat = 5

	// ChoiceCount is the number of options offered at the end of every beat
	// before FinalBeat.
	ChoiceCount = 2

	// DefaultMinWords and DefaultMaxWords bound the segment word count.
	// The prompt asks for 80-120 words; the validator tolerates a wider band.
	DefaultMinWords = 40
	DefaultMaxWords = 160
)

// Response is a validated beat as produced by the model.
type Response struct {
	Beat     int      `json:"beat"`
	Segment  string   `json:"segment"`
	Question *string  `json:"question"`
	Options  []string `json:"options"`
}

// HasQuestion reports whether the response carries a non-empty question.
func (r *Response) HasQuestion() bool {
	return r.Question != nil && *r.Question != ""
}
