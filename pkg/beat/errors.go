package beat

import "errors"

// Stage identifies which validation stage rejected a response.
type Stage int

const (
	StageJSON Stage = iota + 1
	StageSchema
	StageStructure
	StageSafety
)

func (s Stage) String() string {
	switch s {
	case StageJSON:
		return "json"
	case StageSchema:
		return "schema"
	case StageStructure:
		return "structure"
	case StageSafety:
		return "safety"
	default:
		return "unknown"
	}
}

// Sentinels matched by ValidationError.Is for the corresponding stage.
var (
	ErrInvalidJSON   = errors.New("invalid json")
	ErrSchema        = errors.New("schema validation failed")
	ErrStructure     = errors.New("structural validation failed")
	ErrContentSafety = errors.New("content safety violation")
)

// ValidationError is returned by the validation pipeline. Message is the
// human readable reason surfaced to clients.
type ValidationError struct {
	Stage   Stage
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is allows errors.Is(err, ErrSchema) and friends.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrInvalidJSON:
		return e.Stage == StageJSON
	case ErrSchema:
		return e.Stage == StageSchema
	case ErrStructure:
		return e.Stage == StageStructure
	case ErrContentSafety:
		return e.Stage == StageSafety
	}
	return false
}
