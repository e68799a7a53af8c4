package engine

// State is a step of a single beat run.
type State int

const (
	StateStreaming State = iota
	StateValidating
	StateRetrying
	StatePersisting
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateValidating:
		return "validating"
	case StateRetrying:
		return "retrying"
	case StatePersisting:
		return "persisting"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
