package eventstream

import "errors"

// ErrNilBeatEvent indicates a nil beat event payload was provided to a publisher.
var ErrNilBeatEvent = errors.New("nil beat event")
