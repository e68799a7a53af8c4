package storage

import "errors"

// ErrBeatExists is returned when a story already has a beat with the same
// number.
var ErrBeatExists = errors.New("beat already exists")

// NotFoundError is returned when a story or beat doesn't exist in the store.
type NotFoundError struct {
	// Kind is "story" or "beat".
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}

	return e.Kind + " not found: " + e.ID
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
