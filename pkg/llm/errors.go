package llm

import "fmt"

// ConfigurationError reports a missing backend setting. It is raised the
// first time a backend is used, not at startup.
type ConfigurationError struct {
	Backend string
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s backend is not configured: missing %s", e.Backend, e.Setting)
}

// BackendError wraps a network or API failure reported by a backend.
type BackendError struct {
	Backend string

	// StatusCode is the HTTP status returned by the backend, if any.
	StatusCode int

	Err error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
