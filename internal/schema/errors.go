package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectivity marks a dropped or unreachable tool provider.
	ErrConnectivity = errors.New("tool provider connectivity lost")

	// ErrToolUnavailable is returned once a tool provider is marked dead.
	ErrToolUnavailable = errors.New("tool provider unavailable for this session")

	// ErrUnknownTool is returned when a call's namespace cannot be resolved.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMalformedToolCall is logged when text looks like a tool call but
	// cannot be parsed. It is never surfaced to callers.
	ErrMalformedToolCall = errors.New("malformed tool call")
)

// TransientBackendError is a retryable model backend failure
// (rate limit, overload, upstream 5xx).
type TransientBackendError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransientBackendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: transient error (HTTP %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: transient error: %v", e.Provider, e.Err)
}

func (e *TransientBackendError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or anything it wraps) is a TransientBackendError.
func IsTransient(err error) bool {
	var te *TransientBackendError
	return errors.As(err, &te)
}

// ToolError is a failure reported by the tool itself, as opposed to a
// failure to reach it. Text is what the tool said.
type ToolError struct {
	Tool string
	Text string
}

func (e *ToolError) Error() string { return fmt.Sprintf("tool %s reported an error: %s", e.Tool, e.Text) }
