package rotation

import "fmt"

// ValidationError means the input shape is wrong (e.g. wrong player count
// for the match type). Maps to 400 at the HTTP edge.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError means a referenced session/court/entry/match does not exist
// or is not visible to the caller. Maps to 404.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError means a state-machine precondition failed (court not
// available, match not active, player already queued, ...). Maps to 409.
// The caller resolves it; the core never retries.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func notFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}
