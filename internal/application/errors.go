package application

import (
	"fmt"
	"strings"
)

// ValidationError reports caller-supplied input that cannot be accepted.
// For submissions Missing carries every failed field name, not just the
// first, using the wire names the client sent.
type ValidationError struct {
	Msg     string
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return e.Msg + ": " + strings.Join(e.Missing, ", ")
	}
	return e.Msg
}

// NotFoundError reports an id that resolves to no stored application.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("application %s not found", e.ID)
}

// DependencyError wraps a record store or notification failure.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DependencyError) Unwrap() error { return e.Err }
