package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the request carried no user identity.
	ErrUnauthenticated = errors.New("unauthorized")
	// ErrForbidden means the conversation belongs to another user.
	ErrForbidden = errors.New("unauthorized access to conversation")
	// ErrNotFound means the conversation does not exist.
	ErrNotFound = errors.New("conversation not found")
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError wraps a model failure: retries exhausted or an unusable response.
// Error returns the caller-facing summary; Details the underlying message.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "generation failed"
}

// Details returns the underlying failure message for diagnostics.
func (e *UpstreamError) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failed store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s", e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
