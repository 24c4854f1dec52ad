package api

import (
	"errors"
	"fmt"
)

// ErrAuthExpired marks a collaborator response that rejected the current
// credential. By the time a caller sees it, the session has already been
// invalidated process-wide.
var ErrAuthExpired = errors.New("authentication expired")

// NetworkError covers timeouts and transport failures. State on both
// sides is untouched; the caller may retry manually.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a non-401 error response from a collaborator, carrying
// the server's message when it sent one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("collaborator returned status %d", e.Code)
	}
	return fmt.Sprintf("collaborator returned status %d: %s", e.Code, e.Message)
}
