package guard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPolicy indicates a retry or timeout policy outside its allowed range.
	ErrInvalidPolicy = errors.New("invalid guard policy")
	// ErrBodyTooLarge indicates a response body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body exceeds limit")
	// ErrEmptyOutput indicates a local computation exited cleanly but wrote nothing.
	ErrEmptyOutput = errors.New("local computation produced no output")
)

// StatusError reports a completed HTTP exchange with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}
