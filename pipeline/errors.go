package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a document already has an enhancement
// attempt in flight.
var ErrInvalidState = errors.New("document is already being processed")

// Error wraps an unexpected fault that aborted an enhancement attempt.
// The document has been marked failed and the fault logged on it before
// this error is surfaced.
type Error struct {
	DocumentID string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enhancement of document %s failed: %v", e.DocumentID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
