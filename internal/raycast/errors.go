package raycast

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned for grid lookups outside the map.
	ErrOutOfRange = errors.New("out of range")
	// ErrSinkRejected is returned when a drawing sink fails to accept a flush.
	ErrSinkRejected = errors.New("sink rejected flush")
)

// SinkError reports which batch failed to flush and why.
type SinkError struct {
	Batch    string
	Vertices int
	Err      error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("flush %s (%d vertices): %v: %v", e.Batch, e.Vertices, ErrSinkRejected, e.Err)
}

// Unwrap exposes both the sentinel and the sink's own error.
func (e *SinkError) Unwrap() []error {
	return []error{ErrSinkRejected, e.Err}
}
