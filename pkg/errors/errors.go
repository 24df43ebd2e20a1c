package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrFileTooLarge       = errors.New("file exceeds the upload size limit")
	ErrIndexOutOfRange    = errors.New("track index out of range")
	ErrNoSession          = errors.New("no song loaded")
	ErrAudioOutput        = errors.New("audio output unavailable")
	ErrInvalidFormat      = errors.New("unsupported audio format")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SeparationError wraps failures of the analyze round trip: transport
// errors, non-2xx statuses and malformed response bodies.
type SeparationError struct {
	Op     string // Operation that failed
	Status int    // HTTP status if one was received
	Err    error  // Underlying error
}

func (e *SeparationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("separation %s failed: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("separation %s failed: %v", e.Op, e.Err)
}

func (e *SeparationError) Unwrap() error {
	return e.Err
}

// NewSeparationError creates a new SeparationError
func NewSeparationError(op string, status int, err error) *SeparationError {
	return &SeparationError{Op: op, Status: status, Err: err}
}

// TrackLoadError records that a single stem's source could not be built.
// It degrades the session, it does not fail it: the remaining stems stay
// playable.
type TrackLoadError struct {
	Track string
	Err   error
}

func (e *TrackLoadError) Error() string {
	return fmt.Sprintf("load failed for track %s: %v", e.Track, e.Err)
}

func (e *TrackLoadError) Unwrap() error {
	return e.Err
}
