package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the store cannot be reached or fails server side.
	ErrUnavailable = errors.New("store unavailable")
	// ErrRejected is returned when the store refuses the request (bad auth, bad path, rules).
	ErrRejected = errors.New("store rejected request")
	// ErrNotFound is returned when a path holds no value.
	ErrNotFound = errors.New("no value at path")
	// ErrStreamClosed is returned when the server cancels an event stream.
	ErrStreamClosed = errors.New("event stream closed by server")
)

// Error describes a failed store operation.
type Error struct {
	// Op is the primitive that failed (get, put, patch, delete, post, subscribe).
	Op string
	// Path is the database path the operation targeted.
	Path string
	// StatusCode is the HTTP status, 0 when the request never completed.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
