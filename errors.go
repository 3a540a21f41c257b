package kestrel

import (
	"errors"
	"fmt"
)

// ErrWriteZero is returned by WriteAll when an underlying Write call
// reports zero bytes written against a non-empty buffer. A plain
// Write call never returns this error — it surfaces (0, nil)
// faithfully, leaving the zero-byte observation to the caller.
var ErrWriteZero = errors.New("kestrel: write returned zero bytes")

// ErrNoContext reports that no runtime is active in the current
// context. The package's own panics for spawn, sleep, or I/O called
// outside an active BlockOn frame carry a plain string message and do
// not wrap this value.
var ErrNoContext = errors.New("kestrel: no runtime in current context")

// TimeoutError is returned by Timeout when the deadline elapses before
// the wrapped future resolves. It is a distinct type from any OS
// error, so callers can tell "timed out" apart from a failed syscall.
type TimeoutError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "kestrel: operation timed out"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TimeoutError) Unwrap() error { return e.Cause }

// InvalidInputError reports a malformed path or argument rejected
// before any syscall was attempted (e.g. a null byte in a path).
type InvalidInputError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	if e.Message == "" {
		return "kestrel: invalid input"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *InvalidInputError) Unwrap() error { return e.Cause }

// PanicError wraps a panic value recovered from a task body. Task
// bodies never let a panic unwind into the executor loop; the task
// resolves with the zero value of its result type instead, and the
// panic is recorded here, retrievable via JoinHandle[T].Err.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e PanicError) Error() string {
	return fmt.Sprintf("kestrel: task panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is itself an
// error, enabling [errors.Is] and [errors.As] through the cause chain.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// WrapError wraps cause with a message, preserving it for errors.Is.
//
// The result satisfies errors.Is(result, cause) == true.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// ensureFeature panics with a remediation hint if enabled is false, so
// a gated-API misuse is immediately actionable.
func ensureFeature(enabled bool, name, hint string) {
	if !enabled {
		panic(fmt.Sprintf("kestrel: %s support not enabled. Use %s.", name, hint))
	}
}
