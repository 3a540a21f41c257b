package kestrel

import "sync/atomic"

// RuntimeState represents the lifecycle of a Runtime.
//
//	StateIdle (0) → StateRunning (1)         [BlockOn()]
//	StateRunning (1) → StateIdle (0)          [BlockOn() returns]
//	StateIdle (0) → StateTerminated (3)       [Shutdown()]
//	StateTerminated (3) → (terminal)
//
// StateShuttingDown (2) is defined but Runtime never enters it.
type RuntimeState uint64

const (
	// StateIdle indicates the runtime has been created but BlockOn has
	// never been called, or a prior BlockOn call has returned.
	StateIdle RuntimeState = 0
	// StateRunning indicates a BlockOn call is actively driving the
	// executor loop.
	StateRunning RuntimeState = 1
	// StateShuttingDown is not entered by Runtime: Shutdown moves an
	// idle runtime straight to StateTerminated.
	StateShuttingDown RuntimeState = 2
	// StateTerminated indicates the runtime will never run again.
	StateTerminated RuntimeState = 3
)

// String returns a human-readable representation of the state.
func (s RuntimeState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state machine, cache-line padded to avoid
// false sharing with neighboring fields.
type FastState struct { //nolint:structcheck
	_ [64]byte
	v atomic.Uint64
	_ [56]byte
}

// NewFastState creates a new state machine in StateIdle.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateIdle))
	return s
}

// Load returns the current state atomically.
func (s *FastState) Load() RuntimeState {
	return RuntimeState(s.v.Load())
}

// Store atomically stores a new, irreversible state. Use TryTransition
// for states that may be revisited (Running/Idle); Store is for
// one-way transitions such as Terminated.
func (s *FastState) Store(state RuntimeState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to
// another, returning whether it succeeded.
func (s *FastState) TryTransition(from, to RuntimeState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// IsTerminal reports whether the runtime will never run again.
func (s *FastState) IsTerminal() bool {
	return s.Load() == StateTerminated
}
