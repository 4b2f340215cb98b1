// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"errors"
	"fmt"
)

// Lifecycle states. Stopped and Failed are terminal.
const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
	StateFailed
)

// ErrInvalidState is the sentinel error wrapped by InvalidStateError.
var ErrInvalidState = errors.New("invalid state")

var stateNames = [...]string{
	StateCreated:  "CREATED",
	StateStarting: "STARTING",
	StateRunning:  "STARTED",
	StateStopping: "STOPPING",
	StateStopped:  "STOPPED",
	StateFailed:   "FAILED",
}

type (
	// State is a lifecycle state. The numeric value is exported as a metric.
	State int32

	// InvalidStateError is returned by Validate for unknown values.
	InvalidStateError struct {
		Value State
	}
)

// String returns the name used by introspection. Running reads "STARTED",
// matching the lifecycle event vocabulary.
func (s State) String() string {
	if s.Validate() != nil {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Validate returns an error wrapping ErrInvalidState for unknown values.
func (s State) Validate() error {
	if s < StateCreated || s > StateFailed {
		return &InvalidStateError{Value: s}
	}
	return nil
}

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d (valid: 0-%d)", e.Value, StateFailed)
}

// Unwrap returns ErrInvalidState.
func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }
