// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"
)

const (
	// StateUnstarted is the initial state.
	StateUnstarted State = iota
	// StateRealmsReady means the realm tree is built.
	StateRealmsReady
	// StateRequestBuilt means the execution request is frozen.
	StateRequestBuilt
	// StateExecuting means the engine is running the request.
	StateExecuting
	// StateCompleted is terminal: the engine returned a result.
	StateCompleted
	// StateAborted is terminal: the invocation stopped before a result.
	StateAborted
)

const (
	// OutcomeNone is reported before completion.
	OutcomeNone Outcome = iota
	// OutcomeSuccess means the build succeeded.
	OutcomeSuccess
	// OutcomeWithErrors means the engine ran but reported build failures.
	OutcomeWithErrors
)

// ErrInvalidState is returned when a State value is not one of the defined states.
var ErrInvalidState = errors.New("invalid state")

type (
	// State is a lifecycle state.
	State int32

	// Outcome qualifies StateCompleted.
	Outcome int

	// InvalidStateError is returned when a State value is not recognized.
	InvalidStateError struct {
		Value State
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRealmsReady:
		return "realms-ready"
	case StateRequestBuilt:
		return "request-built"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Validate returns an error wrapping ErrInvalidState for unknown values.
func (s State) Validate() error {
	if s < StateUnstarted || s > StateAborted {
		return &InvalidStateError{Value: s}
	}
	return nil
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateAborted
}

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeWithErrors:
		return "with-errors"
	default:
		return "none"
	}
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d (valid: 0=unstarted .. 5=aborted)", e.Value)
}

// Unwrap returns ErrInvalidState for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }
