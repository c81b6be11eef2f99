// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/invowk/m3bridge/pkg/types"
)

// ErrTransition is wrapped by every rejected transition.
var ErrTransition = errors.New("invalid lifecycle transition")

type (
	// Machine tracks one invocation. It is single-use.
	Machine struct {
		state atomic.Int32

		mu       sync.Mutex
		outcome  Outcome
		exitCode types.ExitCode
		lastErr  error

		observer func(from, to State)
	}

	// Option configures a Machine.
	Option func(*Machine)
)

// WithObserver registers a callback invoked after every transition.
func WithObserver(fn func(from, to State)) Option {
	return func(m *Machine) {
		m.observer = fn
	}
}

// New returns a machine in StateUnstarted.
func New(opts ...Option) *Machine {
	m := &Machine{}
	m.state.Store(int32(StateUnstarted))
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state (atomic, lock-free read).
func (m *Machine) State() State {
	return State(m.state.Load())
}

// RealmsReady moves Unstarted -> RealmsReady.
func (m *Machine) RealmsReady() error {
	return m.advance(StateUnstarted, StateRealmsReady)
}

// RequestBuilt moves RealmsReady -> RequestBuilt.
func (m *Machine) RequestBuilt() error {
	return m.advance(StateRealmsReady, StateRequestBuilt)
}

// Executing moves RequestBuilt -> Executing. A cancelled context aborts
// the machine instead.
func (m *Machine) Executing(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		cause := fmt.Errorf("context cancelled before execution: %w", err)
		_ = m.Abort(types.ExitFailure, cause)
		return cause
	}
	return m.advance(StateRequestBuilt, StateExecuting)
}

// Complete moves Executing -> Completed with the given outcome.
func (m *Machine) Complete(withErrors bool) error {
	m.mu.Lock()
	if !m.state.CompareAndSwap(int32(StateExecuting), int32(StateCompleted)) {
		m.mu.Unlock()
		return m.rejected(StateCompleted)
	}
	m.outcome = OutcomeSuccess
	m.exitCode = types.ExitSuccess
	if withErrors {
		m.outcome = OutcomeWithErrors
		m.exitCode = types.ExitFailure
	}
	m.mu.Unlock()

	m.notify(StateExecuting, StateCompleted)
	return nil
}

// Abort moves any non-terminal state to Aborted, recording the exit code
// and cause.
func (m *Machine) Abort(code types.ExitCode, cause error) error {
	for {
		cur := m.State()
		if cur.IsTerminal() {
			return m.rejected(StateAborted)
		}
		m.mu.Lock()
		if m.state.CompareAndSwap(int32(cur), int32(StateAborted)) {
			m.exitCode = code
			m.lastErr = cause
			m.mu.Unlock()
			m.notify(cur, StateAborted)
			return nil
		}
		m.mu.Unlock()
	}
}

// Outcome returns the completion outcome, or OutcomeNone.
func (m *Machine) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// ExitCode returns the exit code recorded by Complete or Abort.
func (m *Machine) ExitCode() types.ExitCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitCode
}

// Err returns the cause recorded by Abort, or nil.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Machine) advance(from, to State) error {
	if !m.state.CompareAndSwap(int32(from), int32(to)) {
		return m.rejected(to)
	}
	m.notify(from, to)
	return nil
}

func (m *Machine) rejected(to State) error {
	return fmt.Errorf("%w: cannot move from %s to %s", ErrTransition, m.State(), to)
}

func (m *Machine) notify(from, to State) {
	if m.observer != nil {
		m.observer(from, to)
	}
}
