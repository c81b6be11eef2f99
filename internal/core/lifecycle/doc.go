// SPDX-License-Identifier: MPL-2.0

// Package lifecycle provides the single-use state machine that tracks one
// bridge invocation:
//
//	Unstarted -> RealmsReady -> RequestBuilt -> Executing -> Completed
//	                 any non-terminal state  ->  Aborted
//
// Transitions are compare-and-swap on an atomic state so concurrent
// observers (the transport relay, the remote handler) can read it lock-free.
package lifecycle
