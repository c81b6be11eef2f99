// SPDX-License-Identifier: MPL-2.0

// Package engine runs frozen execution requests against the build engine
// found in the current realm and keeps the outcome for later inspection.
//
// Build failures are values: an Engine reports them inside RawResult and
// the Invoker wraps them, together with any failure met while building the
// request, in an ExecutionResult held by a Store.
package engine
