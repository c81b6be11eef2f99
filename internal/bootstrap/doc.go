// SPDX-License-Identifier: MPL-2.0

// Package bootstrap is the process entry of the bridge. It validates the
// engine home, seeds the runtime properties, builds the realm tree, wires the
// engine invoker and the remote handler into their realms, then relays the
// orchestrator connection until the handler returns the exit code.
package bootstrap
