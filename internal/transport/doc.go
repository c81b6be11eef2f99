// SPDX-License-Identifier: MPL-2.0

// Package transport connects the bridge to the orchestrator over TCP and
// relays the connection to a Handler.
//
// A Session is a buffered duplex stream whose halves close independently:
// CloseWrite flushes and signals end of stream to the peer while reads keep
// working, and CloseRead leaves the write half usable.
package transport
