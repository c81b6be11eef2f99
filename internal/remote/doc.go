// SPDX-License-Identifier: MPL-2.0

// Package remote lets an orchestrator drive the bridge over the relayed
// connection.
//
// Both directions carry a CBOR sequence. Every request frame is a Message
// naming an Op; the bridge answers with a Reply echoing the message ID and
// interleaves OpEvent frames while a launch runs. The session ends with
// OpExit or when the orchestrator closes its write half.
package remote
