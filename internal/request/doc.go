// SPDX-License-Identifier: MPL-2.0

// Package request defines the normalized execution request handed to the
// build engine. A Request is populated stage by stage by the builder,
// validated, frozen and then consumed exactly once by the engine invoker.
package request
