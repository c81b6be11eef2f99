// SPDX-License-Identifier: MPL-2.0

// Package cli implements the build engine's command line grammar on top of
// spf13/pflag. The engine's multi-letter short options (-ff, -pl, -amd, ...)
// are rewritten to their long forms before parsing, and every option
// occurrence is recorded in order so "last one wins" rules can be applied.
package cli
