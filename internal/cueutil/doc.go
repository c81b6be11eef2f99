// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Both the realm configuration and the user config file go through the same
// three steps: compile the schema, compile and unify the user document, then
// validate and decode into a Go struct. Errors carry the offending path in
// JSON-path notation (realms[0].load).
package cueutil
