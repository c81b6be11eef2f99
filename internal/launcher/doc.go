// SPDX-License-Identifier: MPL-2.0

// Package launcher builds the realm tree from a realm configuration,
// creates the transport realm next to it and runs the main realm's entry
// with the current realm swapped in.
package launcher
