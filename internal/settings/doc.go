// SPDX-License-Identifier: MPL-2.0

// Package settings reads the build engine's XML settings, toolchains and
// settings-security files and applies the effective values to an execution
// request.
//
// The Builder and ToolchainsBuilder interfaces are the collaborator seams
// used by the request builder; XMLBuilder and XMLToolchainsBuilder are the
// default implementations.
package settings
