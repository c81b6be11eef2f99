// SPDX-License-Identifier: MPL-2.0

// Package config handles m3bridge configuration using Viper with CUE as the
// file format.
//
// Configuration is loaded from config.cue in the m3bridge directory under
// the XDG config home, then from ./config.cue. Files are validated against
// the embedded schema (config_schema.cue) before being merged over the
// defaults, and M3BRIDGE_* environment variables override both.
package config
