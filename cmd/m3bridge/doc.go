// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the m3bridge CLI.
//
// The root command takes the positional bridge arguments and hands them to
// internal/bootstrap. The config subcommands manage the configuration file
// and the request subcommand prints the execution request an engine
// invocation would receive without running anything.
package cmd
