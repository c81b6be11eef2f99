// SPDX-License-Identifier: MPL-2.0

// Package builder turns raw engine arguments, the environment, runtime
// properties and the settings and toolchains files into one frozen
// execution request.
//
// Build runs ten strictly ordered stages; each stage only reads what the
// earlier ones produced. Help, version and the password encryption
// shortcuts stop the build with an *ExitError carrying exit code 0.
package builder
