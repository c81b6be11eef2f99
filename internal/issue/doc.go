// SPDX-License-Identifier: MPL-2.0

// Package issue provides the bridge's error taxonomy and actionable,
// user-facing error handling.
//
// Typed errors (ArgumentParseError, FileNotFoundError, ValidationError,
// RealmSetupError) wrap package sentinels so callers can branch with
// errors.Is. ActionableError adds the operation, resource and remediation
// hints shown by the CLI, and the issue catalog carries Markdown guidance
// rendered with glamour.
package issue
