// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include file operations (MustMkdirAll, MustWriteFile,
// Touch), resource cleanup (MustClose) and a fake engine distribution
// (EngineHome).
package testutil
