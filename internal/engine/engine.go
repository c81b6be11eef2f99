// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/invowk/m3bridge/internal/request"
)

// Role is the realm component role an Engine is provided under.
const Role = "engine"

// ErrBuildFailed is the sentinel wrapped by BuildFailureError.
var ErrBuildFailed = errors.New("build failed")

type (
	// Engine executes one request. Implementations must not return build
	// failures as errors; they belong in RawResult.Failures.
	Engine interface {
		Execute(ctx context.Context, req *request.Request) *RawResult
	}

	// RawResult is what the engine reports for one execution.
	RawResult struct {
		// Projects lists the projects the engine started, in build order.
		Projects []string
		Failures []error
		// ExitStatus is the engine's own status; zero when it ran in process.
		ExitStatus int
	}

	// BuildFailureError is a build-logic failure reported by the engine.
	BuildFailureError struct {
		Project string
		Message string
	}

	// ExecutionResult wraps the raw result with the failures met while
	// building the request.
	ExecutionResult struct {
		ID              uuid.UUID
		Raw             *RawResult
		RequestFailures []error
		Started         time.Time
		Finished        time.Time
	}
)

// Error implements the error interface.
func (e *BuildFailureError) Error() string {
	switch {
	case e.Project != "" && e.Message != "":
		return fmt.Sprintf("%s: project %s: %s", ErrBuildFailed, e.Project, e.Message)
	case e.Project != "":
		return fmt.Sprintf("%s: project %s", ErrBuildFailed, e.Project)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", ErrBuildFailed, e.Message)
	default:
		return ErrBuildFailed.Error()
	}
}

// Unwrap returns ErrBuildFailed for errors.Is() compatibility.
func (e *BuildFailureError) Unwrap() error { return ErrBuildFailed }

// NewExecutionResult stamps a result with a fresh id.
func NewExecutionResult(raw *RawResult, requestFailures []error, started time.Time) *ExecutionResult {
	return &ExecutionResult{
		ID:              uuid.New(),
		Raw:             raw,
		RequestFailures: slices.Clone(requestFailures),
		Started:         started,
		Finished:        time.Now(),
	}
}

// Failures returns the request failures followed by the engine failures.
func (r *ExecutionResult) Failures() []error {
	out := slices.Clone(r.RequestFailures)
	if r.Raw != nil {
		out = append(out, r.Raw.Failures...)
	}
	return out
}

// HasFailures reports whether anything failed.
func (r *ExecutionResult) HasFailures() bool {
	return len(r.RequestFailures) > 0 || (r.Raw != nil && len(r.Raw.Failures) > 0)
}

// Duration is the wall time between Started and Finished.
func (r *ExecutionResult) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
