// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "build execution request"},
			expected: "failed to build execution request",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "read user settings", Resource: "/tmp/settings.xml"},
			expected: "failed to read user settings: /tmp/settings.xml",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "open transport",
				Resource:  "127.0.0.1:4711",
				Cause:     errors.New("connection refused"),
			},
			expected: "failed to open transport: 127.0.0.1:4711: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("no such file")
	err := NewErrorContext().
		WithOperation("load realm config").
		WithSuggestion("check CLASSWORLDS_CONF").
		Wrap(fmt.Errorf("open m2.conf: %w", inner)).
		Build()

	short := err.Format(false)
	if !strings.Contains(short, "• check CLASSWORLDS_CONF") {
		t.Errorf("Format(false) missing suggestion: %q", short)
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the chain: %q", short)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "2. no such file") {
		t.Errorf("Format(true) missing chain entry: %q", verbose)
	}
	if !errors.Is(err, inner) {
		t.Error("ActionableError does not unwrap to its cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if got := NewErrorContext().WithResource("x").Build(); got != nil {
		t.Errorf("Build() = %v, want nil", got)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}
	if WrapWithOperation(nil, "noop") != nil {
		t.Error("WrapWithOperation(nil) should be nil")
	}
}
