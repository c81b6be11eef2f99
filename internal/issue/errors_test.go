// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTaxonomySentinels(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{
			name:     "argument parse with token",
			err:      &ArgumentParseError{Token: "-T", Cause: cause},
			sentinel: ErrArgumentParse,
			contains: `unable to parse command line options: "-T": boom`,
		},
		{
			name:     "file not found",
			err:      &FileNotFoundError{Kind: "user settings", Path: "/x/settings.xml"},
			sentinel: ErrFileNotFound,
			contains: "the specified user settings file does not exist: /x/settings.xml",
		},
		{
			name:     "validation",
			err:      &ValidationError{Problems: []string{"a", "b"}},
			sentinel: ErrValidation,
			contains: "invalid execution request: a; b",
		},
		{
			name:     "realm setup",
			err:      &RealmSetupError{Realm: "engine.core", Op: "lookup engine", Cause: cause},
			sentinel: ErrRealmSetup,
			contains: "lookup engine in realm engine.core: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("Error() = %q, want substring %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

func TestArgumentParseErrorKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("bad digit")
	err := &ArgumentParseError{Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("ArgumentParseError does not expose its cause")
	}
	if got := (&ArgumentParseError{}).Error(); got != ErrArgumentParse.Error() {
		t.Errorf("empty ArgumentParseError.Error() = %q", got)
	}
}
