// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/invowk/m3bridge/internal/issue"
)

// PropRuntimeVersion overrides the hosting runtime version.
const PropRuntimeVersion = "go.version"

// RuntimeUnsupportedError reports a hosting runtime below the minimum.
type RuntimeUnsupportedError struct {
	Current string
	Minimum string
}

// Error implements the error interface.
func (e *RuntimeUnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s is older than the required %s", issue.ErrRuntimeUnsupported, e.Current, e.Minimum)
}

// Unwrap returns issue.ErrRuntimeUnsupported for errors.Is() compatibility.
func (e *RuntimeUnsupportedError) Unwrap() error { return issue.ErrRuntimeUnsupported }

// CheckRuntime compares current against minimum. Either value being empty
// or unparseable skips the check. A "go" prefix is ignored, so
// runtime.Version() values compare as plain versions.
func CheckRuntime(current, minimum string) error {
	if current == "" {
		current = runtime.Version()
	}
	if minimum == "" {
		return nil
	}
	cur, err := semver.NewVersion(strings.TrimPrefix(current, "go"))
	if err != nil {
		return nil
	}
	limit, err := semver.NewVersion(strings.TrimPrefix(minimum, "go"))
	if err != nil {
		return nil
	}
	if cur.LessThan(limit) {
		return &RuntimeUnsupportedError{Current: current, Minimum: minimum}
	}
	return nil
}
