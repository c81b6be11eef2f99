// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"errors"
	"strconv"
	"strings"

	"github.com/invowk/m3bridge/internal/issue"
)

var errThreadCount = errors.New("must provide a thread count for -T")

// parseThreads parses a -T value. The "C", "W" and "auto" markers are
// stripped in that order wherever they appear and the remainder must be an
// integer; a "C" anywhere multiplies the count by numCPU.
func parseThreads(value string, numCPU int) (int, error) {
	stripped := strings.ReplaceAll(value, "C", "")
	stripped = strings.ReplaceAll(stripped, "W", "")
	stripped = strings.ReplaceAll(stripped, "auto", "")

	n, err := strconv.Atoi(strings.TrimSpace(stripped))
	if err != nil {
		return 0, &issue.ArgumentParseError{Token: value, Cause: errThreadCount}
	}
	if strings.Contains(value, "C") {
		n *= numCPU
	}
	return n, nil
}
