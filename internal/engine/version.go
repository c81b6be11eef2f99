// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrVersionUnknown is returned when no engine core archive is found.
var ErrVersionUnknown = errors.New("engine version unknown")

// DetectVersion reads the engine version from the maven-core archive name
// under ${home}/lib. The highest version wins when several are present.
func DetectVersion(home string) (*semver.Version, error) {
	matches, err := filepath.Glob(filepath.Join(home, "lib", "maven-core-*.jar"))
	if err != nil {
		return nil, err
	}
	var best *semver.Version
	for _, m := range matches {
		raw := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "maven-core-"), ".jar")
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no maven-core archive in %s", ErrVersionUnknown, filepath.Join(home, "lib"))
	}
	return best, nil
}
