// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// EngineHome lays out a fake engine distribution under a fresh temporary
// directory: lib/maven-core-<version>.jar and an empty conf directory. It
// returns the distribution directory.
func EngineHome(t testing.TB, version string) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "maven")
	Touch(t, filepath.Join(home, "lib", "maven-core-"+version+".jar"))
	MustMkdirAll(t, filepath.Join(home, "conf"), 0o755)
	return home
}
