// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEngineHome(t *testing.T) {
	t.Parallel()

	home := EngineHome(t, "3.9.6")
	for _, p := range []string{
		filepath.Join(home, "lib", "maven-core-3.9.6.jar"),
		filepath.Join(home, "conf"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
}

func TestMustWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	MustWriteFile(t, path, []byte("x"))
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "x" {
		t.Errorf("ReadFile() = %q, %v", data, err)
	}
}
