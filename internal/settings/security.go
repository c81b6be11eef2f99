// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// SecurityLocationProperty overrides the settings-security file location.
	SecurityLocationProperty = "settings.security"
	// DefaultSecurityFile is the default settings-security location.
	DefaultSecurityFile = "~/.m2/settings-security.xml"

	maxRelocations = 8
)

// ExpandHome replaces a leading "~" with userHome.
func ExpandHome(path, userHome string) string {
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		return filepath.Join(userHome, rest)
	}
	return path
}

// ReadSecurity reads a settings-security file, following <relocation>
// entries. A missing file returns (nil, nil).
func ReadSecurity(path string) (*Security, error) {
	seen := make(map[string]bool)
	for range maxRelocations {
		if seen[path] {
			return nil, fmt.Errorf("relocation cycle at %s", path)
		}
		seen[path] = true

		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var sec Security
		if err := xml.Unmarshal(data, &sec); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if sec.Relocation == "" {
			return &sec, nil
		}
		rel := strings.TrimSpace(sec.Relocation)
		if !filepath.IsAbs(rel) {
			rel = filepath.Join(filepath.Dir(path), rel)
		}
		path = rel
	}
	return nil, fmt.Errorf("too many relocations starting at %s", path)
}
