// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"io"
	"runtime"
)

// VersionInfo is the metadata recorded into the system properties and
// printed by -v, -V and -X.
type VersionInfo struct {
	EngineVersion string
	BuildVersion  string
	BridgeVersion string
}

// Banner writes the version banner. engineHome may be empty.
func (v VersionInfo) Banner(w io.Writer, engineHome string) {
	engine := v.EngineVersion
	if engine == "" {
		engine = "unknown"
	}
	fmt.Fprintf(w, "Apache Maven %s", engine)
	if v.BuildVersion != "" && v.BuildVersion != v.EngineVersion {
		fmt.Fprintf(w, " (%s)", v.BuildVersion)
	}
	fmt.Fprintln(w)
	if engineHome != "" {
		fmt.Fprintf(w, "Maven home: %s\n", engineHome)
	}
	if v.BridgeVersion != "" {
		fmt.Fprintf(w, "Bridge version: %s\n", v.BridgeVersion)
	}
	fmt.Fprintf(w, "Go version: %s, runtime: %s\n", runtime.Version(), runtime.Compiler)
	fmt.Fprintf(w, "OS name: %q, arch: %q\n", runtime.GOOS, runtime.GOARCH)
}
