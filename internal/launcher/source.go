// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"cmp"
	"fmt"
	"os"

	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/realm"
)

const (
	// PropRealmsConf names a realm configuration file to use instead of the
	// embedded default.
	PropRealmsConf = "classworlds.conf"
	// EnvRealmsConf is the environment form of PropRealmsConf.
	EnvRealmsConf = "CLASSWORLDS_CONF"

	defaultSourceName = "default_realms.cue"
)

// Source is a realm configuration document.
type Source struct {
	Name string
	Data []byte
}

// ResolveSource picks the realm configuration: the classworlds.conf runtime
// property, then the classworlds.conf or CLASSWORLDS_CONF environment
// variables, then configured (the realms.conf config key), then the
// embedded default. A nil getenv means os.Getenv.
func ResolveSource(rt *props.Properties, getenv func(string) string, configured string) (Source, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	path := cmp.Or(rt.Value(PropRealmsConf), getenv(PropRealmsConf), getenv(EnvRealmsConf), configured)
	if path == "" {
		return Source{Name: defaultSourceName, Data: realm.DefaultConfig()}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, &issue.RealmSetupError{Op: "read realm config " + path, Cause: err}
	}
	return Source{Name: path, Data: data}, nil
}

// String implements fmt.Stringer.
func (s Source) String() string {
	return fmt.Sprintf("%s (%d bytes)", s.Name, len(s.Data))
}
