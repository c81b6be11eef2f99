// SPDX-License-Identifier: MPL-2.0

package realm

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/m3bridge/internal/cueutil"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/props"
)

var (
	//go:embed realm_schema.cue
	realmSchema []byte

	//go:embed default_realms.cue
	defaultRealms []byte
)

type (
	// Config is a decoded realm configuration.
	Config struct {
		Main   Main              `json:"main"`
		Set    map[string]string `json:"set,omitempty"`
		Realms []Decl            `json:"realms"`
	}

	// Main names the realm and role the launcher runs.
	Main struct {
		Realm string `json:"realm"`
		Entry string `json:"entry"`
	}

	// Decl declares one realm.
	Decl struct {
		ID       string       `json:"id"`
		Parent   string       `json:"parent,omitempty"`
		Imports  []ImportDecl `json:"imports,omitempty"`
		Load     []string     `json:"load,omitempty"`
		Optional []string     `json:"optional,omitempty"`
	}

	// ImportDecl imports role from the realm named From.
	ImportDecl struct {
		Role string `json:"role"`
		From string `json:"from"`
	}
)

// DefaultConfig returns the embedded realm configuration.
func DefaultConfig() []byte {
	return slices.Clone(defaultRealms)
}

// ParseConfig decodes and validates a realm configuration document.
func ParseConfig(data []byte, filename string) (*Config, error) {
	cfg, err := cueutil.Decode[Config](realmSchema, data, "#RealmConfig", cueutil.WithFilename(filename))
	if err != nil {
		return nil, &issue.RealmSetupError{Op: "load realm config", Cause: err}
	}
	return cfg, nil
}

// Apply assigns the configured properties on p and builds the declared
// realms in w. It returns the main realm.
func (c *Config) Apply(w *World, p *props.Properties) (*Realm, error) {
	for _, k := range slices.Sorted(maps.Keys(c.Set)) {
		if !p.Has(k) {
			p.Set(k, props.Interpolate(c.Set[k], p.Lookup))
		}
	}

	for _, decl := range c.Realms {
		parent := w.Root()
		if decl.Parent != "" {
			var err error
			if parent, err = w.Realm(decl.Parent); err != nil {
				return nil, err
			}
		}
		r, err := w.NewRealm(decl.ID, parent)
		if err != nil {
			return nil, err
		}
		for _, imp := range decl.Imports {
			from, err := w.Realm(imp.From)
			if err != nil {
				return nil, err
			}
			r.Import(imp.Role, from)
		}
		if err := loadAll(r, decl.Load, p, false); err != nil {
			return nil, err
		}
		if err := loadAll(r, decl.Optional, p, true); err != nil {
			return nil, err
		}
	}

	mainRealm, err := w.Realm(c.Main.Realm)
	if err != nil {
		return nil, &issue.RealmSetupError{Realm: c.Main.Realm, Op: "resolve main realm", Cause: ErrNoSuchRealm}
	}
	return mainRealm, nil
}

func loadAll(r *Realm, patterns []string, p *props.Properties, optional bool) error {
	for _, pattern := range patterns {
		locs, err := resolvePattern(props.Interpolate(pattern, p.Lookup))
		if err != nil {
			if optional {
				continue
			}
			return &issue.RealmSetupError{Realm: r.ID(), Op: "load " + pattern, Cause: err}
		}
		for _, loc := range locs {
			if _, err := r.AddLocation(loc); err != nil {
				return &issue.RealmSetupError{Realm: r.ID(), Op: "load " + pattern, Cause: err}
			}
		}
	}
	return nil
}

// resolvePattern expands a load entry. Globs may match nothing; plain paths
// must exist.
func resolvePattern(s string) ([]string, error) {
	if strings.Contains(s, "${") {
		return nil, fmt.Errorf("unresolved property in %q", s)
	}
	if strings.Contains(s, "://") {
		return []string{s}, nil
	}
	if strings.ContainsAny(s, "*?[") {
		matches, err := filepath.Glob(s)
		if err != nil {
			return nil, err
		}
		slices.Sort(matches)
		return matches, nil
	}
	if _, err := os.Stat(s); err != nil {
		return nil, err
	}
	return []string{s}, nil
}
