// SPDX-License-Identifier: MPL-2.0

package realm

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/invowk/m3bridge/internal/issue"
)

const (
	// PlatformID is the id of the root realm.
	PlatformID = "platform"
	// TransportID is the realm carrying the remote communication channel.
	TransportID = "transport"
)

// ErrComponentNotFound is returned when no realm on the lookup path
// provides a role.
var ErrComponentNotFound = errors.New("component not found")

type (
	// Realm is one node of the realm tree.
	Realm struct {
		id     string
		parent *Realm

		mu         sync.RWMutex
		locations  []string
		components map[string]any
		imports    []importEntry
	}

	importEntry struct {
		role string
		from *Realm
	}
)

func newRealm(id string, parent *Realm) *Realm {
	return &Realm{id: id, parent: parent, components: make(map[string]any)}
}

// ID returns the realm id.
func (r *Realm) ID() string { return r.id }

// Parent returns the parent realm, or nil for the root.
func (r *Realm) Parent() *Realm { return r.parent }

// AddLocation appends an archive location. Locations are normalized to
// file URLs and duplicates are ignored; the return value reports whether
// the location was new.
func (r *Realm) AddLocation(location string) (bool, error) {
	norm, err := NormalizeLocation(location)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.locations, norm) {
		return false, nil
	}
	r.locations = append(r.locations, norm)
	return true, nil
}

// Locations returns the locations in insertion order.
func (r *Realm) Locations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.locations)
}

// Provide registers a component for role in this realm.
func (r *Realm) Provide(role string, component any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[role] = component
}

// Import makes role from another realm visible in this one.
func (r *Realm) Import(role string, from *Realm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imports = append(r.imports, importEntry{role: role, from: from})
}

// Lookup resolves role from this realm, its imports, then its ancestors.
// Errors are *issue.RealmSetupError wrapping ErrComponentNotFound.
func (r *Realm) Lookup(role string) (any, error) {
	for cur := r; cur != nil; cur = cur.parent {
		if c, ok := cur.local(role); ok {
			return c, nil
		}
	}
	return nil, &issue.RealmSetupError{
		Realm: r.id,
		Op:    "lookup " + role,
		Cause: ErrComponentNotFound,
	}
}

func (r *Realm) local(role string) (any, bool) {
	r.mu.RLock()
	c, ok := r.components[role]
	imports := r.imports
	r.mu.RUnlock()
	if ok {
		return c, true
	}
	for _, imp := range imports {
		if imp.role != role {
			continue
		}
		if c, ok := imp.from.own(role); ok {
			return c, true
		}
	}
	return nil, false
}

// own returns a component registered directly on r.
func (r *Realm) own(role string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[role]
	return c, ok
}

// LookupAs resolves role and asserts its type.
func LookupAs[T any](r *Realm, role string) (T, error) {
	var zero T
	c, err := r.Lookup(role)
	if err != nil {
		return zero, err
	}
	t, ok := c.(T)
	if !ok {
		return zero, &issue.RealmSetupError{
			Realm: r.id,
			Op:    "lookup " + role,
			Cause: fmt.Errorf("component has type %T, want %T", c, zero),
		}
	}
	return t, nil
}

// NormalizeLocation turns a path or URL into an absolute URL string.
// Plain paths become file URLs.
func NormalizeLocation(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", errors.New("empty realm location")
	}
	if strings.Contains(location, "://") {
		u, err := url.Parse(location)
		if err != nil {
			return "", fmt.Errorf("invalid realm location %q: %w", location, err)
		}
		if u.Scheme == "file" {
			u.Path = filepath.ToSlash(filepath.Clean(filepath.FromSlash(u.Path)))
		}
		return u.String(), nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("invalid realm location %q: %w", location, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String(), nil
}

// LocationPath converts a file URL back to a filesystem path. Other schemes
// are returned unchanged.
func LocationPath(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "file" {
		return location
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}
