// SPDX-License-Identifier: MPL-2.0

package realm

import (
	"errors"
	"fmt"
	"sync"

	"github.com/invowk/m3bridge/internal/issue"
)

var (
	// ErrDuplicateRealm is returned when a realm id is already taken.
	ErrDuplicateRealm = errors.New("duplicate realm")
	// ErrNoSuchRealm is returned for unknown realm ids.
	ErrNoSuchRealm = errors.New("no such realm")
)

// World owns the realm tree.
type World struct {
	mu     sync.RWMutex
	root   *Realm
	realms map[string]*Realm
	order  []string
}

// NewWorld returns a world containing only the platform realm.
func NewWorld() *World {
	root := newRealm(PlatformID, nil)
	return &World{
		root:   root,
		realms: map[string]*Realm{PlatformID: root},
		order:  []string{PlatformID},
	}
}

// Root returns the platform realm.
func (w *World) Root() *Realm { return w.root }

// NewRealm creates a realm. A nil parent means the platform realm.
func (w *World) NewRealm(id string, parent *Realm) (*Realm, error) {
	if id == "" {
		return nil, &issue.RealmSetupError{Op: "create realm", Cause: errors.New("empty realm id")}
	}
	if parent == nil {
		parent = w.root
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.realms[id]; ok {
		return nil, &issue.RealmSetupError{Realm: id, Op: "create realm", Cause: ErrDuplicateRealm}
	}
	if w.realms[parent.id] != parent {
		return nil, &issue.RealmSetupError{Realm: id, Op: "create realm", Cause: fmt.Errorf("parent %s belongs to another world", parent.id)}
	}
	r := newRealm(id, parent)
	w.realms[id] = r
	w.order = append(w.order, id)
	return r, nil
}

// Realm returns the realm with id.
func (w *World) Realm(id string) (*Realm, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.realms[id]
	if !ok {
		return nil, &issue.RealmSetupError{Realm: id, Op: "find realm", Cause: ErrNoSuchRealm}
	}
	return r, nil
}

// Realms returns every realm in creation order.
func (w *World) Realms() []*Realm {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Realm, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.realms[id])
	}
	return out
}
