// SPDX-License-Identifier: MPL-2.0

// Package props implements the ordered key/value property sets used for user
// properties, system properties and the process-scoped runtime properties.
package props

import (
	"iter"
	"maps"
	"os"
	"slices"
	"strings"
)

// EnvPrefix is prepended to environment variable names when they are
// exposed as system properties.
const EnvPrefix = "env."

type (
	// Properties is an insertion-ordered string map. Setting an existing key
	// replaces its value and keeps its original position.
	// The zero value is ready to use.
	Properties struct {
		keys   []string
		values map[string]string
	}

	// Lookup resolves a property name for interpolation.
	Lookup func(name string) (string, bool)
)

// New returns an empty property set.
func New() *Properties {
	return &Properties{values: make(map[string]string)}
}

// FromMap builds a property set from m with keys in sorted order.
func FromMap(m map[string]string) *Properties {
	p := New()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		p.Set(k, m[k])
	}
	return p
}

// FromEnviron exposes "KEY=VALUE" pairs as env.KEY properties. When environ
// is nil, os.Environ() is used.
func FromEnviron(environ []string) *Properties {
	if environ == nil {
		environ = os.Environ()
	}
	p := New()
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		p.Set(EnvPrefix+k, v)
	}
	return p
}

// Set assigns value to key.
func (p *Properties) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key and whether it is present.
func (p *Properties) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// Value returns the value for key, or "" when absent.
func (p *Properties) Value(key string) string {
	v, _ := p.Get(key)
	return v
}

// Has reports whether key is present.
func (p *Properties) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Bool reports whether key is set to "true" (case-insensitive).
func (p *Properties) Bool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Value(key)), "true")
}

// Delete removes key.
func (p *Properties) Delete(key string) {
	if _, ok := p.Get(key); !ok {
		return
	}
	delete(p.values, key)
	p.keys = slices.DeleteFunc(p.keys, func(k string) bool { return k == key })
}

// Len returns the number of entries.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.keys)
}

// All iterates entries in insertion order.
func (p *Properties) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, p.values[k]) {
				return
			}
		}
	}
}

// PutAll copies every entry of other into p; other's values win.
func (p *Properties) PutAll(other *Properties) {
	for k, v := range other.All() {
		p.Set(k, v)
	}
}

// Clone returns an independent copy.
func (p *Properties) Clone() *Properties {
	c := New()
	c.PutAll(p)
	return c
}

// Map returns a plain map copy.
func (p *Properties) Map() map[string]string {
	m := make(map[string]string, p.Len())
	for k, v := range p.All() {
		m[k] = v
	}
	return m
}

// Lookup adapts p for Interpolate.
func (p *Properties) Lookup(name string) (string, bool) {
	return p.Get(name)
}

// ParseDefinition splits a "-D" definition. A missing "=" (or "=" in first
// position) yields the value "true"; the name is trimmed.
func ParseDefinition(def string) (name, value string) {
	i := strings.IndexByte(def, '=')
	if i <= 0 {
		return strings.TrimSpace(def), "true"
	}
	return strings.TrimSpace(def[:i]), def[i+1:]
}

// Interpolate replaces ${name} references using the first lookup that knows
// the name. Unknown references are left untouched.
func Interpolate(s string, lookups ...Lookup) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var out strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			out.WriteString(s)
			return out.String()
		}
		end := strings.IndexByte(s[start+2:], '}')
		if end < 0 {
			out.WriteString(s)
			return out.String()
		}
		end += start + 2
		out.WriteString(s[:start])
		name := s[start+2 : end]
		if v, ok := resolve(name, lookups); ok {
			out.WriteString(v)
		} else {
			out.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}

func resolve(name string, lookups []Lookup) (string, bool) {
	for _, l := range lookups {
		if l == nil {
			continue
		}
		if v, ok := l(name); ok {
			return v, true
		}
	}
	return "", false
}
