// SPDX-License-Identifier: MPL-2.0

package props

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDefinition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def       string
		wantName  string
		wantValue string
	}{
		{def: "skipTests", wantName: "skipTests", wantValue: "true"},
		{def: " skipTests ", wantName: "skipTests", wantValue: "true"},
		{def: "a=b", wantName: "a", wantValue: "b"},
		{def: "a=b=c", wantName: "a", wantValue: "b=c"},
		{def: "empty=", wantName: "empty", wantValue: ""},
		{def: "=oops", wantName: "=oops", wantValue: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()

			name, value := ParseDefinition(tt.def)
			if name != tt.wantName || value != tt.wantValue {
				t.Errorf("ParseDefinition(%q) = (%q, %q), want (%q, %q)", tt.def, name, value, tt.wantName, tt.wantValue)
			}
		})
	}
}

func TestPropertiesOrderAndOverride(t *testing.T) {
	t.Parallel()

	p := New()
	p.Set("b", "1")
	p.Set("a", "2")
	p.Set("b", "3")

	if diff := cmp.Diff([]string{"b", "a"}, p.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got := p.Value("b"); got != "3" {
		t.Errorf("later Set should win, got %q", got)
	}

	p.Delete("b")
	if _, ok := p.Get("b"); ok || p.Len() != 1 {
		t.Errorf("Delete left entry behind: %v", p.Map())
	}
}

func TestPutAllOverlay(t *testing.T) {
	t.Parallel()

	sys := FromEnviron([]string{"HOME=/home/dev", "BROKEN", "=x"})
	runtime := FromMap(map[string]string{"user.home": "/home/dev", "env.HOME": "/override"})
	sys.PutAll(runtime)

	want := map[string]string{"env.HOME": "/override", "user.home": "/home/dev"}
	if diff := cmp.Diff(want, sys.Map()); diff != "" {
		t.Errorf("overlay mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpolate(t *testing.T) {
	t.Parallel()

	user := FromMap(map[string]string{"repo": "/u/repo"})
	system := FromMap(map[string]string{"repo": "/s/repo", "user.home": "/home/dev"})

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "${repo}/x", want: "/u/repo/x"},
		{in: "${user.home}/.m2", want: "/home/dev/.m2"},
		{in: "${missing}-${repo}", want: "${missing}-/u/repo"},
		{in: "${unterminated", want: "${unterminated"},
	}

	for _, tt := range tests {
		if got := Interpolate(tt.in, user.Lookup, nil, system.Lookup); got != tt.want {
			t.Errorf("Interpolate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNilSafeAccessors(t *testing.T) {
	t.Parallel()

	var p *Properties
	if p.Len() != 0 || p.Keys() != nil || p.Value("x") != "" {
		t.Error("nil Properties accessors should be empty")
	}
	var zero Properties
	zero.Set("k", "v")
	zero.Set("flag", "TRUE")
	if zero.Value("k") != "v" || !zero.Bool("flag") || zero.Bool("missing") {
		t.Errorf("zero Properties should be usable: %v", zero.Map())
	}
}
