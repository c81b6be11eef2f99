// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/shell"

	"github.com/invowk/m3bridge/internal/issue"
)

type (
	// Manager parses engine command lines against the fixed grammar.
	Manager struct {
		byShort map[string]Option
	}

	// CommandLine is the result of a successful parse.
	CommandLine struct {
		args        []string
		occurrences []occurrence
	}

	occurrence struct {
		name  string
		value string
	}

	// recorder is the pflag.Value behind every option; it appends each
	// Set call to the shared occurrence list.
	recorder struct {
		name    string
		boolean bool
		into    *[]occurrence
	}
)

// NewManager returns a Manager for the engine grammar.
func NewManager() *Manager {
	m := &Manager{byShort: make(map[string]Option, len(options))}
	for _, o := range options {
		m.byShort[o.Short] = o
	}
	return m
}

// Parse parses args. Errors are *issue.ArgumentParseError.
func (m *Manager) Parse(args []string) (*CommandLine, error) {
	cl := &CommandLine{}

	fs := pflag.NewFlagSet("mvn", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SortFlags = false
	for _, o := range options {
		short := ""
		if len(o.Short) == 1 {
			short = o.Short
		}
		f := fs.VarPF(&recorder{name: o.Long, boolean: o.kind == noArg, into: &cl.occurrences}, o.Long, short, o.Usage)
		if o.kind == noArg {
			f.NoOptDefVal = "true"
		}
	}

	if err := fs.Parse(m.normalize(args)); err != nil {
		return nil, &issue.ArgumentParseError{Cause: err}
	}
	cl.args = fs.Args()
	return cl, nil
}

// normalize rewrites multi-letter short options to long ones. Options with
// an optional value take the next token when it is not an option and get an
// explicit empty value otherwise.
func (m *Manager) normalize(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return append(out, args[i:]...)
		}
		o, value, hasValue, ok := m.match(a)
		if !ok {
			out = append(out, a)
			continue
		}
		switch {
		case hasValue:
			out = append(out, "--"+o.Long+"="+value)
		case o.kind == optionalArg && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-"):
			out = append(out, "--"+o.Long+"="+args[i+1])
			i++
		case o.kind == optionalArg:
			out = append(out, "--"+o.Long+"=")
		default:
			out = append(out, "--"+o.Long)
		}
	}
	return out
}

// match recognizes tokens pflag cannot handle on its own: multi-letter
// short options and long options with an optional value.
func (m *Manager) match(a string) (o Option, value string, hasValue, ok bool) {
	if long, found := strings.CutPrefix(a, "--"); found {
		name, value, hasValue := strings.Cut(long, "=")
		o, ok = Lookup(name)
		if !ok || o.kind != optionalArg {
			return Option{}, "", false, false
		}
		return o, value, hasValue, true
	}
	if !strings.HasPrefix(a, "-") || len(a) < 3 {
		return Option{}, "", false, false
	}
	name, value, hasValue := strings.Cut(a[1:], "=")
	o, ok = m.byShort[name]
	if !ok || len(o.Short) == 1 {
		return Option{}, "", false, false
	}
	return o, value, hasValue, true
}

// Usage writes the grammar help text.
func (m *Manager) Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: mvn [options] [<goal(s)>] [<phase(s)>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	for _, o := range options {
		left := fmt.Sprintf(" -%s,--%s", o.Short, o.Long)
		if o.kind != noArg {
			left += " <arg>"
		}
		fmt.Fprintf(w, "%-48s %s\n", left, o.Usage)
	}
}

// SplitArgs splits a whitespace separated argument string the way a POSIX
// shell would, honoring quotes. Variable references are expanded with env
// (nil leaves them empty).
func SplitArgs(text string, env func(string) string) ([]string, error) {
	if env == nil {
		env = func(string) string { return "" }
	}
	fields, err := shell.Fields(text, env)
	if err != nil {
		return nil, &issue.ArgumentParseError{Token: text, Cause: err}
	}
	return fields, nil
}

// Args returns the positional arguments (goals and phases).
func (c *CommandLine) Args() []string {
	if len(c.args) == 0 {
		return nil
	}
	return slices.Clone(c.args)
}

// Has reports whether the option was given. For switches a trailing
// explicit false (--offline=false) counts as absent.
func (c *CommandLine) Has(long string) bool {
	for i := len(c.occurrences) - 1; i >= 0; i-- {
		oc := c.occurrences[i]
		if oc.name != long {
			continue
		}
		if o, _ := Lookup(long); o.kind == noArg {
			return oc.value == "true"
		}
		return true
	}
	return false
}

// Value returns the last value given for the option.
func (c *CommandLine) Value(long string) string {
	for i := len(c.occurrences) - 1; i >= 0; i-- {
		if c.occurrences[i].name == long {
			return c.occurrences[i].value
		}
	}
	return ""
}

// Values returns every value given for the option, in order.
func (c *CommandLine) Values(long string) []string {
	var out []string
	for _, oc := range c.occurrences {
		if oc.name == long {
			out = append(out, oc.value)
		}
	}
	return out
}

// Last returns whichever of the named options was given last, or "".
func (c *CommandLine) Last(longs ...string) string {
	for i := len(c.occurrences) - 1; i >= 0; i-- {
		oc := c.occurrences[i]
		if slices.Contains(longs, oc.name) && c.Has(oc.name) {
			return oc.name
		}
	}
	return ""
}

func (r *recorder) String() string { return "" }

func (r *recorder) Set(s string) error {
	if r.boolean {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid value %q for --%s", s, r.name)
		}
		s = strconv.FormatBool(b)
	}
	*r.into = append(*r.into, occurrence{name: r.name, value: s})
	return nil
}

func (r *recorder) Type() string {
	if r.boolean {
		return "bool"
	}
	return "string"
}
