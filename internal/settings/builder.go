// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/request"
)

type (
	// Request names the settings files to merge and the properties used to
	// interpolate ${...} references inside them.
	Request struct {
		UserFile         string
		GlobalFile       string
		UserProperties   *props.Properties
		SystemProperties *props.Properties
	}

	// Problem is a non-fatal issue found while reading a file.
	Problem struct {
		Source  string
		Message string
	}

	// Result is the effective (merged) settings and the problems found.
	Result struct {
		Effective *Settings
		Problems  []Problem
	}

	// Builder produces effective settings from a Request.
	Builder interface {
		Build(ctx context.Context, req *Request) (*Result, error)
	}

	// XMLBuilder reads settings.xml files from disk. User settings dominate
	// global settings.
	XMLBuilder struct{}
)

// String implements fmt.Stringer.
func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Source, p.Message)
}

// Build implements Builder.
func (XMLBuilder) Build(ctx context.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{}
	lookups := []props.Lookup{req.UserProperties.Lookup, req.SystemProperties.Lookup}

	global := readInterpolated[Settings](req.GlobalFile, lookups, &res.Problems)
	user := readInterpolated[Settings](req.UserFile, lookups, &res.Problems)
	res.Effective = merge(user, global)
	return res, nil
}

// readInterpolated reads path, expands ${...} references and decodes it. A
// missing file yields nil without a problem.
func readInterpolated[T any](path string, lookups []props.Lookup, problems *[]Problem) *T {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			*problems = append(*problems, Problem{Source: path, Message: err.Error()})
		}
		return nil
	}
	var v T
	if err := xml.Unmarshal([]byte(props.Interpolate(string(data), lookups...)), &v); err != nil {
		*problems = append(*problems, Problem{Source: path, Message: "Non-parseable file: " + err.Error()})
		return nil
	}
	return &v
}

// merge folds recessive into dominant. Scalars keep the dominant value when
// set; id-keyed lists keep dominant entries first.
func merge(dominant, recessive *Settings) *Settings {
	switch {
	case dominant == nil && recessive == nil:
		return &Settings{}
	case dominant == nil:
		return recessive
	case recessive == nil:
		return dominant
	}

	out := *dominant
	if out.LocalRepository == "" {
		out.LocalRepository = recessive.LocalRepository
	}
	if out.InteractiveMode == nil {
		out.InteractiveMode = recessive.InteractiveMode
	}
	out.Offline = dominant.Offline || recessive.Offline
	out.PluginGroups = mergeStrings(dominant.PluginGroups, recessive.PluginGroups)
	out.ActiveProfiles = mergeStrings(dominant.ActiveProfiles, recessive.ActiveProfiles)
	out.Servers = mergeByID(dominant.Servers, recessive.Servers, func(s Server) string { return s.ID })
	out.Mirrors = mergeByID(dominant.Mirrors, recessive.Mirrors, func(m Mirror) string { return m.ID })
	out.Profiles = mergeByID(dominant.Profiles, recessive.Profiles, func(p Profile) string { return p.ID })
	return &out
}

func mergeStrings(dominant, recessive []string) []string {
	out := slices.Clone(dominant)
	for _, s := range recessive {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func mergeByID[T any](dominant, recessive []T, id func(T) string) []T {
	out := slices.Clone(dominant)
	for _, r := range recessive {
		if !slices.ContainsFunc(out, func(d T) bool { return id(d) == id(r) }) {
			out = append(out, r)
		}
	}
	return out
}

// Populate applies effective settings to req. It runs before the command
// line flags are applied, so flags still override what is set here.
func Populate(req *request.Request, s *Settings) error {
	if s == nil {
		return nil
	}
	req.Offline = s.Offline
	if s.InteractiveMode != nil {
		req.Interactive = *s.InteractiveMode
	}
	if s.LocalRepository != "" {
		req.LocalRepository = s.LocalRepository
	}

	var errs []error
	for _, g := range s.PluginGroups {
		errs = append(errs, req.AddPluginGroup(g))
	}
	for _, m := range s.Mirrors {
		errs = append(errs, req.AddMirror(request.Mirror(m)))
	}
	for _, srv := range s.Servers {
		errs = append(errs, req.AddServer(request.Server(srv)))
	}
	for _, p := range s.ActiveProfiles {
		errs = append(errs, req.AddActiveProfile(p))
	}
	return errors.Join(errs...)
}
