// SPDX-License-Identifier: MPL-2.0

package request

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/props"
)

// ErrFrozen is returned by mutators once the request has been frozen.
var ErrFrozen = errors.New("execution request is frozen")

var defaultPluginGroups = []string{"org.apache.maven.plugins", "org.codehaus.mojo"}

// Request is one normalized build invocation.
//
// Scalar fields are written directly by the builder stages; collection
// fields go through the Add/Set methods, which refuse changes after Freeze.
// The engine invoker only accepts frozen requests and hands the engine a
// Clone, so a request is never mutated after handoff.
type Request struct {
	Args  []string
	Goals []string

	WorkingDir     string
	BaseDir        string
	MultiModuleDir string

	Debug      bool
	Quiet      bool
	ShowErrors bool
	LogLevel   LogLevel
	LogFile    string

	UserProperties   *props.Properties
	SystemProperties *props.Properties

	SelectedProjects []string
	ExcludedProjects []string
	ActiveProfiles   []string
	InactiveProfiles []string

	DegreeOfConcurrency int
	BuilderID           string
	FailureBehavior     FailureBehavior
	ChecksumPolicy      ChecksumPolicy
	MakeBehavior        MakeBehavior
	ResumeFrom          string

	Interactive        bool
	Recursive          bool
	Offline            bool
	UpdateSnapshots    bool
	NoSnapshotUpdates  bool
	CacheNotFound      bool
	CacheTransferError bool
	Color              bool
	NoTransferProgress bool

	LocalRepository          string
	UseLegacyLocalRepository bool

	UserSettingsFile     string
	GlobalSettingsFile   string
	UserToolchainsFile   string
	GlobalToolchainsFile string
	Pom                  string

	PluginGroups []string
	Mirrors      []Mirror
	Servers      []Server
	Toolchains   map[string][]Toolchain

	Listener  Listener
	StartTime time.Time

	frozen bool
}

// New returns a request carrying the engine defaults.
func New() *Request {
	return &Request{
		LogLevel:            LevelInfo,
		UserProperties:      props.New(),
		SystemProperties:    props.New(),
		DegreeOfConcurrency: 1,
		BuilderID:           BuilderSingleThreaded,
		FailureBehavior:     FailFast,
		Interactive:         true,
		Recursive:           true,
		CacheNotFound:       true,
		Color:               true,
		Toolchains:          make(map[string][]Toolchain),
		StartTime:           time.Now(),
	}
}

// Frozen reports whether Freeze succeeded.
func (r *Request) Frozen() bool { return r.frozen }

// SetUserProperty records a user property; later values win.
func (r *Request) SetUserProperty(name, value string) error {
	if r.frozen {
		return ErrFrozen
	}
	r.UserProperties.Set(name, value)
	return nil
}

// AddGoals appends goals in order.
func (r *Request) AddGoals(goals ...string) error {
	if r.frozen {
		return ErrFrozen
	}
	r.Goals = append(r.Goals, goals...)
	return nil
}

// AddActiveProfile activates a profile.
func (r *Request) AddActiveProfile(id string) error {
	return r.appendUnique(&r.ActiveProfiles, id)
}

// AddInactiveProfile deactivates a profile.
func (r *Request) AddInactiveProfile(id string) error {
	return r.appendUnique(&r.InactiveProfiles, id)
}

// SelectProject adds a project selector for a partial build.
func (r *Request) SelectProject(selector string) error {
	return r.appendUnique(&r.SelectedProjects, selector)
}

// ExcludeProject excludes a project from the build.
func (r *Request) ExcludeProject(selector string) error {
	return r.appendUnique(&r.ExcludedProjects, selector)
}

// AddPluginGroup registers a plugin group prefix.
func (r *Request) AddPluginGroup(group string) error {
	return r.appendUnique(&r.PluginGroups, group)
}

// AddMirror registers a mirror. The first mirror for an id wins.
func (r *Request) AddMirror(m Mirror) error {
	if r.frozen {
		return ErrFrozen
	}
	if slices.ContainsFunc(r.Mirrors, func(x Mirror) bool { return x.ID == m.ID }) {
		return nil
	}
	r.Mirrors = append(r.Mirrors, m)
	return nil
}

// AddServer registers server credentials. The first server for an id wins.
func (r *Request) AddServer(s Server) error {
	if r.frozen {
		return ErrFrozen
	}
	if slices.ContainsFunc(r.Servers, func(x Server) bool { return x.ID == s.ID }) {
		return nil
	}
	r.Servers = append(r.Servers, s)
	return nil
}

// AddToolchain groups a toolchain by its type.
func (r *Request) AddToolchain(tc Toolchain) error {
	if r.frozen {
		return ErrFrozen
	}
	if r.Toolchains == nil {
		r.Toolchains = make(map[string][]Toolchain)
	}
	r.Toolchains[tc.Type] = append(r.Toolchains[tc.Type], tc)
	return nil
}

func (r *Request) appendUnique(dst *[]string, v string) error {
	if r.frozen {
		return ErrFrozen
	}
	if v == "" || slices.Contains(*dst, v) {
		return nil
	}
	*dst = append(*dst, v)
	return nil
}

// ApplyDefaults fills policy fields left unset by the earlier stages and
// registers the default plugin groups.
func (r *Request) ApplyDefaults(userHome string) {
	for _, g := range defaultPluginGroups {
		if !slices.Contains(r.PluginGroups, g) {
			r.PluginGroups = append(r.PluginGroups, g)
		}
	}
	if r.ChecksumPolicy == ChecksumUnset {
		r.ChecksumPolicy = ChecksumWarn
	}
	if r.LocalRepository == "" && userHome != "" {
		r.LocalRepository = filepath.Join(userHome, ".m2", "repository")
	}
}

// Validate checks the request invariants and reports every violation.
func (r *Request) Validate() error {
	var problems []string
	if r.DegreeOfConcurrency < 1 {
		problems = append(problems, fmt.Sprintf("degree of concurrency must be >= 1, got %d", r.DegreeOfConcurrency))
	}
	for _, err := range []error{
		r.FailureBehavior.Validate(),
		r.ChecksumPolicy.Validate(),
		r.MakeBehavior.Validate(),
	} {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}
	if r.BuilderID == "" {
		problems = append(problems, "builder id must not be empty")
	}
	if r.WorkingDir == "" {
		problems = append(problems, "working directory must be set")
	}
	if len(problems) > 0 {
		return &issue.ValidationError{Problems: problems}
	}
	return nil
}

// Freeze validates the request and marks it read-only.
func (r *Request) Freeze() error {
	if r.frozen {
		return nil
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r.frozen = true
	return nil
}

// Clone returns a deep copy. The copy keeps the frozen state.
func (r *Request) Clone() *Request {
	c := *r
	c.Args = slices.Clone(r.Args)
	c.Goals = slices.Clone(r.Goals)
	c.UserProperties = r.UserProperties.Clone()
	c.SystemProperties = r.SystemProperties.Clone()
	c.SelectedProjects = slices.Clone(r.SelectedProjects)
	c.ExcludedProjects = slices.Clone(r.ExcludedProjects)
	c.ActiveProfiles = slices.Clone(r.ActiveProfiles)
	c.InactiveProfiles = slices.Clone(r.InactiveProfiles)
	c.PluginGroups = slices.Clone(r.PluginGroups)
	c.Mirrors = slices.Clone(r.Mirrors)
	c.Servers = slices.Clone(r.Servers)
	c.Toolchains = make(map[string][]Toolchain, len(r.Toolchains))
	for k, v := range r.Toolchains {
		tcs := make([]Toolchain, len(v))
		for i, tc := range v {
			tcs[i] = Toolchain{Type: tc.Type, Provides: maps.Clone(tc.Provides), Configuration: maps.Clone(tc.Configuration)}
		}
		c.Toolchains[k] = tcs
	}
	return &c
}

// ToArgs renders the request back to an engine command line. Settings
// derived values (mirrors, servers) are not representable and are carried
// by the settings files themselves.
func (r *Request) ToArgs() []string {
	var args []string
	add := func(cond bool, a ...string) {
		if cond {
			args = append(args, a...)
		}
	}

	add(r.Debug, "-X")
	add(r.Quiet, "-q")
	add(r.ShowErrors && !r.Debug, "-e")
	add(!r.Interactive, "-B")
	add(!r.Recursive, "-N")
	add(r.Offline, "-o")
	add(r.UpdateSnapshots, "-U")
	add(r.NoSnapshotUpdates, "-nsu")
	add(r.NoTransferProgress, "-ntp")
	add(r.UseLegacyLocalRepository, "-llr")

	switch r.FailureBehavior {
	case FailAtEnd:
		args = append(args, "-fae")
	case FailNever:
		args = append(args, "-fn")
	}
	switch r.ChecksumPolicy {
	case ChecksumFail:
		args = append(args, "-C")
	case ChecksumWarn:
		args = append(args, "-c")
	}
	switch r.MakeBehavior {
	case MakeUpstream:
		args = append(args, "-am")
	case MakeDownstream:
		args = append(args, "-amd")
	case MakeBoth:
		args = append(args, "-am", "-amd")
	}

	if profiles := profileTokens(r.ActiveProfiles, r.InactiveProfiles); profiles != "" {
		args = append(args, "-P", profiles)
	}
	if projects := projectTokens(r.SelectedProjects, r.ExcludedProjects); projects != "" {
		args = append(args, "-pl", projects)
	}
	add(r.DegreeOfConcurrency > 1, "-T", strconv.Itoa(r.DegreeOfConcurrency))
	add(r.BuilderID != "" && r.BuilderID != BuilderSingleThreaded && r.BuilderID != BuilderMultiThreaded, "-b", r.BuilderID)
	add(r.ResumeFrom != "", "-rf", r.ResumeFrom)
	add(r.Pom != "", "-f", r.Pom)
	add(isFile(r.UserSettingsFile), "-s", r.UserSettingsFile)
	add(isFile(r.GlobalSettingsFile), "-gs", r.GlobalSettingsFile)
	add(isFile(r.UserToolchainsFile), "-t", r.UserToolchainsFile)
	add(isFile(r.GlobalToolchainsFile), "-gt", r.GlobalToolchainsFile)
	add(r.LogFile != "", "-l", r.LogFile)
	add(r.LocalRepository != "" && !r.UserProperties.Has("maven.repo.local"), "-Dmaven.repo.local="+r.LocalRepository)

	for k, v := range r.UserProperties.All() {
		args = append(args, "-D"+k+"="+v)
	}
	return append(args, r.Goals...)
}

// isFile reports whether path names a regular file. The default settings
// and toolchains locations are recorded even when nothing exists there.
func isFile(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func profileTokens(active, inactive []string) string {
	tokens := slices.Clone(active)
	for _, p := range inactive {
		tokens = append(tokens, "!"+p)
	}
	return strings.Join(tokens, ",")
}

func projectTokens(selected, excluded []string) string {
	tokens := slices.Clone(selected)
	for _, p := range excluded {
		tokens = append(tokens, "!"+p)
	}
	return strings.Join(tokens, ",")
}
