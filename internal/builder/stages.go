// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/invowk/m3bridge/internal/cli"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/request"
	"github.com/invowk/m3bridge/internal/settings"
	"github.com/invowk/m3bridge/pkg/types"
)

const mavenConfigFile = ".mvn/maven.config"

// buildState is the scratch space shared by the stages of one Build.
type buildState struct {
	b       *Builder
	req     *request.Request
	rawArgs []string
	cl      *cli.CommandLine
	env     map[string]string

	userHome   string
	mavenHome  string
	mavenConf  string
	showErrors bool
}

func (s *buildState) getenv(name string) string { return s.env[name] }

// resolve makes path absolute against the working directory.
func (s *buildState) resolve(path string) string {
	return types.FilesystemPath(path).Resolve(s.req.WorkingDir)
}

func initialize(_ context.Context, s *buildState) error {
	rt := s.b.RuntimeProperties

	s.env = make(map[string]string, len(s.b.Environ))
	for _, kv := range s.b.Environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			s.env[k] = v
		}
	}

	wd := s.b.WorkingDir
	if wd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		wd = cwd
	}
	if abs, err := filepath.Abs(wd); err == nil {
		wd = abs
	}
	s.req.WorkingDir = wd
	s.req.BaseDir = wd
	if !rt.Has(PropUserDir) {
		rt.Set(PropUserDir, wd)
	}

	mm := rt.Value(PropMultiModuleDir)
	if mm == "" {
		mm = wd
	}
	s.req.MultiModuleDir = canonical(s.resolve(mm))

	s.userHome = rt.Value(PropUserHome)
	if s.userHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.userHome = home
			rt.Set(PropUserHome, home)
		}
	}

	if home := rt.Value(PropMavenHome); home != "" {
		s.mavenHome = s.resolve(home)
		rt.Set(PropMavenHome, s.mavenHome)
	}
	s.mavenConf = rt.Value(PropMavenConf)
	if s.mavenConf == "" && s.mavenHome != "" {
		s.mavenConf = filepath.Join(s.mavenHome, "conf")
		rt.Set(PropMavenConf, s.mavenConf)
	}
	return nil
}

// canonical resolves symlinks, falling back to the cleaned absolute path.
func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

func parse(_ context.Context, s *buildState) error {
	stdout, stderr := s.b.Output.Stdout(), s.b.Output.Stderr()

	args, err := s.prependedArgs()
	if err == nil {
		args = append(args, s.rawArgs...)
		s.cl, err = s.b.Manager.Parse(args)
	}
	if err != nil {
		msg := err.Error()
		var ape *issue.ArgumentParseError
		if errors.As(err, &ape) && ape.Cause != nil {
			msg = ape.Cause.Error()
		}
		fmt.Fprintf(stderr, "Unable to parse command line options: %s\n", msg)
		s.b.Manager.Usage(stdout)
		return err
	}
	s.req.Args = args

	switch {
	case s.cl.Has(cli.Help):
		s.b.Manager.Usage(stdout)
		return &ExitError{Code: types.ExitSuccess}
	case s.cl.Has(cli.Version):
		s.b.Version.Banner(stdout, s.mavenHome)
		return &ExitError{Code: types.ExitSuccess}
	}
	return nil
}

// prependedArgs returns the arguments from .mvn/maven.config under the
// multi-module root followed by those from MAVEN_ARGS. Both come before
// the command line, so the command line wins.
func (s *buildState) prependedArgs() ([]string, error) {
	var args []string
	data, err := os.ReadFile(filepath.Join(s.req.MultiModuleDir, mavenConfigFile))
	switch {
	case err == nil:
		fields, splitErr := cli.SplitArgs(string(data), s.getenv)
		if splitErr != nil {
			return nil, splitErr
		}
		args = append(args, fields...)
	case !os.IsNotExist(err):
		return nil, &issue.ArgumentParseError{Token: mavenConfigFile, Cause: err}
	}

	if envArgs := strings.TrimSpace(s.getenv(EnvMavenArgs)); envArgs != "" {
		fields, splitErr := cli.SplitArgs(envArgs, s.getenv)
		if splitErr != nil {
			return nil, splitErr
		}
		args = append(args, fields...)
	}
	return args, nil
}

func properties(ctx context.Context, s *buildState) error {
	rt := s.b.RuntimeProperties
	system := props.FromEnviron(s.b.Environ)

	for _, def := range s.cl.Values(cli.Define) {
		name, value := props.ParseDefinition(def)
		if name == "" {
			continue
		}
		if err := s.req.SetUserProperty(name, value); err != nil {
			return err
		}
		rt.Set(name, value)
	}

	system.PutAll(rt)

	versions := make(map[string]string, 3)
	v := s.b.Version
	for _, kv := range [][2]string{
		{PropMavenVersion, v.EngineVersion},
		{PropBuildVersion, v.BuildVersion},
		{PropBridgeVersion, v.BridgeVersion},
	} {
		if kv[1] != "" {
			system.Set(kv[0], kv[1])
			versions[kv[0]] = kv[1]
		}
	}
	s.req.SystemProperties = system

	s.b.initSink(ctx, InitData{
		WorkingDirectory:  s.req.WorkingDir,
		SystemProperties:  system.Clone(),
		UserProperties:    s.req.UserProperties.Clone(),
		VersionProperties: versions,
	})
	return nil
}

func logging(_ context.Context, s *buildState) error {
	debug := s.cl.Has(cli.Debug)
	quiet := !debug && s.cl.Has(cli.Quiet)
	s.showErrors = debug || s.cl.Has(cli.Errors)

	s.req.Debug = debug
	s.req.Quiet = quiet
	s.req.ShowErrors = s.showErrors

	switch {
	case debug:
		s.req.LogLevel = request.LevelDebug
		s.b.Logger.SetLevel(log.DebugLevel)
	case quiet:
		s.req.LogLevel = request.LevelError
		s.b.Logger.SetLevel(log.ErrorLevel)
	default:
		s.req.LogLevel = request.LevelInfo
		s.b.Logger.SetLevel(log.InfoLevel)
	}

	if s.cl.Has(cli.LogFile) {
		path := s.resolve(s.cl.Value(cli.LogFile))
		if err := s.b.Output.RedirectToFile(path); err != nil {
			s.b.Logger.Debug("log file redirection failed", "path", path, "error", err)
		} else {
			s.req.LogFile = path
			s.req.Color = false
		}
	}

	if debug || s.cl.Has(cli.ShowVersion) {
		s.b.Version.Banner(s.b.Output.Stdout(), s.mavenHome)
	}
	return nil
}

func resolveSettings(ctx context.Context, s *buildState) error {
	userFile, err := s.explicitFile(cli.Settings, "user settings")
	if err != nil {
		return err
	}
	if userFile == "" && s.userHome != "" {
		userFile = filepath.Join(s.userHome, ".m2", "settings.xml")
	}
	globalFile, err := s.explicitFile(cli.GlobalSettings, "global settings")
	if err != nil {
		return err
	}
	if globalFile == "" && s.mavenConf != "" {
		globalFile = filepath.Join(s.mavenConf, "settings.xml")
	}
	s.req.UserSettingsFile = userFile
	s.req.GlobalSettingsFile = globalFile

	sreq := &settings.Request{
		UserFile:         userFile,
		GlobalFile:       globalFile,
		UserProperties:   s.req.UserProperties,
		SystemProperties: s.req.SystemProperties,
	}
	s.b.emit(ctx, sreq)
	res, err := s.b.Settings.Build(ctx, sreq)
	if err != nil {
		return fmt.Errorf("build effective settings: %w", err)
	}
	s.b.emit(ctx, res)

	if len(res.Problems) > 0 {
		s.b.Logger.Warn("Some problems were encountered while building the effective settings")
		for _, p := range res.Problems {
			s.b.Logger.Warn(p.Message, "source", p.Source)
		}
	}
	if err := settings.Populate(s.req, res.Effective); err != nil {
		return err
	}

	if s.showErrors {
		s.b.Logger.Info("Error stacktraces are turned on.")
	}
	switch {
	case s.cl.Has(cli.StrictChecksums):
		s.b.Logger.Info("Enabling strict checksum verification on all artifact downloads.")
	case s.cl.Has(cli.LaxChecksums):
		s.b.Logger.Info("Disabling strict checksum verification on all artifact downloads.")
	}
	return nil
}

// explicitFile resolves the file named by option. The file must exist and
// be a regular file. It returns "" when the option is absent.
func (s *buildState) explicitFile(option, kind string) (string, error) {
	if !s.cl.Has(option) {
		return "", nil
	}
	path := s.resolve(s.cl.Value(option))
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return "", &issue.FileNotFoundError{Kind: kind, Path: path}
	}
	return path, nil
}

func toolchains(ctx context.Context, s *buildState) error {
	userFile := s.optionalFile(cli.Toolchains)
	if userFile == "" && s.userHome != "" {
		userFile = filepath.Join(s.userHome, ".m2", "toolchains.xml")
	}
	globalFile := s.optionalFile(cli.GlobalToolchains)
	if globalFile == "" && s.mavenConf != "" {
		globalFile = filepath.Join(s.mavenConf, "toolchains.xml")
	}
	s.req.UserToolchainsFile = userFile
	s.req.GlobalToolchainsFile = globalFile

	treq := &settings.ToolchainsRequest{UserFile: userFile, GlobalFile: globalFile}
	s.b.emit(ctx, treq)
	res, err := s.b.Toolchains.Build(ctx, treq)
	if err != nil {
		return fmt.Errorf("build effective toolchains: %w", err)
	}
	for _, p := range res.Problems {
		s.b.Logger.Warn(p.Message, "source", p.Source)
	}
	return settings.PopulateToolchains(s.req, res.Effective)
}

func (s *buildState) optionalFile(option string) string {
	if !s.cl.Has(option) {
		return ""
	}
	return s.resolve(s.cl.Value(option))
}

func repository(_ context.Context, s *buildState) error {
	if s.cl.Has(cli.LegacyLocalRepository) || s.b.RuntimeProperties.Bool(PropLegacyLocalRepo) {
		s.req.UseLegacyLocalRepository = true
	}
	return nil
}

func populateDefaults(_ context.Context, s *buildState) error {
	s.req.ApplyDefaults(s.userHome)
	return s.req.Freeze()
}
