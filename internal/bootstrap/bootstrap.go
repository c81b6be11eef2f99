// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/invowk/m3bridge/internal/builder"
	"github.com/invowk/m3bridge/internal/config"
	"github.com/invowk/m3bridge/internal/engine"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/launcher"
	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/realm"
	"github.com/invowk/m3bridge/internal/remote"
	"github.com/invowk/m3bridge/internal/transport"
	"github.com/invowk/m3bridge/pkg/types"
)

const (
	// PropEngineHome is the canonical engine distribution directory.
	PropEngineHome = "maven.home"
	// PropInterceptor is the interceptor archive.
	PropInterceptor = "maven3.interceptor"
	// PropInterceptorCommon is the shared interceptor archive.
	PropInterceptorCommon = "maven3.interceptor.common"

	// HandlerRole is the role of the remote handler in the transport realm.
	HandlerRole = "remote.handler"
)

type (
	// Args are the positional process arguments.
	Args struct {
		EngineHome               string
		TransportArchive         string
		InterceptorArchive       string
		InterceptorCommonArchive string
		Endpoint                 transport.Endpoint
	}

	// Options carry the process collaborators. Zero values fall back to the
	// process environment.
	Options struct {
		// Config is the loaded configuration. Nil means defaults.
		Config *config.Config
		// Environ is the environment in os.Environ form. Nil means
		// os.Environ().
		Environ []string
		// Getenv resolves realm configuration overrides. Nil means os.Getenv.
		Getenv func(string) string
		Stdout io.Writer
		Stderr io.Writer
		// Verbose lowers the log level to debug.
		Verbose bool
		// BridgeVersion is reported in the version banner.
		BridgeVersion string
		// Spies receive the engine invoker events.
		Spies []engine.Spy
	}
)

// ParseArgs splits the positional arguments:
//
//	<engineHome> <transportArchive> <interceptorArchive> <interceptorCommonArchive> [agentHost] <port|host:port>
func ParseArgs(args []string) (Args, error) {
	if len(args) != 5 && len(args) != 6 {
		return Args{}, &issue.ArgumentParseError{
			Cause: fmt.Errorf("expected 5 or 6 arguments, got %d", len(args)),
		}
	}
	token := args[len(args)-1]
	ep, err := transport.ParseEndpoint(token)
	if err != nil {
		return Args{}, err
	}
	if len(args) == 6 {
		if ep.Host != "" {
			return Args{}, &issue.ArgumentParseError{
				Token: token,
				Cause: errors.New("agent host given twice"),
			}
		}
		ep.Host = args[4]
	}
	return Args{
		EngineHome:               args[0],
		TransportArchive:         args[1],
		InterceptorArchive:       args[2],
		InterceptorCommonArchive: args[3],
		Endpoint:                 ep,
	}, nil
}

// CanonicalHome resolves home to an absolute path without symlinks. It
// returns an error wrapping issue.ErrEngineHomeNotFound unless the result is
// an existing directory.
func CanonicalHome(home string) (string, error) {
	path := home
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, fmt.Errorf("%w: %s", issue.ErrEngineHomeNotFound, path)
	}
	return path, nil
}

// RuntimeProperties seeds the process properties: configured properties
// first, then the hosting runtime and the positional archives.
func RuntimeProperties(cfg *config.Config, a Args, home string) *props.Properties {
	rt := props.FromMap(cfg.Properties)
	if !rt.Has(launcher.PropRuntimeVersion) {
		rt.Set(launcher.PropRuntimeVersion, runtime.Version())
	}
	if !rt.Has("user.dir") {
		if wd, err := os.Getwd(); err == nil {
			rt.Set("user.dir", wd)
		}
	}
	rt.Set(PropEngineHome, home)
	rt.Set(PropInterceptor, a.InterceptorArchive)
	rt.Set(PropInterceptorCommon, a.InterceptorCommonArchive)
	return rt
}

// Run executes the bridge process and returns its exit code. Argument and
// engine home failures exit 1 before any realm work; realm failures exit
// 100; otherwise the remote handler decides.
func Run(ctx context.Context, rawArgs []string, opts Options) (types.ExitCode, error) {
	opts.defaults()
	p := newProcess(opts)
	defer func() { _ = p.output.Close() }()
	logger := p.logger

	a, err := ParseArgs(rawArgs)
	if err != nil {
		return types.ExitFailure, err
	}
	home, err := CanonicalHome(a.EngineHome)
	if err != nil {
		return types.ExitFailure, err
	}

	rt := RuntimeProperties(opts.Config, a, home)
	if err := launcher.CheckRuntime(rt.Value(launcher.PropRuntimeVersion), opts.Config.Runtime.MinVersion); err != nil {
		return types.ExitFailure, err
	}
	src, err := launcher.ResolveSource(rt, opts.Getenv, opts.Config.Realms.Conf)
	if err != nil {
		return types.ExitRealmSetup, err
	}

	l := &launcher.Launcher{
		Properties:       rt,
		Context:          &realm.ContextHolder{},
		TransportArchive: a.TransportArchive,
		MinRuntime:       opts.Config.Runtime.MinVersion,
		Logger:           logger,
	}
	w, err := l.Initialize(ctx, src)
	if err != nil {
		if errors.Is(err, issue.ErrRuntimeUnsupported) {
			return types.ExitFailure, err
		}
		return types.ExitRealmSetup, err
	}

	transportRealm, err := w.Realm(realm.TransportID)
	if err != nil {
		return types.ExitRealmSetup, err
	}
	if err := p.wire(l, transportRealm, home, rt); err != nil {
		return types.ExitRealmSetup, err
	}
	h, err := realm.LookupAs[transport.Handler](transportRealm, HandlerRole)
	if err != nil {
		return types.ExitRealmSetup, err
	}

	dialer := transport.Dialer{
		Timeout:    opts.Config.Transport.DialTimeout,
		BufferSize: opts.Config.Transport.BufferSize,
		Logger:     logger,
	}
	session, err := dialer.Open(ctx, a.Endpoint)
	if err != nil {
		return types.ExitFailure, err
	}
	defer func() { _ = session.Close() }()

	logger.Debug("relaying orchestrator session", "endpoint", a.Endpoint.String(), "engine_home", home)
	return transport.Relay(ctx, session, h)
}

type process struct {
	opts   Options
	output *builder.Output
	charm  *log.Logger
	logger *slog.Logger
}

func newProcess(opts Options) *process {
	output := builder.NewOutput(opts.Stdout, opts.Stderr)
	charm := log.NewWithOptions(output.Stderr(), log.Options{Prefix: config.AppName})
	if opts.Verbose || opts.Config.UI.Verbose {
		charm.SetLevel(log.DebugLevel)
	}
	return &process{opts: opts, output: output, charm: charm, logger: slog.New(charm)}
}

// wire provides the engine and its invoker to the main realm and the
// remote handler to the transport realm. Engine results are shared between
// the invoker and the handler through one store.
func (p *process) wire(l *launcher.Launcher, transportRealm *realm.Realm, home string, rt *props.Properties) error {
	mainRealm := l.MainRealm()
	if mainRealm == nil {
		return &issue.RealmSetupError{Op: "wire engine", Cause: launcher.ErrNotInitialized}
	}

	version := builder.VersionInfo{BridgeVersion: p.opts.BridgeVersion}
	if v, err := engine.DetectVersion(home); err == nil {
		version.EngineVersion = v.String()
	} else {
		p.logger.Debug("engine version not detected", "error", err)
	}

	store := &engine.Store{}
	handler := &remote.Handler{Target: l, Store: store, Logger: p.logger}

	mainRealm.Provide(engine.Role, &engine.ProcessEngine{
		Home:       home,
		Executable: p.opts.Config.Engine.Executable,
		Environ:    p.opts.Environ,
		Stdout:     p.output.Stdout(),
		Stderr:     p.output.Stderr(),
		Extensions: l.Extensions,
		Logger:     p.logger,
	})
	mainRealm.Provide(l.EntryRole(), &engine.Invoker{
		Builder: &builder.Builder{
			Environ:           p.opts.Environ,
			RuntimeProperties: rt,
			Output:            p.output,
			Logger:            p.charm,
			Listener:          handler.Listener(),
			Version:           version,
		},
		Context: l.Context,
		Store:   store,
		Spies:   p.opts.Spies,
		Logger:  p.logger,
	})
	transportRealm.Provide(HandlerRole, handler)
	return nil
}

func (o *Options) defaults() {
	if o.Config == nil {
		o.Config = config.DefaultConfig()
	}
	if o.Environ == nil {
		o.Environ = os.Environ()
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}
