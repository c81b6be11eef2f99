// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/invowk/m3bridge/internal/cipher"
	"github.com/invowk/m3bridge/internal/cli"
	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/request"
	"github.com/invowk/m3bridge/internal/settings"
	"github.com/invowk/m3bridge/pkg/types"
)

// Property names read and written by the stages.
const (
	PropMavenHome       = "maven.home"
	PropMavenConf       = "maven.conf"
	PropMultiModuleDir  = "maven.multiModuleProjectDirectory"
	PropUserHome        = "user.home"
	PropUserDir         = "user.dir"
	PropRepoLocal       = "maven.repo.local"
	PropLegacyLocalRepo = "maven.legacyLocalRepo"
	PropMavenVersion    = "maven.version"
	PropBuildVersion    = "maven.build.version"
	PropBridgeVersion   = "bridge.version"

	// EnvMavenArgs holds arguments prepended to every command line.
	EnvMavenArgs = "MAVEN_ARGS"
)

// ErrMasterPasswordNotSet is returned by -ep when the security file has no
// master password.
var ErrMasterPasswordNotSet = errors.New("master password is not set")

type (
	// ExitError stops the build without producing a request. Help, version
	// and the encryption shortcuts return it with ExitSuccess.
	ExitError struct {
		Code types.ExitCode
	}

	// EventSink receives InitData once the properties are known, then the
	// intermediate settings and toolchains requests and results.
	EventSink interface {
		Init(ctx context.Context, data InitData)
		OnEvent(ctx context.Context, ev any)
	}

	// InitData describes the environment a build runs in.
	InitData struct {
		WorkingDirectory  string
		SystemProperties  *props.Properties
		UserProperties    *props.Properties
		VersionProperties map[string]string
	}

	// Builder builds execution requests. The zero value is usable: nil
	// collaborators fall back to the XML readers, the process environment
	// and the process streams.
	Builder struct {
		// Environ is the environment in os.Environ form. Nil means
		// os.Environ().
		Environ []string
		// RuntimeProperties are the process-level properties. They dominate
		// the environment, and -D definitions are mirrored into them.
		RuntimeProperties *props.Properties
		// WorkingDir defaults to the process working directory.
		WorkingDir string

		Output     *Output
		Logger     *log.Logger
		Settings   settings.Builder
		Toolchains settings.ToolchainsBuilder
		Cipher     *cipher.Cipher
		Events     EventSink
		// Listener is attached to every request built.
		Listener request.Listener
		Manager  *cli.Manager
		Version  VersionInfo
		// Stdin is read when -emp or -ep are given without a value.
		Stdin io.Reader
		// NumCPU scales "C" thread counts. Nil means runtime.NumCPU.
		NumCPU func() int
	}

	stage func(ctx context.Context, s *buildState) error
)

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("request building stopped with exit code %d", e.Code)
}

// Build runs the stages against rawArgs and returns the frozen request.
func (b *Builder) Build(ctx context.Context, rawArgs []string) (*request.Request, error) {
	b.defaults()
	s := &buildState{
		b:       b,
		req:     request.New(),
		rawArgs: rawArgs,
	}

	stages := []stage{
		initialize,
		parse,
		properties,
		logging,
		resolveSettings,
		populate,
		toolchains,
		encryption,
		repository,
		populateDefaults,
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := st(ctx, s); err != nil {
			return nil, err
		}
	}
	return s.req, nil
}

// Fork returns a copy of b for a single build. The copy mirrors -D
// definitions into its own clone of the runtime properties. Calling release
// restores the logger level and ends a log file redirection started by the
// build.
func (b *Builder) Fork() (fork *Builder, release func()) {
	f := *b
	if b.RuntimeProperties != nil {
		f.RuntimeProperties = b.RuntimeProperties.Clone()
	}
	f.defaults()

	level := f.Logger.GetLevel()
	redirected := f.Output.Redirected()
	return &f, func() {
		f.Logger.SetLevel(level)
		if !redirected {
			_ = f.Output.Close()
		}
	}
}

func (b *Builder) defaults() {
	if b.Environ == nil {
		b.Environ = os.Environ()
	}
	if b.RuntimeProperties == nil {
		b.RuntimeProperties = props.New()
	}
	if b.Output == nil {
		b.Output = NewOutput(nil, nil)
	}
	if b.Logger == nil {
		b.Logger = log.NewWithOptions(b.Output.Stderr(), log.Options{Prefix: "m3bridge"})
	}
	if b.Settings == nil {
		b.Settings = settings.XMLBuilder{}
	}
	if b.Toolchains == nil {
		b.Toolchains = settings.XMLToolchainsBuilder{}
	}
	if b.Cipher == nil {
		b.Cipher = &cipher.Cipher{}
	}
	if b.Manager == nil {
		b.Manager = cli.NewManager()
	}
	if b.Stdin == nil {
		b.Stdin = os.Stdin
	}
	if b.NumCPU == nil {
		b.NumCPU = runtime.NumCPU
	}
}

func (b *Builder) initSink(ctx context.Context, data InitData) {
	if b.Events != nil {
		b.Events.Init(ctx, data)
	}
}

func (b *Builder) emit(ctx context.Context, ev any) {
	if b.Events != nil {
		b.Events.OnEvent(ctx, ev)
	}
}
