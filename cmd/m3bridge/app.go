// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invowk/m3bridge/internal/bootstrap"
	"github.com/invowk/m3bridge/internal/config"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/pkg/types"
)

type (
	// ConfigProvider loads configuration. *config.Provider implements it.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// RunFunc runs the bridge process. bootstrap.Run is the default.
	RunFunc func(ctx context.Context, args []string, opts bootstrap.Options) (types.ExitCode, error)

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer; every command handler receives it.
	App struct {
		Config ConfigProvider
		Run    RunFunc

		configDir string
		environ   []string
		stdin     io.Reader
		stdout    io.Writer
		stderr    io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Run    RunFunc
		// ConfigDir overrides the XDG config directory.
		ConfigDir string
		// Environ is the environment in os.Environ form.
		Environ []string
		Stdin   io.Reader
		Stdout  io.Writer
		Stderr  io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Environ == nil {
		deps.Environ = os.Environ()
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Run == nil {
		deps.Run = bootstrap.Run
	}

	return &App{
		Config:    deps.Config,
		Run:       deps.Run,
		configDir: deps.ConfigDir,
		environ:   deps.Environ,
		stdin:     deps.Stdin,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}, nil
}

func (a *App) loadConfig(ctx context.Context, path string) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: path, ConfigDirPath: a.configDir})
}

// reportError renders the catalog entry matching err, if any, followed by
// the error itself.
func (a *App) reportError(err error, verbose bool) {
	if is := issue.For(err); is != nil {
		if rendered, rerr := is.Render("dark"); rerr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
	fmt.Fprintf(a.stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
