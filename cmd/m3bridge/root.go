// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/m3bridge/internal/bootstrap"
	"github.com/invowk/m3bridge/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose    bool
	configPath string
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "m3bridge <engineHome> <transportArchive> <interceptorArchive> <interceptorCommonArchive> [agentHost] <port|host:port>",
		Short: "Run a Maven 3 engine on behalf of a remote build orchestrator",
		Long: TitleStyle.Render("m3bridge") + SubtitleStyle.Render(" - Run a Maven 3 engine on behalf of a remote build orchestrator") + `

m3bridge loads the engine distribution into isolated realms, connects back
to the orchestrator and serves its control session. The orchestrator
launches builds, appends engine archives and collects results over the
connection; the process exits with the code the session ends with.

` + SubtitleStyle.Render("Exit codes:") + `
  0    success
  1    missing engine home, unsupported runtime or connection failure
  100  realm setup failure

` + SubtitleStyle.Render("Examples:") + `
  m3bridge /opt/maven remoting.jar interceptor.jar common.jar 4000
  m3bridge /opt/maven remoting.jar interceptor.jar common.jar agent:4000
  m3bridge request -B -T 4 clean install
  m3bridge config show`,
		Args: func(_ *cobra.Command, args []string) error {
			switch len(args) {
			case 0, 5, 6:
				return nil
			default:
				return fmt.Errorf("accepts 5 or 6 arg(s), received %d", len(args))
			}
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runBridge(cmd, app, flags, args)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/m3bridge/config.cue)")

	rootCmd.AddCommand(newConfigCommand(app, flags))
	rootCmd.AddCommand(newRequestCommand(app))
	return rootCmd
}

func runBridge(cmd *cobra.Command, app *App, flags *rootFlags, args []string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, flags.configPath)
	if err != nil {
		app.reportError(err, flags.verbose)
		cmd.SilenceErrors = true
		return &ExitError{Code: types.ExitFailure, Err: err}
	}
	verbose := flags.verbose || cfg.UI.Verbose

	code, err := app.Run(ctx, args, bootstrap.Options{
		Config:        cfg,
		Environ:       app.environ,
		Stdout:        app.stdout,
		Stderr:        app.stderr,
		Verbose:       verbose,
		BridgeVersion: Version,
	})
	if err != nil {
		app.reportError(err, verbose)
		cmd.SilenceErrors = true
		if code == types.ExitSuccess {
			code = types.ExitFailure
		}
	}
	if code != types.ExitSuccess {
		cmd.SilenceErrors = true
		return &ExitError{Code: code, Err: err}
	}
	return nil
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the code the bridge ends with.
// This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(int(types.ExitFailure))
	}

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code.Clamp()))
		}
		os.Exit(int(types.ExitFailure))
	}
}
