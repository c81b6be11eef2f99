// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/invowk/m3bridge/internal/config"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/pkg/types"
)

// newConfigCommand creates the `m3bridge config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage m3bridge configuration",
		Long: `Manage m3bridge configuration.

Configuration is stored in config.cue under the m3bridge directory of the
XDG config home:
  - Linux: ~/.config/m3bridge/config.cue
  - macOS: ~/Library/Application Support/m3bridge/config.cue
  - Windows: %LOCALAPPDATA%\m3bridge\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := showConfig(cmd.Context(), app, flags.configPath); err != nil {
				cmd.SilenceErrors = true
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := defaultConfigPath(app)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags.configPath)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, path string) error {
	cfg, err := app.loadConfig(ctx, path)
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(app.stderr, rendered)
		fmt.Fprintf(app.stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, false))
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfg.Path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("properties"))
	if len(cfg.Properties) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Properties)) {
		fmt.Fprintf(w, "  %s: %s\n", k, valueStyle.Render(cfg.Properties[k]))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("realms"))
	fmt.Fprintf(w, "  conf: %s\n", orDefault(cfg.Realms.Conf, "(embedded)"))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("runtime"))
	fmt.Fprintf(w, "  min_version: %s\n", orDefault(cfg.Runtime.MinVersion, "(any)"))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("transport"))
	fmt.Fprintf(w, "  dial_timeout: %s\n", valueStyle.Render(cfg.Transport.DialTimeout.String()))
	fmt.Fprintf(w, "  buffer_size: %s\n", valueStyle.Render(fmt.Sprint(cfg.Transport.BufferSize)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("engine"))
	fmt.Fprintf(w, "  executable: %s\n", orDefault(cfg.Engine.Executable, "(${maven.home}/bin/mvn)"))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprint(cfg.UI.Verbose)))
	return nil
}

func orDefault(value, placeholder string) string {
	if value == "" {
		return SubtitleStyle.Render(placeholder)
	}
	return SuccessStyle.Render(value)
}

func initConfig(app *App) error {
	path, written, err := config.CreateDefaultConfig(app.configDir)
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !written {
		fmt.Fprintf(app.stdout, "%s Config file already exists: %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created config file: %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func defaultConfigPath(app *App) (string, error) {
	dir := app.configDir
	if dir == "" {
		var err error
		if dir, err = config.ConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt), nil
}
