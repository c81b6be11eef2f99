// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/invowk/m3bridge/internal/builder"
	"github.com/invowk/m3bridge/internal/config"
	"github.com/invowk/m3bridge/internal/engine"
	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/request"
	"github.com/invowk/m3bridge/pkg/types"
)

// newRequestCommand creates `m3bridge request`, a dry run of the request
// builder. Every argument goes to the engine grammar, so the command has no
// flags of its own.
func newRequestCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "request [engine args...]",
		Short: "Print the execution request built from engine arguments",
		Long: `Print the execution request built from engine arguments without running
the engine.

Arguments are parsed with the engine grammar, merged with .mvn/maven.config,
MAVEN_ARGS, the settings and toolchains files, then normalized. The engine
home is taken from the maven.home configured property, then MAVEN_HOME.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRequest(cmd, app, args)
		},
	}
}

func printRequest(cmd *cobra.Command, app *App, args []string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, "")
	if err != nil {
		app.reportError(err, false)
		cmd.SilenceErrors = true
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	rt := props.FromMap(cfg.Properties)
	if !rt.Has(builder.PropMavenHome) {
		if home := lookupEnv(app.environ, "MAVEN_HOME"); home != "" {
			rt.Set(builder.PropMavenHome, home)
		}
	}
	version := builder.VersionInfo{BridgeVersion: Version}
	if home := rt.Value(builder.PropMavenHome); home != "" {
		if v, err := engine.DetectVersion(home); err == nil {
			version.EngineVersion = v.String()
		}
	}

	logger := log.NewWithOptions(app.stderr, log.Options{Prefix: config.AppName})
	if cfg.UI.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	b := &builder.Builder{
		Environ:           app.environ,
		RuntimeProperties: rt,
		Output:            builder.NewOutput(app.stdout, app.stderr),
		Logger:            logger,
		Version:           version,
		Stdin:             app.stdin,
	}
	req, err := b.Build(ctx, args)
	if err != nil {
		cmd.SilenceErrors = true
		var exit *builder.ExitError
		if errors.As(err, &exit) {
			if exit.Code == types.ExitSuccess {
				return nil
			}
			return &ExitError{Code: exit.Code}
		}
		app.reportError(err, cfg.UI.Verbose)
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	renderRequest(app.stdout, req)
	return nil
}

func lookupEnv(environ []string, key string) string {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return v
		}
	}
	return ""
}

func renderRequest(w io.Writer, req *request.Request) {
	keyStyle := CmdStyle
	field := func(name, value string) {
		if value == "" {
			value = SubtitleStyle.Render("(none)")
		} else {
			value = SuccessStyle.Render(value)
		}
		fmt.Fprintf(w, "  %s: %s\n", keyStyle.Render(name), value)
	}
	list := func(items []string) string { return strings.Join(items, ", ") }

	fmt.Fprintln(w, TitleStyle.Render("Execution Request"))
	fmt.Fprintln(w)
	field("goals", list(req.Goals))
	field("pom", req.Pom)
	field("base dir", req.BaseDir)
	field("multi-module dir", req.MultiModuleDir)
	field("log level", string(req.LogLevel))
	field("log file", req.LogFile)
	field("threads", strconv.Itoa(req.DegreeOfConcurrency))
	field("builder", req.BuilderID)
	field("failure behavior", string(req.FailureBehavior))
	field("checksum policy", string(req.ChecksumPolicy))
	field("make behavior", string(req.MakeBehavior))
	field("resume from", req.ResumeFrom)
	field("offline", strconv.FormatBool(req.Offline))
	field("interactive", strconv.FormatBool(req.Interactive))
	field("recursive", strconv.FormatBool(req.Recursive))
	field("active profiles", list(req.ActiveProfiles))
	field("inactive profiles", list(req.InactiveProfiles))
	field("selected projects", list(req.SelectedProjects))
	field("excluded projects", list(req.ExcludedProjects))
	field("local repository", req.LocalRepository)
	field("user settings", req.UserSettingsFile)
	field("global settings", req.GlobalSettingsFile)
	field("plugin groups", list(req.PluginGroups))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("user properties"))
	if req.UserProperties.Len() == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none)"))
	}
	for k, v := range req.UserProperties.All() {
		fmt.Fprintf(w, "  %s=%s\n", k, SuccessStyle.Render(v))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("command line"), quoteArgs(req.ToArgs()))
}

// quoteArgs renders args as a shell command line.
func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = strconv.Quote(a)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
