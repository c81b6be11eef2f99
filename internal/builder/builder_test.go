// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/invowk/m3bridge/internal/cipher"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/props"
	"github.com/invowk/m3bridge/internal/request"
	"github.com/invowk/m3bridge/internal/settings"
	"github.com/invowk/m3bridge/pkg/types"
)

type harness struct {
	b      *Builder
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	logs   *bytes.Buffer
	wd     string
	home   string
	events *recordingSink
}

type recordingSink struct {
	init   *InitData
	events []any
}

func (r *recordingSink) Init(_ context.Context, data InitData) {
	r.init = &data
}

func (r *recordingSink) OnEvent(_ context.Context, ev any) {
	r.events = append(r.events, ev)
}

func newHarness(t *testing.T, environ ...string) *harness {
	t.Helper()

	root := t.TempDir()
	h := &harness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		logs:   &bytes.Buffer{},
		wd:     filepath.Join(root, "project"),
		home:   filepath.Join(root, "home"),
		events: &recordingSink{},
	}
	engineHome := filepath.Join(root, "engine")
	for _, dir := range []string{h.wd, h.home, filepath.Join(engineHome, "conf")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	rt := props.New()
	rt.Set(PropUserHome, h.home)
	rt.Set(PropMavenHome, engineHome)

	h.b = &Builder{
		Environ:           append([]string{}, environ...),
		RuntimeProperties: rt,
		WorkingDir:        h.wd,
		Output:            NewOutput(h.stdout, h.stderr),
		Logger:            log.NewWithOptions(h.logs, log.Options{Prefix: "m3bridge"}),
		Events:            h.events,
		Version:           VersionInfo{EngineVersion: "3.9.9", BridgeVersion: "1.0.0"},
		Stdin:             strings.NewReader(""),
		NumCPU:            func() int { return 8 },
	}
	t.Cleanup(func() { _ = h.b.Output.Close() })
	return h
}

func (h *harness) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(h.wd, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	req, err := h.b.Build(t.Context(), []string{"-B", "-T", "4", "clean", "install"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if req.Interactive {
		t.Error("Interactive = true, want false")
	}
	if req.Color {
		t.Error("Color = true, want false")
	}
	if req.DegreeOfConcurrency != 4 {
		t.Errorf("DegreeOfConcurrency = %d, want 4", req.DegreeOfConcurrency)
	}
	if req.BuilderID != request.BuilderMultiThreaded {
		t.Errorf("BuilderID = %q, want %q", req.BuilderID, request.BuilderMultiThreaded)
	}
	if diff := cmp.Diff([]string{"clean", "install"}, req.Goals); diff != "" {
		t.Errorf("Goals mismatch (-want +got):\n%s", diff)
	}
	if !req.Frozen() {
		t.Error("request is not frozen")
	}
	if req.ChecksumPolicy != request.ChecksumWarn {
		t.Errorf("ChecksumPolicy = %q, want warn", req.ChecksumPolicy)
	}
	if want := filepath.Join(h.home, ".m2", "repository"); req.LocalRepository != want {
		t.Errorf("LocalRepository = %q, want %q", req.LocalRepository, want)
	}
	if !req.CacheNotFound || req.CacheTransferError {
		t.Errorf("cache flags = (%v, %v), want (true, false)", req.CacheNotFound, req.CacheTransferError)
	}
}

func TestBuildDefines(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "PATH=/bin")
	req, err := h.b.Build(t.Context(), []string{"-Dfoo=bar", "-D", "baz", "-D", " spaced =x=y"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := map[string]string{"foo": "bar", "baz": "true", "spaced": "x=y"}
	if diff := cmp.Diff(want, req.UserProperties.Map()); diff != "" {
		t.Errorf("user properties mismatch (-want +got):\n%s", diff)
	}
	if h.events.init == nil || h.events.init.VersionProperties[PropMavenVersion] != "3.9.9" {
		t.Errorf("sink init = %+v, want version properties", h.events.init)
	} else if h.events.init.WorkingDirectory != h.wd {
		t.Errorf("init working directory = %q, want %q", h.events.init.WorkingDirectory, h.wd)
	}
	if got := h.b.RuntimeProperties.Value("foo"); got != "bar" {
		t.Errorf("runtime foo = %q, want mirrored value bar", got)
	}
	for key, want := range map[string]string{
		"env.PATH":        "/bin",
		"foo":             "bar",
		PropMavenVersion:  "3.9.9",
		PropBridgeVersion: "1.0.0",
	} {
		if got := req.SystemProperties.Value(key); got != want {
			t.Errorf("system %s = %q, want %q", key, got, want)
		}
	}
}

func TestBuildRuntimePropertiesDominateEnvironment(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "HOME=/from/env")
	h.b.RuntimeProperties.Set("env.HOME", "/from/runtime")

	req, err := h.b.Build(t.Context(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := req.SystemProperties.Value("env.HOME"); got != "/from/runtime" {
		t.Errorf("env.HOME = %q, want the runtime value", got)
	}
}

func TestBuildProfilesAndProjects(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	req, err := h.b.Build(t.Context(), []string{"-P", "+a,-b,!c,d", "-pl", "core,!docs", "-pl", ":api"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if diff := cmp.Diff([]string{"a", "d"}, req.ActiveProfiles); diff != "" {
		t.Errorf("ActiveProfiles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c"}, req.InactiveProfiles); diff != "" {
		t.Errorf("InactiveProfiles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"core", ":api"}, req.SelectedProjects); diff != "" {
		t.Errorf("SelectedProjects mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"docs"}, req.ExcludedProjects); diff != "" {
		t.Errorf("ExcludedProjects mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFlagTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, req *request.Request)
	}{
		{
			name: "failure mode defaults to fail fast",
			check: func(t *testing.T, req *request.Request) {
				if req.FailureBehavior != request.FailFast {
					t.Errorf("FailureBehavior = %q", req.FailureBehavior)
				}
			},
		},
		{
			name: "last failure mode wins",
			args: []string{"-fn", "-fae"},
			check: func(t *testing.T, req *request.Request) {
				if req.FailureBehavior != request.FailAtEnd {
					t.Errorf("FailureBehavior = %q, want FAIL_AT_END", req.FailureBehavior)
				}
			},
		},
		{
			name: "fail fast after fail never",
			args: []string{"--fail-never", "-ff"},
			check: func(t *testing.T, req *request.Request) {
				if req.FailureBehavior != request.FailFast {
					t.Errorf("FailureBehavior = %q, want FAIL_FAST", req.FailureBehavior)
				}
			},
		},
		{
			name: "strict checksums win over lax",
			args: []string{"-C", "-c"},
			check: func(t *testing.T, req *request.Request) {
				if req.ChecksumPolicy != request.ChecksumFail {
					t.Errorf("ChecksumPolicy = %q, want fail", req.ChecksumPolicy)
				}
			},
		},
		{
			name: "snapshot flags are independent",
			args: []string{"-U", "-nsu", "-o", "-N", "-ntp"},
			check: func(t *testing.T, req *request.Request) {
				if !req.UpdateSnapshots || !req.NoSnapshotUpdates {
					t.Errorf("snapshot flags = (%v, %v), want both", req.UpdateSnapshots, req.NoSnapshotUpdates)
				}
				if !req.Offline || req.Recursive || !req.NoTransferProgress {
					t.Errorf("offline=%v recursive=%v ntp=%v", req.Offline, req.Recursive, req.NoTransferProgress)
				}
			},
		},
		{
			name: "make behavior both",
			args: []string{"-am", "-amd"},
			check: func(t *testing.T, req *request.Request) {
				if req.MakeBehavior != request.MakeBoth {
					t.Errorf("MakeBehavior = %q, want make-both", req.MakeBehavior)
				}
			},
		},
		{
			name: "core multiplied thread count",
			args: []string{"-T", "2C"},
			check: func(t *testing.T, req *request.Request) {
				if req.DegreeOfConcurrency != 16 || req.BuilderID != request.BuilderMultiThreaded {
					t.Errorf("concurrency = %d builder = %q", req.DegreeOfConcurrency, req.BuilderID)
				}
			},
		},
		{
			name: "single thread keeps the default builder",
			args: []string{"-T", "1"},
			check: func(t *testing.T, req *request.Request) {
				if req.DegreeOfConcurrency != 1 || req.BuilderID != request.BuilderSingleThreaded {
					t.Errorf("concurrency = %d builder = %q", req.DegreeOfConcurrency, req.BuilderID)
				}
			},
		},
		{
			name: "explicit builder overrides threads",
			args: []string{"-T", "4", "-b", "smart"},
			check: func(t *testing.T, req *request.Request) {
				if req.BuilderID != "smart" {
					t.Errorf("BuilderID = %q, want smart", req.BuilderID)
				}
			},
		},
		{
			name: "resume from",
			args: []string{"-rf", ":core"},
			check: func(t *testing.T, req *request.Request) {
				if req.ResumeFrom != ":core" {
					t.Errorf("ResumeFrom = %q", req.ResumeFrom)
				}
			},
		},
		{
			name: "repo local user property",
			args: []string{"-Dmaven.repo.local=/tmp/repo"},
			check: func(t *testing.T, req *request.Request) {
				if req.LocalRepository != "/tmp/repo" {
					t.Errorf("LocalRepository = %q", req.LocalRepository)
				}
			},
		},
		{
			name: "legacy local repository",
			args: []string{"-llr"},
			check: func(t *testing.T, req *request.Request) {
				if !req.UseLegacyLocalRepository {
					t.Error("UseLegacyLocalRepository = false")
				}
			},
		},
		{
			name: "quiet and errors",
			args: []string{"-q", "-e"},
			check: func(t *testing.T, req *request.Request) {
				if !req.Quiet || !req.ShowErrors || req.LogLevel != request.LevelError {
					t.Errorf("quiet=%v showErrors=%v level=%s", req.Quiet, req.ShowErrors, req.LogLevel)
				}
			},
		},
		{
			name: "debug beats quiet",
			args: []string{"-X", "-q"},
			check: func(t *testing.T, req *request.Request) {
				if req.Quiet || !req.Debug || !req.ShowErrors || req.LogLevel != request.LevelDebug {
					t.Errorf("debug=%v quiet=%v showErrors=%v level=%s", req.Debug, req.Quiet, req.ShowErrors, req.LogLevel)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			req, err := h.b.Build(t.Context(), tt.args)
			if err != nil {
				t.Fatalf("Build(%v) error = %v", tt.args, err)
			}
			tt.check(t, req)
		})
	}
}

func TestBuildLegacyRepoFromRuntimeProperty(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.b.RuntimeProperties.Set(PropLegacyLocalRepo, "true")
	req, err := h.b.Build(t.Context(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !req.UseLegacyLocalRepository {
		t.Error("UseLegacyLocalRepository = false, want true")
	}
}

func TestBuildThreadErrors(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.b.Build(t.Context(), []string{"-T", "many"})
	if !errors.Is(err, issue.ErrArgumentParse) {
		t.Errorf("-T many: error = %v, want ErrArgumentParse", err)
	}

	for _, value := range []string{"0", "0C", "1"} {
		h = newHarness(t)
		req, err := h.b.Build(t.Context(), []string{"-T", value})
		if err != nil {
			t.Fatalf("-T %s: Build() error = %v", value, err)
		}
		if req.DegreeOfConcurrency != 1 || req.BuilderID == request.BuilderMultiThreaded {
			t.Errorf("-T %s: degree %d builder %q, want the single-threaded default", value, req.DegreeOfConcurrency, req.BuilderID)
		}
	}
}

func TestBuildDeprecatedOptionsWarn(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if _, err := h.b.Build(t.Context(), []string{"-npu", "-up", "validate"}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, opt := range []string{"-npu", "-up"} {
		if !strings.Contains(h.logs.String(), "Command line option "+opt+" is deprecated") {
			t.Errorf("missing deprecation warning for %s in %q", opt, h.logs.String())
		}
	}
}

func TestBuildMissingSettingsFile(t *testing.T) {
	t.Parallel()

	for _, flag := range []string{"-s", "-gs"} {
		t.Run(flag, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			_, err := h.b.Build(t.Context(), []string{flag, "missing.xml", "install"})

			var fnf *issue.FileNotFoundError
			if !errors.As(err, &fnf) {
				t.Fatalf("Build() error = %v, want *FileNotFoundError", err)
			}
			if want := filepath.Join(h.wd, "missing.xml"); fnf.Path != want {
				t.Errorf("Path = %q, want %q", fnf.Path, want)
			}
			if len(h.events.events) != 0 {
				t.Errorf("settings collaborator was reached: %d events", len(h.events.events))
			}
		})
	}
}

func TestBuildSettingsDirectoryIsNotAFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.b.Build(t.Context(), []string{"-s", "."})
	if !errors.Is(err, issue.ErrFileNotFound) {
		t.Errorf("Build() error = %v, want ErrFileNotFound", err)
	}
}

func TestBuildSettingsAndToolchains(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.write(t, "custom-settings.xml", `<settings>
  <offline>true</offline>
  <localRepository>${user.home}/repo</localRepository>
  <mirrors><mirror><id>central-proxy</id><url>https://repo.example/maven</url><mirrorOf>central</mirrorOf></mirror></mirrors>
  <activeProfiles><activeProfile>corp</activeProfile></activeProfiles>
</settings>`)
	h.write(t, "tc.xml", `<toolchains>
  <toolchain><type>jdk</type><provides><version>21</version></provides></toolchain>
</toolchains>`)

	req, err := h.b.Build(t.Context(), []string{"-s", "custom-settings.xml", "-t", "tc.xml", "-e"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !req.Offline {
		t.Error("Offline = false, want true from settings")
	}
	if want := filepath.Join(h.home, "repo"); req.LocalRepository != want {
		t.Errorf("LocalRepository = %q, want %q", req.LocalRepository, want)
	}
	if len(req.Mirrors) != 1 || req.Mirrors[0].ID != "central-proxy" {
		t.Errorf("Mirrors = %+v", req.Mirrors)
	}
	if diff := cmp.Diff([]string{"corp"}, req.ActiveProfiles); diff != "" {
		t.Errorf("ActiveProfiles mismatch (-want +got):\n%s", diff)
	}
	if got := req.Toolchains["jdk"]; len(got) != 1 || got[0].Provides["version"] != "21" {
		t.Errorf("Toolchains = %+v", req.Toolchains)
	}
	if !strings.Contains(h.logs.String(), "Error stacktraces are turned on.") {
		t.Errorf("logs = %q, want show-errors message", h.logs.String())
	}

	var kinds []string
	for _, ev := range h.events.events {
		switch ev.(type) {
		case *settings.Request:
			kinds = append(kinds, "settings-request")
		case *settings.Result:
			kinds = append(kinds, "settings-result")
		case *settings.ToolchainsRequest:
			kinds = append(kinds, "toolchains-request")
		}
	}
	if diff := cmp.Diff([]string{"settings-request", "settings-result", "toolchains-request"}, kinds); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSettingsProblemsWarn(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.write(t, "broken.xml", "<settings><offline>")
	if _, err := h.b.Build(t.Context(), []string{"-s", "broken.xml"}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(h.logs.String(), "Some problems were encountered while building the effective settings") {
		t.Errorf("logs = %q, want settings problems warning", h.logs.String())
	}
}

func TestBuildChecksumMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		flag string
		want string
	}{
		{"-C", "Enabling strict checksum verification on all artifact downloads."},
		{"-c", "Disabling strict checksum verification on all artifact downloads."},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			if _, err := h.b.Build(t.Context(), []string{tt.flag}); err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if !strings.Contains(h.logs.String(), tt.want) {
				t.Errorf("logs = %q, want %q", h.logs.String(), tt.want)
			}
		})
	}
}

func TestBuildPom(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	pom := h.write(t, "modules/app/pom.xml", "<project/>")

	req, err := h.b.Build(t.Context(), []string{"-f", "modules/app"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.Pom != pom {
		t.Errorf("Pom = %q, want %q", req.Pom, pom)
	}
	if want := filepath.Dir(pom); req.BaseDir != want {
		t.Errorf("BaseDir = %q, want %q", req.BaseDir, want)
	}

	h = newHarness(t)
	_, err = h.b.Build(t.Context(), []string{"-f", "nowhere/pom.xml"})
	if !errors.Is(err, issue.ErrFileNotFound) {
		t.Errorf("missing pom: error = %v, want ErrFileNotFound", err)
	}
}

func TestBuildPrependsMavenConfigAndEnvArgs(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "MAVEN_ARGS=-Dfrom.env=yes -fae")
	h.write(t, ".mvn/maven.config", "-T 3\n-Dfrom.config='a b'\n-fn\n")

	req, err := h.b.Build(t.Context(), []string{"-ff", "verify"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.DegreeOfConcurrency != 3 {
		t.Errorf("DegreeOfConcurrency = %d, want 3 from maven.config", req.DegreeOfConcurrency)
	}
	if got := req.UserProperties.Value("from.config"); got != "a b" {
		t.Errorf("from.config = %q, want quoted value", got)
	}
	if got := req.UserProperties.Value("from.env"); got != "yes" {
		t.Errorf("from.env = %q, want yes", got)
	}
	if req.FailureBehavior != request.FailFast {
		t.Errorf("FailureBehavior = %q, want the command line to win", req.FailureBehavior)
	}
	if diff := cmp.Diff([]string{"verify"}, req.Goals); diff != "" {
		t.Errorf("Goals mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMultiModuleDir(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	real := filepath.Join(filepath.Dir(h.wd), "real")
	if err := os.MkdirAll(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(filepath.Dir(h.wd), "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	h.b.RuntimeProperties.Set(PropMultiModuleDir, link)

	req, err := h.b.Build(t.Context(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(real)
	if req.MultiModuleDir != want {
		t.Errorf("MultiModuleDir = %q, want %q", req.MultiModuleDir, want)
	}
	if got := h.b.RuntimeProperties.Value(PropMavenConf); got != filepath.Join(h.b.RuntimeProperties.Value(PropMavenHome), "conf") {
		t.Errorf("maven.conf = %q, want default under maven.home", got)
	}
}

func TestBuildParseFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.b.Build(t.Context(), []string{"--no-such-option"})

	var perr *issue.ArgumentParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Build() error = %v, want *ArgumentParseError", err)
	}
	if !strings.HasPrefix(h.stderr.String(), "Unable to parse command line options: ") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
	if !strings.Contains(h.stdout.String(), "usage: mvn [options]") {
		t.Errorf("stdout = %q, want usage", h.stdout.String())
	}
}

func TestBuildHelpAndVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-h"}, "usage: mvn [options]"},
		{[]string{"--version"}, "Apache Maven 3.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			req, err := h.b.Build(t.Context(), tt.args)

			var exit *ExitError
			if !errors.As(err, &exit) || exit.Code != types.ExitSuccess {
				t.Fatalf("Build() = (%v, %v), want ExitError{0}", req, err)
			}
			if !strings.Contains(h.stdout.String(), tt.want) {
				t.Errorf("stdout = %q, want %q", h.stdout.String(), tt.want)
			}
		})
	}
}

func TestBuildShowVersionContinues(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if _, err := h.b.Build(t.Context(), []string{"-V", "package"}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Bridge version: 1.0.0") {
		t.Errorf("stdout = %q, want banner", h.stdout.String())
	}
}

func TestBuildLogFile(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	req, err := h.b.Build(t.Context(), []string{"-l", "build.log", "-V"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := filepath.Join(h.wd, "build.log")
	if req.LogFile != want || req.Color {
		t.Errorf("LogFile = %q Color = %v", req.LogFile, req.Color)
	}
	if err := h.b.Output.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Apache Maven") {
		t.Errorf("log file = %q, want the banner", data)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing after redirect", h.stdout.String())
	}
}

func TestBuildLogFileFailureIsIgnored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	req, err := h.b.Build(t.Context(), []string{"-l", filepath.Join("no", "such", "dir", "build.log")})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.LogFile != "" || !req.Color {
		t.Errorf("LogFile = %q Color = %v, want redirection skipped", req.LogFile, req.Color)
	}
}

func TestBuildEncryptMasterPassword(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.b.Build(t.Context(), []string{"-emp", "s3cret"})

	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != types.ExitSuccess {
		t.Fatalf("Build() error = %v, want ExitError{0}", err)
	}
	out := strings.TrimSpace(h.stdout.String())
	clear, err := (&cipher.Cipher{}).DecryptDecorated(out, cipher.MasterPasswordKey)
	if err != nil {
		t.Fatalf("DecryptDecorated(%q) error = %v", out, err)
	}
	if clear != "s3cret" {
		t.Errorf("decrypted = %q, want s3cret", clear)
	}
}

func TestBuildEncryptMasterPasswordPrompts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.b.Stdin = strings.NewReader("typed\n")
	_, err := h.b.Build(t.Context(), []string{"-emp"})

	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("Build() error = %v, want ExitError", err)
	}
	out := h.stdout.String()
	if !strings.HasPrefix(out, "Master password: ") {
		t.Fatalf("stdout = %q, want prompt", out)
	}
	enc := strings.TrimSpace(strings.TrimPrefix(out, "Master password: "))
	clear, err := (&cipher.Cipher{}).DecryptDecorated(enc, cipher.MasterPasswordKey)
	if err != nil || clear != "typed" {
		t.Errorf("DecryptDecorated() = (%q, %v), want typed", clear, err)
	}
}

func TestBuildEncryptPassword(t *testing.T) {
	t.Parallel()

	c := &cipher.Cipher{}
	master, err := c.EncryptAndDecorate("master-pw", cipher.MasterPasswordKey)
	if err != nil {
		t.Fatal(err)
	}

	h := newHarness(t)
	secFile := h.write(t, "security.xml", "<settingsSecurity><master>"+master+"</master></settingsSecurity>")
	h.b.RuntimeProperties.Set(settings.SecurityLocationProperty, secFile)

	_, err = h.b.Build(t.Context(), []string{"-ep", "server-pw"})
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != types.ExitSuccess {
		t.Fatalf("Build() error = %v, want ExitError{0}", err)
	}
	clear, err := c.DecryptDecorated(strings.TrimSpace(h.stdout.String()), "master-pw")
	if err != nil || clear != "server-pw" {
		t.Errorf("DecryptDecorated() = (%q, %v), want server-pw", clear, err)
	}
}

func TestBuildEncryptPasswordWithoutMaster(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.b.Build(t.Context(), []string{"-ep", "server-pw"})
	if !errors.Is(err, ErrMasterPasswordNotSet) {
		t.Fatalf("Build() error = %v, want ErrMasterPasswordNotSet", err)
	}
	want := filepath.Join(h.home, ".m2", "settings-security.xml")
	if !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to name %s", err, want)
	}
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	h := newHarness(t)
	if _, err := h.b.Build(ctx, []string{"install"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v, want context.Canceled", err)
	}
}

func TestForkIsolatesBuilds(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.b.Logger.SetLevel(log.WarnLevel)

	fork, release := h.b.Fork()
	req, err := fork.Build(t.Context(), []string{"-q", "-Dmaven.repo.local=/tmp/first-repo", "-Dfoo=bar", "-l", "build.log", "clean"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.LocalRepository != "/tmp/first-repo" || !h.b.Output.Redirected() {
		t.Fatalf("forked build: LocalRepository %q, redirected %v", req.LocalRepository, h.b.Output.Redirected())
	}
	if !fork.RuntimeProperties.Has("foo") || h.b.RuntimeProperties.Has("foo") {
		t.Error("-D definitions were not confined to the fork")
	}
	release()

	if h.b.Output.Redirected() {
		t.Error("release kept the log file redirection")
	}
	if got := h.b.Logger.GetLevel(); got != log.WarnLevel {
		t.Errorf("logger level = %v, want %v", got, log.WarnLevel)
	}

	fork, release = h.b.Fork()
	defer release()
	req, err = fork.Build(t.Context(), []string{"clean"})
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if req.LocalRepository == "/tmp/first-repo" || req.SystemProperties.Has("foo") {
		t.Errorf("second build inherited the first: LocalRepository %q, system foo %v", req.LocalRepository, req.SystemProperties.Has("foo"))
	}
}
