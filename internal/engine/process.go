// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/invowk/m3bridge/internal/request"
)

// ExtClassPathProperty carries extension archives to the engine process.
const ExtClassPathProperty = "maven.ext.class.path"

var (
	buildingLine = regexp.MustCompile(`^\[INFO\] Building ([^:]+?)(?:\s+\[\d+/\d+\])?\s*$`)
	failedLine   = regexp.MustCompile(`^\[ERROR\] Failed to execute goal .* on project ([^:]+): (.*)$`)
)

// ProcessEngine runs the engine launcher script of an installed
// distribution as a child process.
type ProcessEngine struct {
	// Home is the engine distribution directory.
	Home string
	// Executable overrides ${Home}/bin/mvn.
	Executable string
	// Environ is the child environment. Nil means os.Environ().
	Environ []string
	Stdout  io.Writer
	Stderr  io.Writer
	// Extensions returns archives appended to the engine realm at runtime.
	Extensions func() []string
	Logger     *slog.Logger
}

// ExecutablePath returns the launcher the engine runs.
func (e *ProcessEngine) ExecutablePath() string {
	if e.Executable != "" {
		return e.Executable
	}
	name := "mvn"
	if runtime.GOOS == "windows" {
		name = "mvn.cmd"
	}
	return filepath.Join(e.Home, "bin", name)
}

// Command renders req to the child argument vector. The log file is left
// out since the bridge output is already redirected there.
func (e *ProcessEngine) Command(req *request.Request) []string {
	r := req.Clone()
	r.LogFile = ""
	args := r.ToArgs()
	if e.Extensions != nil {
		if ext := e.Extensions(); len(ext) > 0 {
			def := "-D" + ExtClassPathProperty + "=" + strings.Join(ext, string(os.PathListSeparator))
			args = append([]string{def}, args...)
		}
	}
	return args
}

// Execute implements Engine.
func (e *ProcessEngine) Execute(ctx context.Context, req *request.Request) *RawResult {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res := &RawResult{}
	notify := func(t request.EventType, project, msg string) {
		if req.Listener != nil {
			req.Listener.OnEvent(ctx, request.Event{Type: t, Project: project, Message: msg, Time: time.Now()})
		}
	}

	exe := e.ExecutablePath()
	cmd := exec.CommandContext(ctx, exe, e.Command(req)...)
	cmd.Dir = req.BaseDir
	cmd.Env = childEnv(e.Environ)
	cmd.Stderr = writerOr(e.Stderr, os.Stderr)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		res.Failures = append(res.Failures, fmt.Errorf("attach engine output: %w", err))
		return res
	}

	logger.Debug("starting engine", "executable", exe, "dir", cmd.Dir)
	if err := cmd.Start(); err != nil {
		res.Failures = append(res.Failures, fmt.Errorf("start engine %s: %w", exe, err))
		return res
	}
	notify(request.SessionStarted, "", "")

	out := writerOr(e.Stdout, os.Stdout)
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		fmt.Fprintln(out, line)
		if m := buildingLine.FindStringSubmatch(line); m != nil {
			res.Projects = append(res.Projects, m[1])
			notify(request.ProjectStarted, m[1], "")
		} else if m := failedLine.FindStringSubmatch(line); m != nil {
			res.Failures = append(res.Failures, &BuildFailureError{Project: m[1], Message: m[2]})
			notify(request.ProjectFailed, m[1], m[2])
		}
	}
	if err := sc.Err(); err != nil {
		logger.Debug("engine output scan stopped", "error", err)
		_, _ = io.Copy(out, stdout)
	}

	err = cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitStatus = exitErr.ExitCode()
		if len(res.Failures) == 0 {
			res.Failures = append(res.Failures, &BuildFailureError{Message: fmt.Sprintf("engine exited with status %d", res.ExitStatus)})
		}
	default:
		res.ExitStatus = -1
		res.Failures = append(res.Failures, fmt.Errorf("wait for engine: %w", err))
	}
	notify(request.SessionEnded, "", "")
	return res
}

// childEnv drops MAVEN_ARGS, which is already folded into the request.
func childEnv(environ []string) []string {
	if environ == nil {
		environ = os.Environ()
	}
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "MAVEN_ARGS=") {
			out = append(out, kv)
		}
	}
	return out
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
