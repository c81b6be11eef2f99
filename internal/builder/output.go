// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"errors"
	"io"
	"os"
	"sync"
)

// Output owns the process-scoped standard streams. The writers returned by
// Stdout and Stderr always forward to the current destination, so loggers
// and engines created before a redirect follow it.
type Output struct {
	mu         sync.Mutex
	stdout     io.Writer
	stderr     io.Writer
	file       *os.File
	redirected bool
}

type stream struct {
	o   *Output
	err bool
}

// NewOutput returns an Output writing to stdout and stderr. Nil writers
// default to the process streams.
func NewOutput(stdout, stderr io.Writer) *Output {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Output{stdout: stdout, stderr: stderr}
}

// Stdout returns a writer for regular output.
func (o *Output) Stdout() io.Writer { return stream{o: o} }

// Stderr returns a writer for diagnostics.
func (o *Output) Stderr() io.Writer { return stream{o: o, err: true} }

// Redirected reports whether both streams go to a log file.
func (o *Output) Redirected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.redirected
}

// RedirectToFile sends both streams to path, truncating it. A second
// redirect replaces the first.
func (o *Output) RedirectToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.file
	o.file = f
	o.redirected = true
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close closes the log file, if any. Later writes go to the original
// streams.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	o.redirected = false
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func (s stream) Write(p []byte) (int, error) {
	s.o.mu.Lock()
	defer s.o.mu.Unlock()
	switch {
	case s.o.file != nil:
		return s.o.file.Write(p)
	case s.err:
		return s.o.stderr.Write(p)
	default:
		return s.o.stdout.Write(p)
	}
}
