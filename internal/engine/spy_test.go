// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/invowk/m3bridge/internal/builder"
	"github.com/invowk/m3bridge/internal/request"
	"github.com/invowk/m3bridge/internal/settings"
)

// recordingSpy records the kind of every call it receives.
type recordingSpy struct {
	calls []string
	fail  bool
}

func (s *recordingSpy) Name() string { return "recording" }

func (s *recordingSpy) Init(_ context.Context, data builder.InitData) error {
	s.calls = append(s.calls, "init")
	return s.err()
}

func (s *recordingSpy) OnEvent(_ context.Context, ev any) error {
	switch ev.(type) {
	case *settings.Request:
		s.calls = append(s.calls, "settings-request")
	case *settings.Result:
		s.calls = append(s.calls, "settings-result")
	case *settings.ToolchainsRequest:
		s.calls = append(s.calls, "toolchains-request")
	case *request.Request:
		s.calls = append(s.calls, "execution-request")
	case *ExecutionResult:
		s.calls = append(s.calls, "execution-result")
	default:
		s.calls = append(s.calls, fmt.Sprintf("%T", ev))
	}
	return s.err()
}

func (s *recordingSpy) Close() error {
	s.calls = append(s.calls, "close")
	return s.err()
}

func (s *recordingSpy) err() error {
	if s.fail {
		return errors.New("spy broke")
	}
	return nil
}

func TestDispatcherKeepsGoingOnSpyErrors(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	broken := &recordingSpy{fail: true}
	healthy := &recordingSpy{}
	d := NewDispatcher(logger, broken, healthy)

	d.Init(t.Context(), builder.InitData{})
	d.OnEvent(t.Context(), &settings.Request{})
	if err := d.Close(); err == nil {
		t.Error("Close() error = nil, want the broken spy's error")
	}

	want := []string{"init", "settings-request", "close"}
	if diff := cmp.Diff(want, healthy.calls); diff != "" {
		t.Errorf("healthy spy calls mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "spy=recording") {
		t.Errorf("logs = %q, want spy name", logs.String())
	}
}
