// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/invowk/m3bridge/internal/builder"
	"github.com/invowk/m3bridge/internal/core/lifecycle"
	"github.com/invowk/m3bridge/internal/issue"
	"github.com/invowk/m3bridge/internal/realm"
	"github.com/invowk/m3bridge/pkg/types"
)

// Invoker is the launcher entry. It builds the request, looks up the engine
// in the current realm and runs it.
type Invoker struct {
	// Builder is forked for every run; its Events are replaced by the
	// spy dispatcher.
	Builder *builder.Builder
	Context *realm.ContextHolder
	Store   *Store
	Spies   []Spy
	Logger  *slog.Logger
	// Observer sees every lifecycle transition.
	Observer func(from, to lifecycle.State)

	mu      sync.Mutex
	machine *lifecycle.Machine
}

// Machine returns the state machine of the latest run, or nil.
func (inv *Invoker) Machine() *lifecycle.Machine {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.machine
}

// Main builds and executes one request. Build failures complete the run
// with exit code 1 and a nil error; request and realm failures abort it and
// are returned.
func (inv *Invoker) Main(ctx context.Context, args []string) (types.ExitCode, error) {
	logger := inv.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := inv.start()

	current := inv.Context.Current()
	if current == nil {
		err := &issue.RealmSetupError{Op: "enter engine realm", Cause: realm.ErrNoSuchRealm}
		_ = m.Abort(types.ExitRealmSetup, err)
		return types.ExitRealmSetup, err
	}
	if err := m.RealmsReady(); err != nil {
		return types.ExitFailure, err
	}

	spies := NewDispatcher(logger, inv.Spies...)
	defer func() { _ = spies.Close() }()

	base := inv.Builder
	if base == nil {
		base = &builder.Builder{}
	}
	b, release := base.Fork()
	defer release()
	b.Events = spies

	started := time.Now()
	req, err := b.Build(ctx, args)
	if err != nil {
		var exit *builder.ExitError
		if errors.As(err, &exit) {
			_ = m.Abort(exit.Code, nil)
			return exit.Code, nil
		}
		result := NewExecutionResult(nil, []error{err}, started)
		spies.OnEvent(ctx, result)
		inv.Store.Set(result, b.Listener)
		_ = m.Abort(types.ExitFailure, err)
		return types.ExitFailure, err
	}
	if err := m.RequestBuilt(); err != nil {
		return types.ExitFailure, err
	}

	if err := m.Executing(ctx); err != nil {
		return m.ExitCode(), err
	}
	eng, err := realm.LookupAs[Engine](current, Role)
	if err != nil {
		_ = m.Abort(types.ExitRealmSetup, err)
		return types.ExitRealmSetup, err
	}

	spies.OnEvent(ctx, req)
	raw := eng.Execute(ctx, req.Clone())
	if raw == nil {
		raw = &RawResult{}
	}
	result := NewExecutionResult(raw, nil, started)
	spies.OnEvent(ctx, result)
	inv.Store.Set(result, req.Listener)

	_ = m.Complete(result.HasFailures())
	logger.Info("execution finished",
		"id", result.ID,
		"outcome", m.Outcome(),
		"failures", len(result.Failures()),
		"duration", result.Duration().Round(time.Millisecond))
	return m.ExitCode(), nil
}

func (inv *Invoker) start() *lifecycle.Machine {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.Store == nil {
		inv.Store = &Store{}
	}
	if inv.Context == nil {
		inv.Context = &realm.ContextHolder{}
	}
	var opts []lifecycle.Option
	if inv.Observer != nil {
		opts = append(opts, lifecycle.WithObserver(inv.Observer))
	}
	inv.machine = lifecycle.New(opts...)
	return inv.machine
}
