// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/invowk/m3bridge/internal/builder"
)

type (
	// Spy observes one invocation: Init with the build environment, then
	// the settings and toolchains requests and results, the execution
	// request and the execution result, then Close.
	Spy interface {
		Init(ctx context.Context, data builder.InitData) error
		OnEvent(ctx context.Context, ev any) error
		Close() error
	}

	// Dispatcher fans events out to spies. A failing spy is logged and
	// never fails the build.
	Dispatcher struct {
		spies  []Spy
		logger *slog.Logger
	}
)

// NewDispatcher returns a Dispatcher for spies. A nil logger means
// slog.Default().
func NewDispatcher(logger *slog.Logger, spies ...Spy) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{spies: spies, logger: logger}
}

// Init implements builder.EventSink.
func (d *Dispatcher) Init(ctx context.Context, data builder.InitData) {
	for _, s := range d.spies {
		if err := s.Init(ctx, data); err != nil {
			d.logger.Warn("failed to initialize event spy", "spy", spyName(s), "error", err)
		}
	}
}

// OnEvent implements builder.EventSink.
func (d *Dispatcher) OnEvent(ctx context.Context, ev any) {
	for _, s := range d.spies {
		if err := s.OnEvent(ctx, ev); err != nil {
			d.logger.Warn("failed to notify event spy", "spy", spyName(s), "error", err)
		}
	}
}

// Close closes every spy and returns their joined errors.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.spies {
		if err := s.Close(); err != nil {
			d.logger.Warn("failed to close event spy", "spy", spyName(s), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func spyName(s Spy) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "anonymous"
}
