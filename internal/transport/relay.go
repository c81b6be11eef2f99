// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/invowk/m3bridge/pkg/types"
)

type (
	// Handler serves the orchestrator over the relayed stream. Its exit code
	// becomes the process exit code.
	Handler interface {
		Serve(ctx context.Context, in io.Reader, out io.Writer) (types.ExitCode, error)
	}

	// HandlerFunc adapts a function to Handler.
	HandlerFunc func(ctx context.Context, in io.Reader, out io.Writer) (types.ExitCode, error)
)

// Serve calls f.
func (f HandlerFunc) Serve(ctx context.Context, in io.Reader, out io.Writer) (types.ExitCode, error) {
	return f(ctx, in, out)
}

// Relay hands the session to h and blocks until h returns. Output left in
// the buffer is flushed afterwards. Cancelling ctx while h runs closes the
// session so a handler blocked on I/O returns; Relay then reports ctx.Err().
// The session stays open otherwise.
func Relay(ctx context.Context, s *Session, h Handler) (types.ExitCode, error) {
	g, gctx := errgroup.WithContext(ctx)
	served := make(chan struct{})
	var interrupted atomic.Bool

	code := types.ExitFailure
	g.Go(func() error {
		defer close(served)
		c, err := h.Serve(gctx, s, s)
		code = c
		if ferr := s.Flush(); err == nil && ferr != nil && ctx.Err() == nil {
			err = ferr
		}
		return err
	})
	g.Go(func() error {
		select {
		case <-served:
		case <-ctx.Done():
			select {
			case <-served:
			default:
				interrupted.Store(true)
				_ = s.Close()
			}
		}
		return nil
	})

	err := g.Wait()
	if !interrupted.Load() {
		return code, err
	}
	if ctxErr := ctx.Err(); !errors.Is(err, ctxErr) {
		err = errors.Join(ctxErr, err)
	}
	return code, err
}
