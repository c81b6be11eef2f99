// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/invowk/m3bridge/internal/engine"
	"github.com/invowk/m3bridge/internal/request"
	"github.com/invowk/m3bridge/pkg/types"
)

type (
	// Target is what the orchestrator drives. *launcher.Launcher
	// implements it.
	Target interface {
		Launch(ctx context.Context, args []string) (types.ExitCode, error)
		AppendLocations(realmID string, locations ...string) (int, error)
	}

	// Handler serves control frames. It implements transport.Handler.
	Handler struct {
		Target Target
		Store  *engine.Store
		Logger *slog.Logger

		mu  sync.Mutex
		enc *cbor.Encoder
		out io.Writer
	}

	flusher interface {
		Flush() error
	}
)

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Serve reads messages from in until OpExit or end of stream. OpExit
// returns its code; end of stream returns the exit code of the last launch,
// or success when nothing was launched. Malformed frames end the session
// with an error.
func (h *Handler) Serve(ctx context.Context, in io.Reader, out io.Writer) (types.ExitCode, error) {
	h.attach(out)
	defer h.attach(nil)

	dec := NewDecoder(in)
	last := types.ExitSuccess
	for {
		if err := ctx.Err(); err != nil {
			return types.ExitFailure, err
		}
		var msg Message
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				h.logger().Debug("orchestrator closed the stream", "exit_code", last)
				return last, nil
			}
			return types.ExitFailure, fmt.Errorf("decode message: %w", err)
		}
		h.logger().Debug("message received", "id", msg.ID, "op", msg.Op)

		switch msg.Op {
		case OpLaunch:
			var body LaunchBody
			if err := decodeBody(msg.Body, &body); err != nil {
				if err := h.reply(msg, nil, err); err != nil {
					return types.ExitFailure, err
				}
				continue
			}
			code, err := h.Target.Launch(ctx, body.Args)
			last = code
			if err := h.reply(msg, LaunchReply{ExitCode: int(code)}, err); err != nil {
				return types.ExitFailure, err
			}

		case OpAppend:
			var body AppendBody
			added, err := 0, decodeBody(msg.Body, &body)
			if err == nil {
				added, err = h.Target.AppendLocations(body.Realm, body.Locations...)
			}
			if err := h.reply(msg, AppendReply{Added: added}, err); err != nil {
				return types.ExitFailure, err
			}

		case OpResult:
			if err := h.reply(msg, h.result(), nil); err != nil {
				return types.ExitFailure, err
			}

		case OpExit:
			var body ExitBody
			err := decodeBody(msg.Body, &body)
			if rerr := h.reply(msg, nil, err); rerr != nil {
				return types.ExitFailure, rerr
			}
			if err != nil {
				continue
			}
			return types.ExitCode(body.Code).Clamp(), nil

		default:
			if err := h.reply(msg, nil, &UnknownOpError{Op: msg.Op}); err != nil {
				return types.ExitFailure, err
			}
		}
	}
}

// Listener forwards build progress as OpEvent frames while Serve runs.
// Events outside Serve are dropped.
func (h *Handler) Listener() request.Listener {
	return request.ListenerFunc(func(_ context.Context, ev request.Event) {
		body := EventBody{
			Type:       string(ev.Type),
			Project:    ev.Project,
			Message:    ev.Message,
			UnixMillis: ev.Time.UnixMilli(),
		}
		if err := h.send(Reply{Op: OpEvent}, body); err != nil && !errors.Is(err, errDetached) {
			h.logger().Warn("event not delivered", "type", ev.Type, "error", err)
		}
	})
}

func (h *Handler) result() ResultReply {
	if h.Store == nil {
		return ResultReply{}
	}
	res := h.Store.Result()
	if res == nil {
		return ResultReply{}
	}
	out := ResultReply{
		Present:         true,
		ID:              res.ID.String(),
		DurationMillis:  res.Duration().Milliseconds(),
		RequestRejected: len(res.RequestFailures) > 0,
	}
	if res.Raw != nil {
		out.Projects = res.Raw.Projects
		out.ExitStatus = res.Raw.ExitStatus
	}
	for _, f := range res.Failures() {
		out.Failures = append(out.Failures, f.Error())
	}
	return out
}

var errDetached = errors.New("no active session")

func (h *Handler) attach(out io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.out = out
	h.enc = nil
	if out != nil {
		h.enc = NewEncoder(out)
	}
}

// reply answers msg. A failure becomes the Error field next to the body;
// only a failure to write the reply itself ends the session.
func (h *Handler) reply(msg Message, body any, failure error) error {
	r := Reply{ID: msg.ID, Op: msg.Op}
	if failure != nil {
		r.Error = failure.Error()
		h.logger().Warn("operation failed", "id", msg.ID, "op", msg.Op, "error", failure)
	}
	return h.send(r, body)
}

func (h *Handler) send(r Reply, body any) error {
	if body != nil {
		data, err := Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s reply: %w", r.Op, err)
		}
		r.Body = data
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.enc == nil {
		return errDetached
	}
	if err := h.enc.Encode(r); err != nil {
		return fmt.Errorf("write %s reply: %w", r.Op, err)
	}
	if f, ok := h.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush %s reply: %w", r.Op, err)
		}
	}
	return nil
}
