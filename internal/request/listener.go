// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"time"
)

const (
	SessionStarted EventType = "session-started"
	ProjectStarted EventType = "project-started"
	ProjectFailed  EventType = "project-failed"
	SessionEnded   EventType = "session-ended"
)

type (
	// EventType names a build progress event.
	EventType string

	// Event is a build progress notification emitted by the engine.
	Event struct {
		Type    EventType
		Project string
		Message string
		Time    time.Time
	}

	// Listener observes build progress for one request.
	Listener interface {
		OnEvent(ctx context.Context, ev Event)
	}

	// ListenerFunc adapts a function to Listener.
	ListenerFunc func(ctx context.Context, ev Event)
)

// OnEvent calls f.
func (f ListenerFunc) OnEvent(ctx context.Context, ev Event) { f(ctx, ev) }
