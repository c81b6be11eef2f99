// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"sync"

	"github.com/invowk/m3bridge/internal/request"
)

// Store holds the last execution result and the listener attached to its
// request. It lives as long as the process; whoever inspects build
// outcomes after Main returns is handed the Store explicitly.
type Store struct {
	mu       sync.RWMutex
	result   *ExecutionResult
	listener request.Listener
}

// Set records result and listener, replacing earlier values.
func (s *Store) Set(result *ExecutionResult, listener request.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	s.listener = listener
}

// Result returns the stored result, or nil.
func (s *Store) Result() *ExecutionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Listener returns the stored listener, or nil.
func (s *Store) Listener() request.Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener
}

// Clear drops the stored values.
func (s *Store) Clear() {
	s.Set(nil, nil)
}
