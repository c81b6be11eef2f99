// SPDX-License-Identifier: MPL-2.0

package realm

import "sync"

// ContextHolder tracks the current realm. Enter swaps it and returns the
// function that restores the previous one; callers defer it so every exit
// path restores the context.
type ContextHolder struct {
	mu      sync.Mutex
	current *Realm
}

// Current returns the current realm, or nil.
func (h *ContextHolder) Current() *Realm {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Enter makes r current until the returned restore func is called.
// Restoring twice is a no-op.
func (h *ContextHolder) Enter(r *Realm) (restore func()) {
	h.mu.Lock()
	saved := h.current
	h.current = r
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.current = saved
			h.mu.Unlock()
		})
	}
}
