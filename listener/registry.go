// Package listener tracks event subscriptions in a single table so that
// re-initialization never stacks duplicate handlers and teardown never
// leaks one.
package listener

import (
	"sync"

	"go.uber.org/zap"
)

// Handler receives the event payload. Handlers run on the emitter's
// goroutine.
type Handler func(payload any)

// DetachFunc releases the subscription's underlying resources. Nil is
// allowed for handlers with nothing to release.
type DetachFunc func() error

type slot struct {
	target string
	event  string
}

type registration struct {
	handler Handler
	detach  DetachFunc
}

// Registry is a subscription table keyed by (target, event). Adding to
// an occupied slot replaces the previous handler, detaching it first,
// so repeated wiring of the same surface is idempotent rather than
// additive.
type Registry struct {
	mu    sync.Mutex
	table map[slot]registration
	log   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		table: make(map[slot]registration),
		log:   log,
	}
}

// Add registers handler for the (target, event) slot. A previously
// registered handler for the same slot is detached and replaced.
// Detach failures of the replaced handler are swallowed.
func (r *Registry) Add(target, event string, handler Handler, detach DetachFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slot{target: target, event: event}
	if prev, ok := r.table[key]; ok {
		r.detachQuiet(key, prev)
	}
	r.table[key] = registration{handler: handler, detach: detach}
}

// Remove detaches the (target, event) slot if present. No-op otherwise.
func (r *Registry) Remove(target, event string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slot{target: target, event: event}
	reg, ok := r.table[key]
	if !ok {
		return
	}
	r.detachQuiet(key, reg)
	delete(r.table, key)
}

// Emit invokes the handler registered for (target, event), passing it
// the payload. Returns whether a handler was present.
func (r *Registry) Emit(target, event string, payload any) bool {
	r.mu.Lock()
	reg, ok := r.table[slot{target: target, event: event}]
	r.mu.Unlock()

	if !ok {
		return false
	}
	reg.handler(payload)
	return true
}

// Cleanup detaches every tracked handler and empties the table.
// Best-effort: detach failures are logged and swallowed, never raised.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, reg := range r.table {
		r.detachQuiet(key, reg)
	}
	r.table = make(map[slot]registration)
}

// Len reports the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.table)
}

func (r *Registry) detachQuiet(key slot, reg registration) {
	if reg.detach == nil {
		return
	}
	if err := reg.detach(); err != nil {
		r.log.Warn("detach failed",
			zap.String("target", key.target),
			zap.String("event", key.event),
			zap.Error(err))
	}
}
