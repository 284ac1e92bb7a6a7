package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Registry fans events out to subscribed callbacks. Subscriptions are
// keyed by UUID so they can be dropped independently; there is no
// subscription order, and callers must not rely on delivery order.
//
// Notify snapshots the subscriber set and invokes callbacks after
// releasing the lock, so a callback may subscribe or unsubscribe
// without deadlocking. Callbacks run on the notifying goroutine and
// should return quickly.
type Registry[E any] struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]func(E)
}

// NewRegistry creates an empty registry.
func NewRegistry[E any]() *Registry[E] {
	return &Registry[E]{subs: make(map[uuid.UUID]func(E))}
}

// Subscribe registers a callback and returns its subscription ID.
func (r *Registry[E]) Subscribe(fn func(E)) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	r.mu.Lock()
	r.subs[id] = fn
	r.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored, so
// double-unsubscribing is harmless.
func (r *Registry[E]) Unsubscribe(id uuid.UUID) {
	r.mu.Lock()
	delete(r.subs, id)
	r.mu.Unlock()
}

// Notify delivers the event to every callback subscribed at the time
// of the call, exactly once each.
func (r *Registry[E]) Notify(ev E) {
	r.mu.RLock()
	fns := make([]func(E), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len reports the number of active subscriptions.
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
