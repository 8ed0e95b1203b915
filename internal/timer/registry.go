package timer

import (
	"sync"

	"github.com/google/uuid"
)

// Entry is a registered target with its ID
type Entry struct {
	ID     uuid.UUID
	Target Target
}

// Registry is the mutable set of live timer targets
type Registry struct {
	mu      sync.RWMutex
	targets map[uuid.UUID]Target
	order   []uuid.UUID
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[uuid.UUID]Target),
	}
}

// Add registers a target and returns its ID
func (r *Registry) Add(t Target) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	r.targets[id] = t
	r.order = append(r.order, id)
	return id
}

// Remove unregisters a target, reporting whether it was present
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.targets[id]; !exists {
		return false
	}
	delete(r.targets, id)

	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the target registered under id
func (r *Registry) Get(id uuid.UUID) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[id]
	return t, ok
}

// Len returns the number of registered targets
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshot returns the registered targets in insertion order. Later
// mutations do not affect the returned slice.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, Entry{ID: id, Target: r.targets[id]})
	}
	return entries
}
