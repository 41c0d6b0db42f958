package buffer

import "sync"

// Registry tracks the collections currently holding buffered state for one
// backend. A collection is added exactly once, when its path's cache entry
// is first created; a second collection sharing an already-buffered path is
// not separately registered. Draining is destructive so a batch flush
// attempts each registered collection exactly once.
type Registry struct {
	mu    sync.Mutex
	items []Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends c to the registry.
func (r *Registry) Add(c Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, c)
}

// Pop removes and returns the most recently added collection, or ok=false
// if the registry is empty.
func (r *Registry) Pop() (Collection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return nil, false
	}

	c := r.items[len(r.items)-1]
	r.items = r.items[:len(r.items)-1]

	return c, true
}

// Len returns the number of registered collections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.items)
}

// pathDeferred reports whether any registered collection for path is still
// inside a buffered scope. Used to keep an inner scope's exit from flushing
// a path an outer scope still protects.
func (r *Registry) pathDeferred(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.items {
		if c.Path() == path && c.Buffered() {
			return true
		}
	}

	return false
}
