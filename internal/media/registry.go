package media

import "sync"

// Registry tracks live handles by ID.
// It uses a map with RWMutex for thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]*Handle),
	}
}

// Add records h as live.
func (r *Registry) Add(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.ID] = h
}

// Get returns the live handle for id.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Remove drops id and reports whether it was live.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[id]; !ok {
		return false
	}
	delete(r.handles, id)
	return true
}

// List returns all live handles.
func (r *Registry) List() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		result = append(result, h)
	}
	return result
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
