package runtime

import (
	"sort"
	"sync"
)

// Registry holds the descendant coordinators registered with a coordinator,
// keyed by their presence key. Registering an existing key replaces the
// previous entry, which keeps re-mounted (hot-reloaded) instances unique.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Coordinator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Coordinator),
	}
}

// Register adds c, replacing any entry with the same key.
func (r *Registry) Register(c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[c.Key()] = c
}

// Unregister removes the entry for key, if any.
func (r *Registry) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Get returns the coordinator registered under key.
func (r *Registry) Get(key string) (*Coordinator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.entries[key]
	return c, ok
}

// List returns the registered coordinators sorted by key.
func (r *Registry) List() []*Coordinator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Coordinator, 0, len(r.entries))
	for _, c := range r.entries {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Key() < list[j].Key()
	})
	return list
}

// Len returns the number of registered coordinators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*Coordinator)
}
