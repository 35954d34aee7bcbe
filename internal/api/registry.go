package api

import (
	"sync"

	"github.com/vitaliisemenov/ecscache/internal/ecscache"
)

// Registry is the in-process directory of live caches this API process
// is hosting, keyed by query id. It is the only mutable state this
// package owns, and it is guarded by its own mutex — separate from, and
// never touching, any Cache's single-writer internals (spec.md §5).
type Registry struct {
	mu     sync.RWMutex
	caches map[string]*ecscache.Cache
}

// NewRegistry builds an empty cache registry.
func NewRegistry() *Registry {
	return &Registry{caches: make(map[string]*ecscache.Cache)}
}

// Put registers a cache under its own query id.
func (r *Registry) Put(c *ecscache.Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caches[c.ID()] = c
}

// Remove drops a cache from the registry, typically paired with Fini.
func (r *Registry) Remove(queryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, queryID)
}

// Get returns the cache registered under queryID, if any.
func (r *Registry) Get(queryID string) (*ecscache.Cache, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caches[queryID]
	return c, ok
}

// IDs returns every registered query id.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.caches))
	for id := range r.caches {
		out = append(out, id)
	}
	return out
}
