package broadcast

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vitaliisemenov/ecscache/internal/ecscache"
)

// GroupKeyCache wraps a user-supplied group_by callback with a bounded
// LRU keyed by table id, implementing spec.md §4.3's group-id
// computation as a fast path rather than changing its semantics: a miss
// always falls through to the real callback. Entries leave the LRU only
// by eviction or an explicit Invalidate call; internal/ecscache does not
// call Invalidate when it frees a table's bucket.
type GroupKeyCache struct {
	cache    *lru.Cache[ecscache.TableID, uint64]
	compute  ecscache.GroupByFunc
	groupBy  ecscache.ComponentID
	groupCtx any
}

// NewGroupKeyCache builds a cache of the given size wrapping compute.
func NewGroupKeyCache(size int, groupBy ecscache.ComponentID, groupCtx any, compute ecscache.GroupByFunc) (*GroupKeyCache, error) {
	c, err := lru.New[ecscache.TableID, uint64](size)
	if err != nil {
		return nil, err
	}
	return &GroupKeyCache{cache: c, compute: compute, groupBy: groupBy, groupCtx: groupCtx}, nil
}

// Callback adapts this cache into an ecscache.GroupByFunc suitable for
// QueryDescriptor.GroupByCallback.
func (g *GroupKeyCache) Callback() ecscache.GroupByFunc {
	return func(world ecscache.World, table ecscache.TableID, groupByID ecscache.ComponentID, ctx any) uint64 {
		if id, ok := g.cache.Get(table); ok {
			return id
		}
		id := g.compute(world, table, groupByID, ctx)
		g.cache.Add(table, id)
		return id
	}
}

// Invalidate drops table's cached key, so the next lookup for table
// calls the wrapped callback again.
func (g *GroupKeyCache) Invalidate(table ecscache.TableID) {
	g.cache.Remove(table)
}
