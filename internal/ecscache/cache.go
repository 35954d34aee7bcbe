package ecscache

import "sync/atomic"

// Cache is the query cache core of spec.md §3–§5: a materialized,
// incrementally-maintained index of every table that matches one
// persistent query. A Cache takes no locks of its own — it is built,
// driven by events, and torn down from a single goroutine, the world's
// mutation thread (spec.md §5). Readers that need a consistent view
// snapshot state elsewhere; see internal/broadcast and internal/api.
type Cache struct {
	world      World
	descriptor QueryDescriptor
	evaluator  QueryEvaluator

	trivial    bool
	fieldCount int
	alloc      recordAllocator
	bloom      *TypeBloom

	// defaultIDs/zeroSources are the cache-shared vectors every full-layout
	// record compares against before allocating a private copy (spec.md
	// §4.2, §5's shared-vector discipline). Owned by the cache for its
	// whole lifetime; never mutated in place.
	defaultIDs  []ComponentID
	zeroSources []EntityID

	tables map[TableID]*tableBucket

	listFirst, listLast *MatchRecord
	matchCount          int

	groups          map[uint64]*groupList
	groupDescending bool
	cascadeBy       ComponentID
	cascadeRelation ComponentID

	monitorGen  uint64
	unsubscribe func()
	seenEvents  map[uint64]struct{}

	closed atomic.Bool
}

// New constructs the cache for desc against world, compiling the
// internal uncached query and subscribing to structural events
// (spec.md §4.1). The caller owns desc's GroupByCtx lifetime via
// GroupByCtxFree.
func New(world World, desc QueryDescriptor) (*Cache, error) {
	if world.ShuttingDown() {
		return nil, ErrWorldShuttingDown
	}
	if err := ValidateSignature(desc); err != nil {
		return nil, err
	}

	// order_by (and its callback variants) are incompatible with matching
	// empty tables; requesting ordering clears that flag (spec.md §6).
	if desc.OrderBy != 0 || desc.OrderByCallback != nil || desc.OrderByTableCallback != nil {
		desc.Flags.MatchEmptyTables = false
	}

	// The internal uncached query gets only the terms and flags; grouping,
	// ordering and user context stay with the cache.
	queryDesc := QueryDescriptor{ID: desc.ID, Terms: desc.Terms, Kind: desc.Kind, Flags: desc.Flags}
	evaluator, err := world.NewQuery(&queryDesc)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		world:      world,
		descriptor: desc,
		evaluator:  evaluator,
		tables:     make(map[TableID]*tableBucket),
		groups:     make(map[uint64]*groupList),
		seenEvents: make(map[uint64]struct{}),
		alloc:      newPoolAllocator(),
		monitorGen: world.MonitorGeneration(),
	}

	c.defaultIDs = make([]ComponentID, len(desc.Terms))
	for i, t := range desc.Terms {
		c.defaultIDs[i] = t.ID
	}
	c.zeroSources = make([]EntityID, len(desc.Terms))

	for _, t := range desc.Terms {
		if t.Cascade {
			c.cascadeRelation = t.TraversalRel
			if c.cascadeRelation == 0 {
				c.cascadeRelation = world.InheritanceRelation()
			}
			c.cascadeBy = c.cascadeRelation
			c.groupDescending = t.CascadeDescending
			break
		}
	}

	c.trivial = classifyTrivial(desc)
	c.fieldCount = len(desc.Terms)
	c.bloom = &TypeBloom{}
	for _, id := range QueryTermIDs(desc.Terms) {
		c.bloom.Add(id)
	}

	for _, t := range desc.Terms {
		world.Monitor().Register(t.ID, desc.ID)
		if t.Up {
			rel := t.TraversalRel
			if rel == 0 {
				rel = world.InheritanceRelation()
			}
			world.Monitor().Register(rel, desc.ID)
			if rel != world.InheritanceRelation() {
				world.Monitor().Register(world.InheritanceRelation(), desc.ID)
			}
		}
	}

	c.primeFromEvaluator()
	c.unsubscribe = world.Bus().Subscribe(c.handleEvent)

	return c, nil
}

// classifyTrivial derives whether a query qualifies for the reduced
// record layout (spec.md §4.2, example 4): no wildcards, no grouping,
// no up-traversal or explicit-entity sources, and change detection not
// forced on.
func classifyTrivial(desc QueryDescriptor) bool {
	if desc.Flags.DetectChanges {
		return false
	}
	if desc.GroupBy != 0 || desc.GroupByCallback != nil {
		return false
	}
	if desc.OrderBy != 0 || desc.OrderByCallback != nil || desc.OrderByTableCallback != nil {
		return false
	}
	for _, t := range desc.Terms {
		if t.hasNonThisSource() {
			return false
		}
		if t.First.Kind == RefWildcard || t.Second.Kind == RefWildcard {
			return false
		}
		if t.Cascade {
			return false
		}
	}
	return true
}

// Fini unsubscribes from the observer bus, unregisters every monitor,
// frees per-group contexts, and releases every record back to the
// allocator (spec.md §4.1 teardown). The Cache must not be used again.
func (c *Cache) Fini() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	for _, t := range c.descriptor.Terms {
		c.world.Monitor().Unregister(t.ID, c.descriptor.ID)
		if t.Up {
			rel := t.TraversalRel
			if rel == 0 {
				rel = c.world.InheritanceRelation()
			}
			c.world.Monitor().Unregister(rel, c.descriptor.ID)
			if rel != c.world.InheritanceRelation() {
				c.world.Monitor().Unregister(c.world.InheritanceRelation(), c.descriptor.ID)
			}
		}
	}
	for _, g := range c.groups {
		if c.descriptor.OnGroupDelete != nil {
			c.descriptor.OnGroupDelete(c.world, g.id, g.ctx, c.descriptor.GroupByCtx)
		}
	}
	if c.descriptor.GroupByCtxFree != nil && c.descriptor.GroupByCtx != nil {
		c.descriptor.GroupByCtxFree(c.descriptor.GroupByCtx)
	}
	for r := c.listFirst; r != nil; {
		next := r.Next
		c.alloc.freeRecord(r)
		r = next
	}
	c.tables = nil
	c.groups = nil
	c.listFirst, c.listLast = nil, nil
}

// TableCount returns the number of distinct tables currently indexed.
func (c *Cache) TableCount() int { return len(c.tables) }

// MatchCount returns the monotonic match-count stamp: it advances on
// every record insertion and removal and never decreases, so callers
// can detect "the cache changed" without diffing the full iteration
// list (spec.md §4.2's match_count). It is not a live record count —
// use TableCount/GetTable to observe the current contents.
func (c *Cache) MatchCount() int { return c.matchCount }

// EntityCount sums Count() across every indexed table, per spec.md §4.1.
func (c *Cache) EntityCount() int {
	total := 0
	for id := range c.tables {
		if t, ok := c.world.Table(id); ok {
			total += t.Count()
		}
	}
	return total
}

// GetTable returns the bucket's records for table, or nil if table is
// not currently indexed.
func (c *Cache) GetTable(table TableID) []*MatchRecord {
	b, ok := c.tables[table]
	if !ok {
		return nil
	}
	return b.records()
}

// First returns the head of the global iteration list, honoring a
// group filter when groupID is non-nil.
func (c *Cache) First(groupID *uint64) *MatchRecord {
	if groupID == nil {
		return c.listFirst
	}
	if g, ok := c.groups[*groupID]; ok {
		return g.first
	}
	return nil
}

// ID returns the query id this cache was constructed with.
func (c *Cache) ID() string { return c.descriptor.ID }

// Trivial reports whether this cache uses the reduced record layout.
func (c *Cache) Trivial() bool { return c.trivial }

// Bloom returns the filter built over this query's concrete term ids,
// for introspection. Table-create handling probes the world's per-table
// filter (World.TableBloomContains), not this one.
func (c *Cache) Bloom() *TypeBloom { return c.bloom }
