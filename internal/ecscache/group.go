package ecscache

// groupList is a contiguous segment of the global iteration list holding
// every record with one group_id (spec.md §3). When grouping is
// disabled, no groupList is ever created and the "group list" collapses
// to the global list itself (spec.md §9).
type groupList struct {
	id          uint64
	first, last *MatchRecord
	matchCount  int
	tableRefs   map[TableID]int
	ctx         any
}

func newGroupList(id uint64) *groupList {
	return &groupList{id: id, tableRefs: make(map[TableID]int)}
}

func (g *groupList) tableCount() int { return len(g.tableRefs) }

func (g *groupList) addTable(t TableID) { g.tableRefs[t]++ }

func (g *groupList) removeTable(t TableID) {
	if n := g.tableRefs[t]; n <= 1 {
		delete(g.tableRefs, t)
	} else {
		g.tableRefs[t] = n - 1
	}
}

// grouped reports whether this cache has a grouping dimension at all
// (custom group_by or built-in cascade).
func (c *Cache) grouped() bool {
	return c.descriptor.GroupByCallback != nil || c.descriptor.GroupBy != 0 || c.cascadeBy != 0
}

// groupID computes the group key for table per spec.md §4.3: a custom
// callback takes priority, then built-in cascade depth, then the
// built-in (group_by_id, *) pair match, else zero.
func (c *Cache) groupID(table TableID) uint64 {
	if c.descriptor.GroupByCallback != nil {
		return c.descriptor.GroupByCallback(c.world, table, c.descriptor.GroupBy, c.descriptor.GroupByCtx)
	}
	if c.cascadeBy != 0 {
		return uint64(c.world.RelationshipDepth(c.cascadeRelation, table))
	}
	if c.descriptor.GroupBy == 0 {
		return 0
	}
	if obj, ok := c.world.ResolvePairObject(table, c.descriptor.GroupBy); ok {
		return uint64(obj)
	}
	return 0
}

// nearestGroupNeighbor finds the group whose key is closest to key on
// the side that precedes it in iteration order: the largest key smaller
// than key when ascending, the smallest key larger than key when
// descending (spec.md §4.3).
func (c *Cache) nearestGroupNeighbor(key uint64) *groupList {
	var best *groupList
	for _, g := range c.groups {
		if c.groupDescending {
			if g.id > key && (best == nil || g.id < best.id) {
				best = g
			}
		} else {
			if g.id < key && (best == nil || g.id > best.id) {
				best = g
			}
		}
	}
	return best
}

// insertIntoGroup splices r into the global list at the position its
// group_id demands, creating the group lazily on first insertion
// (spec.md §3, §4.3).
func (c *Cache) insertIntoGroup(r *MatchRecord) {
	if g, ok := c.groups[r.GroupID]; ok {
		c.linkAfter(g.last, r)
		g.last = r
		g.matchCount++
		g.addTable(r.Table)
		return
	}

	if neighbor := c.nearestGroupNeighbor(r.GroupID); neighbor != nil {
		c.linkAfter(neighbor.last, r)
	} else {
		c.linkAfter(nil, r)
	}

	g := newGroupList(r.GroupID)
	g.first, g.last = r, r
	g.matchCount = 1
	g.addTable(r.Table)
	if c.descriptor.OnGroupCreate != nil {
		g.ctx = c.descriptor.OnGroupCreate(c.world, r.GroupID, c.descriptor.GroupByCtx)
	}
	c.groups[r.GroupID] = g
}

// removeFromGroup updates r's group endpoints after r has already been
// unlinked from the global list (prevGlobal/nextGlobal are its former
// neighbours there), and destroys the group if it is now empty
// (spec.md §4.3).
func (c *Cache) removeFromGroup(r *MatchRecord, prevGlobal, nextGlobal *MatchRecord) {
	g, ok := c.groups[r.GroupID]
	if !ok {
		return
	}
	if g.first == r {
		g.first = nextGlobal
	}
	if g.last == r {
		g.last = prevGlobal
	}
	g.matchCount--
	g.removeTable(r.Table)

	empty := g.matchCount <= 0 || g.first == nil || g.first.GroupID != g.id
	if empty {
		if c.descriptor.OnGroupDelete != nil {
			c.descriptor.OnGroupDelete(c.world, g.id, g.ctx, c.descriptor.GroupByCtx)
		}
		delete(c.groups, r.GroupID)
	}
}

// regroup re-evaluates r's group_id and, if it changed, removes and
// reinserts r so the list invariants are re-established (spec.md §4.5
// step 2, rematch).
func (c *Cache) regroup(r *MatchRecord) {
	newID := c.groupID(r.Table)
	if newID == r.GroupID {
		return
	}
	c.removeRecordFromLists(r)
	r.GroupID = newID
	c.insertRecordIntoLists(r)
}

// insertRecordIntoLists places r into the global list (and its group,
// when grouping is enabled) and bumps the change stamp.
func (c *Cache) insertRecordIntoLists(r *MatchRecord) {
	if c.grouped() {
		c.insertIntoGroup(r)
	} else {
		c.appendGlobalTail(r)
	}
	c.matchCount++
}

// removeRecordFromLists unlinks r from the global list (and its group)
// without touching the bucket chain, and bumps the change stamp.
func (c *Cache) removeRecordFromLists(r *MatchRecord) {
	prev, next := c.unlinkGlobal(r)
	if c.grouped() {
		c.removeFromGroup(r, prev, next)
	}
	c.matchCount++
}
