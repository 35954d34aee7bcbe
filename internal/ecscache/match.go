package ecscache

// newMatchFromYield builds a MatchRecord from one evaluator yield,
// choosing the trivial or full layout per this cache's classification
// (spec.md §3, §4.2) and computing its group key.
func (c *Cache) newMatchFromYield(y QueryYield) *MatchRecord {
	r := c.alloc.newRecord(c.trivial, c.fieldCount)
	r.Table = y.Table
	copy(r.Trs, y.Trs)
	r.GroupID = c.groupID(y.Table)

	if !c.trivial {
		f := r.full
		c.assignIDs(f, y.IDs)
		c.assignSources(f, y.Sources)
		f.SetFields = y.SetFields
		f.UpFields = y.UpFields
		if !equalSources(y.Sources, c.zeroSources) {
			f.Tables = make([]TableID, len(y.Trs))
			for i, tr := range y.Trs {
				f.Tables[i] = tr.Table
			}
		}
	}
	return r
}

// assignIDs points f.Ids at the cache-shared default when y's resolved
// ids match it element-wise, else gives f its own private copy (spec.md
// §4.2's "populate a record from a query yield", §5's shared-vector
// discipline). The shared default is never mutated through f.
func (c *Cache) assignIDs(f *fullFields, ids []ComponentID) {
	if equalIDs(ids, c.defaultIDs) {
		f.Ids = c.defaultIDs
		return
	}
	private := make([]ComponentID, len(ids))
	copy(private, ids)
	f.Ids = private
}

// assignSources is assignIDs's counterpart for the per-field source
// vector: shared with the cache's zeroed default when every field is
// sourced from the iterated entity, private otherwise.
func (c *Cache) assignSources(f *fullFields, sources []EntityID) {
	if equalSources(sources, c.zeroSources) {
		f.Sources = c.zeroSources
		return
	}
	private := make([]EntityID, len(sources))
	copy(private, sources)
	f.Sources = private
}

func equalIDs(a, b []ComponentID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSources(a, b []EntityID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// addMatch inserts a newly built record into its table bucket and into
// the global/group lists, bumping the match-count change stamp.
func (c *Cache) addMatch(r *MatchRecord) {
	b, ok := c.tables[r.Table]
	if !ok {
		b = &tableBucket{table: r.Table}
		c.tables[r.Table] = b
	}
	b.append(r)
	c.insertRecordIntoLists(r)
}

// removeTableRecords evicts every record for table: unlinks each from
// the global/group lists and frees it, then drops the bucket.
func (c *Cache) removeTableRecords(table TableID) int {
	b, ok := c.tables[table]
	if !ok {
		return 0
	}
	n := 0
	for r := b.first; r != nil; {
		next := r.NextMatch
		c.removeRecordFromLists(r)
		c.alloc.freeRecord(r)
		r = next
		n++
	}
	delete(c.tables, table)
	return n
}

// primeFromEvaluator populates the cache from every table the uncached
// query currently matches (spec.md §4.1, construction-time fill).
func (c *Cache) primeFromEvaluator() {
	c.evaluator.All(func(y QueryYield) bool {
		if !c.descriptor.Flags.MatchEmptyTables {
			if t, ok := c.world.Table(y.Table); ok && t.Count() == 0 {
				return true
			}
		}
		c.addMatch(c.newMatchFromYield(y))
		return true
	})
}
