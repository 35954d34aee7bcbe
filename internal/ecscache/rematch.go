package ecscache

// Rematch reconciles this cache's state against the world's current
// monitor generation (spec.md §4.5): when nothing has changed since the
// last call it is a cheap no-op, otherwise it re-derives match records
// for every table the uncached query currently yields, sweeping the
// whole world rather than just the tables already indexed so that a
// table which starts matching only because of a non-table-create
// structural change (e.g. an up-traversed relationship target gaining a
// component) is discovered too. Trivial caches never rematch: they carry
// no grouping, ordering, or change-detection state for Rematch to
// reconcile, and are kept current purely by table-create/table-delete
// events (spec.md §4.5).
func (c *Cache) Rematch() {
	if c.trivial {
		return
	}

	gen := c.world.MonitorGeneration()
	if gen == c.monitorGen {
		return
	}
	c.monitorGen = gen

	yieldsByTable := make(map[TableID][]QueryYield, len(c.tables))
	c.evaluator.All(func(y QueryYield) bool {
		yieldsByTable[y.Table] = append(yieldsByTable[y.Table], y)
		return true
	})

	// A table indexed before this rematch but no longer yielded at all
	// must still be reconciled, so its stale records are evicted below.
	for table := range c.tables {
		if _, matched := yieldsByTable[table]; !matched {
			yieldsByTable[table] = nil
		}
	}

	for table, yields := range yieldsByTable {
		c.rematchTable(table, yields)
	}
}

// rematchTable reconciles table's bucket against yields, the complete set
// of resolutions the uncached query currently produces for it (possibly
// empty): records whose columns are unchanged are kept and only
// re-grouped, records no longer yielded are freed, and newly yielded
// combinations are added (spec.md §4.5 steps 1-4). table need not have an
// existing bucket — a table discovered fresh by the Rematch sweep gets
// one created lazily, the same way addMatch does at construction time.
func (c *Cache) rematchTable(table TableID, yields []QueryYield) {
	bucket, existed := c.tables[table]

	stale := make(map[*MatchRecord]bool)
	if existed {
		for r := bucket.first; r != nil; r = r.NextMatch {
			stale[r] = true
		}
	}

	for _, y := range yields {
		if !c.descriptor.Flags.MatchEmptyTables {
			if t, ok := c.world.Table(table); ok && t.Count() == 0 {
				continue
			}
		}
		if bucket != nil {
			if r := c.findReusable(bucket, y); r != nil {
				stale[r] = false
				c.updateMatch(r, y)
				continue
			}
		}
		if bucket == nil {
			bucket = &tableBucket{table: table}
			c.tables[table] = bucket
		}
		r := c.newMatchFromYield(y)
		c.attachToBucket(bucket, r)
		c.insertRecordIntoLists(r)
	}

	if bucket == nil {
		return
	}

	for r, isStale := range stale {
		if isStale {
			c.detachFromBucket(bucket, r)
			c.removeRecordFromLists(r)
			c.alloc.freeRecord(r)
		}
	}

	if len(bucket.records()) == 0 {
		delete(c.tables, table)
	}
	bucket.rematchCount++
}

// findReusable returns an existing record in bucket whose columns match
// y's, so Rematch can update it in place instead of churning the
// allocator (spec.md §4.5's record re-use requirement).
func (c *Cache) findReusable(bucket *tableBucket, y QueryYield) *MatchRecord {
	for r := bucket.first; r != nil; r = r.NextMatch {
		if sameColumns(r.Trs, y.Trs) {
			return r
		}
	}
	return nil
}

func sameColumns(a []TableRecord, b []TableRecord) bool {
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

// updateMatch refreshes r's resolved fields from y and re-groups it if
// the table's group key moved.
func (c *Cache) updateMatch(r *MatchRecord, y QueryYield) {
	copy(r.Trs, y.Trs)
	if !c.trivial {
		f := r.full
		c.assignIDs(f, y.IDs)
		c.assignSources(f, y.Sources)
		f.SetFields = y.SetFields
		f.UpFields = y.UpFields
	}
	c.regroup(r)
}

// attachToBucket links a freshly built record onto bucket's next_match
// chain, used by rematch (construction-time priming uses addMatch
// instead, which also creates the bucket on demand).
func (c *Cache) attachToBucket(bucket *tableBucket, r *MatchRecord) {
	bucket.append(r)
}

// detachFromBucket removes r from bucket's next_match chain by
// relinking around it; O(bucket length) but buckets are small (one
// entry per wildcard resolution of a single table).
func (c *Cache) detachFromBucket(bucket *tableBucket, r *MatchRecord) {
	if bucket.first == r {
		bucket.first = r.NextMatch
	} else {
		for p := bucket.first; p != nil; p = p.NextMatch {
			if p.NextMatch == r {
				p.NextMatch = r.NextMatch
				break
			}
		}
	}
	if bucket.last == r {
		bucket.last = nil
		for p := bucket.first; p != nil; p = p.NextMatch {
			bucket.last = p
		}
	}
	r.NextMatch = nil
}
