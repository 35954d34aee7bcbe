package ecscache

// Iterator walks the cache's iteration list, optionally restricted to
// one group's first..last window (spec.md §6, set_group). A Cache may
// have any number of live iterators; SetGroup on one already positioned
// mid-walk is rejected with ErrInvalidIteratorState, matching spec.md's
// "fails with invalid-parameter if iteration already in progress".
type Iterator struct {
	cache   *Cache
	cur     *MatchRecord
	groupID *uint64
	groupLo *MatchRecord
	started bool
}

// NewIterator returns an iterator positioned before the first record.
func (c *Cache) NewIterator() *Iterator {
	return &Iterator{cache: c}
}

// SetGroup positions a fresh iterator to group's first..last window; on
// a miss, the iterator will yield nothing. Returns
// ErrInvalidIteratorState if Next has already been called.
func (it *Iterator) SetGroup(groupID uint64) error {
	if it.started {
		return ErrInvalidIteratorState
	}
	it.groupID = &groupID
	if g, ok := it.cache.groups[groupID]; ok {
		it.groupLo = g.last
	} else {
		it.groupLo = nil
	}
	return nil
}

// Next advances the iterator and reports whether a record is available.
func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.cur = it.cache.First(it.groupID)
		return it.cur != nil
	}
	if it.cur == nil {
		return false
	}
	if it.groupID != nil && it.cur == it.groupLo {
		it.cur = nil
		return false
	}
	it.cur = it.cur.Next
	return it.cur != nil
}

// Record returns the record at the iterator's current position, or nil
// before the first Next call or after exhaustion.
func (it *Iterator) Record() *MatchRecord { return it.cur }
