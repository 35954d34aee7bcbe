package ecscache

// The global iteration list is a plain doubly-linked list threaded
// through MatchRecord.Prev/Next. These two primitives are the only way
// any code in this package touches those pointers, so the invariants of
// spec.md §3 (first.prev == nil, last.next == nil, x.prev.next == x,
// x.next.prev == x) hold everywhere by construction.

// unlinkGlobal removes r from the global list and returns its former
// neighbours, which the caller needs to fix up group boundaries.
func (c *Cache) unlinkGlobal(r *MatchRecord) (prev, next *MatchRecord) {
	prev, next = r.Prev, r.Next
	if prev != nil {
		prev.Next = next
	} else {
		c.listFirst = next
	}
	if next != nil {
		next.Prev = prev
	} else {
		c.listLast = prev
	}
	r.Prev, r.Next = nil, nil
	return prev, next
}

// linkAfter splices r into the global list immediately after after.
// after == nil means "at the head" (including into an empty list).
func (c *Cache) linkAfter(after, r *MatchRecord) {
	if after == nil {
		r.Prev = nil
		r.Next = c.listFirst
		if c.listFirst != nil {
			c.listFirst.Prev = r
		} else {
			c.listLast = r
		}
		c.listFirst = r
		return
	}
	next := after.Next
	r.Prev = after
	r.Next = next
	after.Next = r
	if next != nil {
		next.Prev = r
	} else {
		c.listLast = r
	}
}

// appendGlobalTail appends r to the end of the global list. Equivalent
// to linkAfter(c.listLast, r): when the list is empty that's the same
// head-insert path linkAfter already handles.
func (c *Cache) appendGlobalTail(r *MatchRecord) {
	c.linkAfter(c.listLast, r)
}
