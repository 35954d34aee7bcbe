package ecscache

// tableBucket is the per-table bucket of spec.md §3: one per table that
// appears in the cache, holding the next_match chain of its match
// records plus a count of the rematch passes that have reconciled it.
type tableBucket struct {
	table        TableID
	first, last  *MatchRecord
	rematchCount uint32
}

// append links r onto the end of this bucket's next_match chain.
func (b *tableBucket) append(r *MatchRecord) {
	r.NextMatch = nil
	if b.last == nil {
		b.first, b.last = r, r
		return
	}
	b.last.NextMatch = r
	b.last = r
}

// records returns every record reachable from this bucket's chain, in
// chain order. Used by bucket-coverage checks and teardown.
func (b *tableBucket) records() []*MatchRecord {
	var out []*MatchRecord
	for r := b.first; r != nil; r = r.NextMatch {
		out = append(out, r)
	}
	return out
}
