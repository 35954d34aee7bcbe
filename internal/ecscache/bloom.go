package ecscache

import "hash/fnv"

// TypeBloom is a small fixed-size Bloom filter over a set of component
// ids, used to cheaply reject a table from a query's candidate set
// before running the full uncached evaluator (spec.md §4.5). It is
// exported so a World implementation can build one per table (over that
// table's component signature) to answer TableBloomContains cheaply.
//
// No bloom-filter library appears among the example files actually
// retrieved for this pack (the one candidate, holiman/bloomfilter/v2,
// shows up only as a `replace` line in a go.mod with none of its call
// sites retrieved) — standing up a probe this correctness-sensitive on
// an unverified third-party API without a build step was judged riskier
// than the ~20 lines of double-hashing below, so this one piece stays on
// the standard library (see DESIGN.md).
type TypeBloom struct {
	bits [bloomWords]uint64
}

const (
	bloomWords = 8
	bloomBits  = bloomWords * 64
	bloomK     = 3
)

// Add registers id in the filter.
func (b *TypeBloom) Add(id ComponentID) {
	h1, h2 := bloomHash(id)
	for i := uint64(0); i < bloomK; i++ {
		bit := (h1 + i*h2) % bloomBits
		b.bits[bit/64] |= 1 << (bit % 64)
	}
}

// MayContain reports whether id may have been added; false is definite,
// true may be a false positive.
func (b *TypeBloom) MayContain(id ComponentID) bool {
	h1, h2 := bloomHash(id)
	for i := uint64(0); i < bloomK; i++ {
		bit := (h1 + i*h2) % bloomBits
		if b.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// MayContainAny reports whether any of ids may be present.
func (b *TypeBloom) MayContainAny(ids []ComponentID) bool {
	for _, id := range ids {
		if b.MayContain(id) {
			return true
		}
	}
	return false
}

func bloomHash(id ComponentID) (uint64, uint64) {
	h := fnv.New64a()
	var buf [8]byte
	v := uint64(id)
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	h1 := h.Sum64()
	h.Reset()
	buf[0]++
	_, _ = h.Write(buf[:])
	h2 := h.Sum64()
	if h2 == 0 {
		h2 = 1
	}
	return h1, h2
}

// QueryTermIDs extracts every concrete component/entity id a query's
// terms name, for building or probing a TypeBloom. Wildcard and $this
// fields contribute nothing: a table matching a wildcard term can carry
// any id, so it can never be rejected by a bloom probe.
func QueryTermIDs(terms []Term) []ComponentID {
	var ids []ComponentID
	for _, t := range terms {
		if t.First.Kind == RefEntity {
			ids = append(ids, t.First.ID)
		}
		if t.Second.Kind == RefEntity {
			ids = append(ids, t.Second.ID)
		}
	}
	return ids
}
