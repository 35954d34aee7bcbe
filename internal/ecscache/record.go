package ecscache

import "sync"

// fullFields holds the attributes present only in the full (non-trivial)
// record layout (spec.md §3). A record in trivial layout has full == nil.
type fullFields struct {
	Ids       []ComponentID
	Sources   []EntityID
	Tables    []TableID
	SetFields uint64
	UpFields  uint64
	Monitor   []int32
}

// MatchRecord is the atom of the cache (spec.md §3): one table matched
// against one resolution of the query's terms.
type MatchRecord struct {
	Table TableID
	Trs   []TableRecord

	// Prev/Next link this record into the cache's global iteration list.
	Prev, Next *MatchRecord

	// NextMatch links to the next record for the same table (the
	// wildcard-expansion chain). Unused (always nil) outside a bucket.
	NextMatch *MatchRecord

	GroupID uint64

	full *fullFields
}

// Trivial reports whether this record uses the reduced layout.
func (r *MatchRecord) Trivial() bool { return r.full == nil }

// Ids returns the per-field resolved id vector, or nil for a trivial
// record.
func (r *MatchRecord) Ids() []ComponentID {
	if r.full == nil {
		return nil
	}
	return r.full.Ids
}

// Sources returns the per-field source-entity vector, or nil for a
// trivial record.
func (r *MatchRecord) Sources() []EntityID {
	if r.full == nil {
		return nil
	}
	return r.full.Sources
}

// SourceTables returns the per-field source-table vector (populated only
// when at least one field has a non-zero source), or nil.
func (r *MatchRecord) SourceTables() []TableID {
	if r.full == nil {
		return nil
	}
	return r.full.Tables
}

// SetFields/UpFields return the field bitmasks; zero for a trivial record
// (trivial queries never set up-traversed fields, spec.md §4.2).
func (r *MatchRecord) SetFields() uint64 {
	if r.full == nil {
		return 0
	}
	return r.full.SetFields
}

func (r *MatchRecord) UpFields() uint64 {
	if r.full == nil {
		return 0
	}
	return r.full.UpFields
}

// monitor lazily allocates the per-field change-detection counters on
// first use, matching spec.md §3's "allocated on demand".
func (r *MatchRecord) monitor(fieldCount int) []int32 {
	if r.full == nil {
		return nil
	}
	if r.full.Monitor == nil {
		r.full.Monitor = make([]int32, fieldCount)
	}
	return r.full.Monitor
}

// recordAllocator is the arena collaborator spec.md §6 requires: bucketed
// fixed-size allocation for trivial vs. full records. The cache never
// frees the shared default ids/sources vectors through this interface —
// those stay owned by the Cache for its lifetime (spec.md §5).
type recordAllocator interface {
	newRecord(trivial bool, fieldCount int) *MatchRecord
	freeRecord(r *MatchRecord)
}

// poolAllocator is a sync.Pool-backed arena: no third-party arena
// allocator appears anywhere in the retrieval pack (the corpus reaches
// for sync.Pool itself for exactly this kind of fixed-shape object
// recycling), so this single concern is the one place this package uses
// the standard library where the examples offer no library alternative.
type poolAllocator struct {
	trivial sync.Pool
	full    sync.Pool
}

func newPoolAllocator() *poolAllocator {
	return &poolAllocator{
		trivial: sync.Pool{New: func() any { return &MatchRecord{} }},
		full:    sync.Pool{New: func() any { return &MatchRecord{full: &fullFields{}} }},
	}
}

func (a *poolAllocator) newRecord(trivial bool, fieldCount int) *MatchRecord {
	var r *MatchRecord
	if trivial {
		r = a.trivial.Get().(*MatchRecord)
	} else {
		r = a.full.Get().(*MatchRecord)
		if r.full == nil {
			r.full = &fullFields{}
		}
	}
	r.Trs = make([]TableRecord, fieldCount)
	return r
}

func (a *poolAllocator) freeRecord(r *MatchRecord) {
	trivial := r.full == nil
	r.Table = 0
	r.Trs = nil
	r.Prev, r.Next, r.NextMatch = nil, nil, nil
	r.GroupID = 0
	if r.full != nil {
		r.full.Ids = nil
		r.full.Sources = nil
		r.full.Tables = nil
		r.full.SetFields = 0
		r.full.UpFields = 0
		r.full.Monitor = nil
	}
	if trivial {
		a.trivial.Put(r)
	} else {
		a.full.Put(r)
	}
}
