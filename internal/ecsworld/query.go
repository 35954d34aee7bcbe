package ecsworld

import "github.com/vitaliisemenov/ecscache/internal/ecscache"

// memQuery is the uncached query evaluator (ecscache.QueryEvaluator):
// the real term matcher the cache core deliberately stays ignorant of
// (spec.md §1). It supports plain component presence terms and
// single-relation wildcard terms, producing one yield per resolved
// wildcard object — the fan-out internal/ecscache's next_match chain
// exists to hold.
type memQuery struct {
	world *MemWorld
	desc  *ecscache.QueryDescriptor
}

// NewQuery implements ecscache.World.
func (w *MemWorld) NewQuery(desc *ecscache.QueryDescriptor) (ecscache.QueryEvaluator, error) {
	return &memQuery{world: w, desc: desc}, nil
}

// All implements ecscache.QueryEvaluator.
func (q *memQuery) All(yield func(ecscache.QueryYield) bool) {
	for _, id := range q.world.orderedTableIDs() {
		if !q.sweepTable(id, yield) {
			return
		}
	}
}

// Bound implements ecscache.QueryEvaluator.
func (q *memQuery) Bound(table ecscache.TableID, yield func(ecscache.QueryYield) bool) {
	q.sweepTable(table, yield)
}

// sweepTable resolves every term against t, expanding any wildcard term
// across every pair edge it matches, and yields the cartesian product
// (in practice queries here use at most one wildcard term, so this is a
// single fan-out rather than a true cartesian product).
func (q *memQuery) sweepTable(id ecscache.TableID, yield func(ecscache.QueryYield) bool) bool {
	t, ok := q.world.tables[id]
	if !ok {
		return true
	}

	n := len(q.desc.Terms)
	trs := make([]ecscache.TableRecord, n)
	ids := make([]ecscache.ComponentID, n)
	sources := make([]ecscache.EntityID, n)
	var setFields, upFields uint64

	wildcardIdx := -1
	for i, term := range q.desc.Terms {
		if term.First.Kind == ecscache.RefWildcard || term.Second.Kind == ecscache.RefWildcard {
			wildcardIdx = i
			continue
		}
		col, resolvedID, ok := resolveTerm(t, term)
		if !ok {
			return true
		}
		trs[i] = ecscache.TableRecord{Table: id, Column: col}
		ids[i] = resolvedID
		setFields |= 1 << uint(i)
		// A field's source stays the zero value (generic, "$this") unless
		// it was reached by up-traversal or an explicit entity source;
		// this harness does not implement either, so every resolved field
		// here is $this-sourced and sources[i] is left at zero, matching
		// spec.md §4.2's shared-vector discipline.
		if term.Up {
			upFields |= 1 << uint(i)
		}
	}

	if wildcardIdx < 0 {
		return yield(ecscache.QueryYield{
			Table: id, Trs: trs, IDs: ids, Sources: sources,
			SetFields: setFields, UpFields: upFields,
		})
	}

	term := q.desc.Terms[wildcardIdx]
	matched := false
	for col, p := range t.pairs {
		if p.relation != term.ID {
			continue
		}
		matched = true
		yTrs := append([]ecscache.TableRecord(nil), trs...)
		yIDs := append([]ecscache.ComponentID(nil), ids...)
		ySources := append([]ecscache.EntityID(nil), sources...)
		yTrs[wildcardIdx] = ecscache.TableRecord{Table: id, Column: int32(col)}
		yIDs[wildcardIdx] = p.object
		if !yield(ecscache.QueryYield{
			Table: id, Trs: yTrs, IDs: yIDs, Sources: ySources,
			SetFields: setFields | (1 << uint(wildcardIdx)), UpFields: upFields,
		}) {
			return false
		}
	}
	if !matched {
		return true
	}
	return true
}

// resolveTerm matches a non-wildcard term against t, returning the
// column index that satisfies it and the concrete id it resolved to.
func resolveTerm(t *memTable, term ecscache.Term) (col int32, id ecscache.ComponentID, ok bool) {
	if _, present := t.components[term.ID]; present {
		return 0, term.ID, true
	}
	for i, p := range t.pairs {
		if p.relation == term.ID {
			return int32(i), p.object, true
		}
	}
	return 0, 0, false
}
