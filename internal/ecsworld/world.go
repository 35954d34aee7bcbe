// Package ecsworld is a minimal, in-memory implementation of the
// collaborator interfaces internal/ecscache needs (World, Table,
// QueryEvaluator, MonitorRegistry, ObserverBus). It exists to drive
// internal/ecscache's tests and the cmd/ecscached demo CLI — it is not
// itself a storage engine, just enough of one to exercise every cache
// code path against a real (if tiny) archetype store.
package ecsworld

import (
	"sync"

	"github.com/vitaliisemenov/ecscache/internal/ecscache"
)

// pairEdge is one relationship edge a table carries: (relation, object).
type pairEdge struct {
	relation ecscache.ComponentID
	object   ecscache.ComponentID
}

type memTable struct {
	id         ecscache.TableID
	components map[ecscache.ComponentID]struct{}
	pairs      []pairEdge
	count      int
	bloom      *ecscache.TypeBloom
}

func (t *memTable) ID() ecscache.TableID { return t.id }
func (t *memTable) Count() int           { return t.count }

// MemWorld is a single-writer, in-memory ECS world. Every mutating
// method must be called from the same goroutine that drives any caches
// built against it, matching the single-writer model internal/ecscache
// assumes.
type MemWorld struct {
	mu sync.Mutex // guards only bus subscriber bookkeeping; table state is single-writer

	order      []ecscache.TableID
	tables     map[ecscache.TableID]*memTable
	monitorGen uint64
	monitors   map[ecscache.ComponentID]map[string]struct{}

	handlers map[int]func(ecscache.Event)
	nextSub  int
	eventSeq uint64

	inheritanceRel ecscache.ComponentID
	nextTableID    ecscache.TableID
}

// New constructs an empty world. inheritanceRel is the relation id used
// for the default cascade grouping dimension (spec.md §4.3).
func New(inheritanceRel ecscache.ComponentID) *MemWorld {
	return &MemWorld{
		tables:         make(map[ecscache.TableID]*memTable),
		monitors:       make(map[ecscache.ComponentID]map[string]struct{}),
		handlers:       make(map[int]func(ecscache.Event)),
		inheritanceRel: inheritanceRel,
		nextTableID:    1,
	}
}

// CreateTable registers a new table with the given component set and
// relationship pairs, and fires a table-create event. Returns the new
// table's id.
func (w *MemWorld) CreateTable(components []ecscache.ComponentID, pairs ...pairEdgeArg) ecscache.TableID {
	id := w.nextTableID
	w.nextTableID++

	t := &memTable{id: id, components: make(map[ecscache.ComponentID]struct{})}
	for _, c := range components {
		t.components[c] = struct{}{}
	}
	for _, p := range pairs {
		t.pairs = append(t.pairs, pairEdge{relation: p.Relation, object: p.Object})
	}
	t.bloom = &ecscache.TypeBloom{}
	for c := range t.components {
		t.bloom.Add(c)
	}
	for _, p := range t.pairs {
		t.bloom.Add(p.Relation)
		t.bloom.Add(p.Object)
	}

	w.tables[id] = t
	w.order = append(w.order, id)
	w.bumpMonitor()
	w.emit(ecscache.Event{Kind: ecscache.EventTableCreate, Table: id, EventID: w.nextEventID()})
	return id
}

// pairEdgeArg names a relationship pair to attach at table creation.
type pairEdgeArg struct {
	Relation ecscache.ComponentID
	Object   ecscache.ComponentID
}

// Pair builds a pairEdgeArg for CreateTable.
func Pair(relation, object ecscache.ComponentID) pairEdgeArg {
	return pairEdgeArg{Relation: relation, Object: object}
}

// DeleteTable removes a table and fires a table-delete event.
func (w *MemWorld) DeleteTable(id ecscache.TableID) {
	if _, ok := w.tables[id]; !ok {
		return
	}
	delete(w.tables, id)
	for i, tid := range w.order {
		if tid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.bumpMonitor()
	w.emit(ecscache.Event{Kind: ecscache.EventTableDelete, Table: id, EventID: w.nextEventID()})
}

// SetCount sets the entity count stored in a table, for tests that
// exercise MatchEmptyTables filtering.
func (w *MemWorld) SetCount(id ecscache.TableID, n int) {
	if t, ok := w.tables[id]; ok {
		t.count = n
	}
}

// TouchComponent bumps the monitor generation, simulating a write to a
// component tracked by a registered monitor.
func (w *MemWorld) TouchComponent(ecscache.ComponentID) { w.bumpMonitor() }

func (w *MemWorld) bumpMonitor() { w.monitorGen++ }

func (w *MemWorld) nextEventID() uint64 {
	w.eventSeq++
	return w.eventSeq
}

func (w *MemWorld) emit(ev ecscache.Event) {
	w.mu.Lock()
	handlers := make([]func(ecscache.Event), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

// Subscribe implements ecscache.ObserverBus.
func (w *MemWorld) Subscribe(handler func(ecscache.Event)) func() {
	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.handlers[id] = handler
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Bus implements ecscache.World.
func (w *MemWorld) Bus() ecscache.ObserverBus { return w }

// Register implements ecscache.MonitorRegistry.
func (w *MemWorld) Register(id ecscache.ComponentID, queryID string) {
	set, ok := w.monitors[id]
	if !ok {
		set = make(map[string]struct{})
		w.monitors[id] = set
	}
	set[queryID] = struct{}{}
}

// Unregister implements ecscache.MonitorRegistry.
func (w *MemWorld) Unregister(id ecscache.ComponentID, queryID string) {
	if set, ok := w.monitors[id]; ok {
		delete(set, queryID)
		if len(set) == 0 {
			delete(w.monitors, id)
		}
	}
}

// Monitor implements ecscache.World.
func (w *MemWorld) Monitor() ecscache.MonitorRegistry { return w }

// MonitorGeneration implements ecscache.World.
func (w *MemWorld) MonitorGeneration() uint64 { return w.monitorGen }

// Table implements ecscache.World.
func (w *MemWorld) Table(id ecscache.TableID) (ecscache.Table, bool) {
	t, ok := w.tables[id]
	return t, ok
}

// TableBloomContains implements ecscache.World: cheap pre-check before a
// full bound evaluator sweep over a newly created table.
func (w *MemWorld) TableBloomContains(table ecscache.TableID, terms []ecscache.Term) bool {
	t, ok := w.tables[table]
	if !ok {
		return false
	}
	for _, id := range ecscache.QueryTermIDs(terms) {
		if !t.bloom.MayContain(id) {
			return false
		}
	}
	return true
}

// InheritanceRelation implements ecscache.World.
func (w *MemWorld) InheritanceRelation() ecscache.ComponentID { return w.inheritanceRel }

// ShuttingDown implements ecscache.World; this harness never shuts down
// mid-use.
func (w *MemWorld) ShuttingDown() bool { return false }

// RelationshipDepth implements ecscache.World: the number of relation
// hops from table up to the root, along relation edges.
func (w *MemWorld) RelationshipDepth(relation ecscache.ComponentID, table ecscache.TableID) int32 {
	depth := int32(0)
	visited := map[ecscache.TableID]bool{}
	cur := table
	for {
		if visited[cur] {
			return depth
		}
		visited[cur] = true
		t, ok := w.tables[cur]
		if !ok {
			return depth
		}
		parent, ok := w.parentTable(t, relation)
		if !ok {
			return depth
		}
		depth++
		cur = parent
	}
}

// parentTable finds the table whose entity is named by relation's
// object, if that object happens to itself be a table id in this
// harness's simplified id space (tables and entities share ComponentID
// space here).
func (w *MemWorld) parentTable(t *memTable, relation ecscache.ComponentID) (ecscache.TableID, bool) {
	for _, p := range t.pairs {
		if p.relation == relation {
			return ecscache.TableID(p.object), true
		}
	}
	return 0, false
}

// ResolvePairObject implements ecscache.World: the built-in group_by
// default, matching (relation, *) against table.
func (w *MemWorld) ResolvePairObject(table ecscache.TableID, relation ecscache.ComponentID) (ecscache.ComponentID, bool) {
	t, ok := w.tables[table]
	if !ok {
		return 0, false
	}
	for _, p := range t.pairs {
		if p.relation == relation {
			return p.object, true
		}
	}
	return 0, false
}

// orderedTableIDs returns every table id in creation order, so query
// sweeps are deterministic (spec.md §8's ordering guarantees assume
// table-insertion order is stable).
func (w *MemWorld) orderedTableIDs() []ecscache.TableID {
	out := make([]ecscache.TableID, len(w.order))
	copy(out, w.order)
	return out
}
