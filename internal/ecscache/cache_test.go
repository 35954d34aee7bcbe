package ecscache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/ecscache/internal/ecscache"
	"github.com/vitaliisemenov/ecscache/internal/ecsworld"
)

const (
	compA ecscache.ComponentID = iota + 1
	compB
	compC
	relChildOf
)

func descFor(id string, terms ...ecscache.Term) ecscache.QueryDescriptor {
	return ecscache.QueryDescriptor{ID: id, Terms: terms}
}

func termAnd(id ecscache.ComponentID) ecscache.Term {
	return ecscache.Term{ID: id, Src: ecscache.ThisRef, First: ecscache.ThisRef, Second: ecscache.ThisRef}
}

func TestInitPopulatesExistingTables(t *testing.T) {
	w := ecsworld.New(relChildOf)
	t1 := w.CreateTable([]ecscache.ComponentID{compA})
	t2 := w.CreateTable([]ecscache.ComponentID{compA, compB})
	w.CreateTable([]ecscache.ComponentID{compC})
	w.SetCount(t1, 1)
	w.SetCount(t2, 1)

	c, err := ecscache.New(w, descFor("q1", termAnd(compA)))
	require.NoError(t, err)
	defer c.Fini()

	require.Equal(t, 2, c.TableCount())

	var seen []ecscache.TableID
	it := c.NewIterator()
	for it.Next() {
		seen = append(seen, it.Record().Table)
	}
	require.Equal(t, []ecscache.TableID{t1, t2}, seen)
}

func TestTableCreateEventExtendsMatch(t *testing.T) {
	w := ecsworld.New(relChildOf)
	w.CreateTable([]ecscache.ComponentID{compA})

	// Tables are created empty and the create event fires before any
	// entity lands, so the event path is only visible with empty tables matched.
	desc := descFor("q1", termAnd(compA))
	desc.Flags.MatchEmptyTables = true
	c, err := ecscache.New(w, desc)
	require.NoError(t, err)
	defer c.Fini()
	require.Equal(t, 1, c.TableCount())

	w.CreateTable([]ecscache.ComponentID{compA, compB})
	require.Equal(t, 2, c.TableCount())
}

func TestTableDeleteEventShrinksMatch(t *testing.T) {
	w := ecsworld.New(relChildOf)
	t1 := w.CreateTable([]ecscache.ComponentID{compA})
	t2 := w.CreateTable([]ecscache.ComponentID{compA, compB})
	w.SetCount(t1, 1)
	w.SetCount(t2, 1)

	c, err := ecscache.New(w, descFor("q1", termAnd(compA)))
	require.NoError(t, err)
	defer c.Fini()
	before := c.MatchCount()

	w.DeleteTable(t2)
	require.Equal(t, 1, c.TableCount())
	require.GreaterOrEqual(t, c.MatchCount(), before+1)

	it := c.NewIterator()
	require.True(t, it.Next())
	require.Equal(t, t1, it.Record().Table)
	require.False(t, it.Next())
}

func TestWildcardExpansionProducesOneRecordPerEdge(t *testing.T) {
	w := ecsworld.New(relChildOf)
	parent := w.CreateTable([]ecscache.ComponentID{compA})
	table := w.CreateTable([]ecscache.ComponentID{compB}, ecsworld.Pair(relChildOf, ecscache.ComponentID(parent)))
	other := w.CreateTable([]ecscache.ComponentID{compC})
	w.SetCount(table, 1)
	w.SetCount(other, 1)

	wildcard := ecscache.Term{ID: relChildOf, Src: ecscache.ThisRef, First: ecscache.WildcardRef, Second: ecscache.WildcardRef}
	c, err := ecscache.New(w, descFor("q1", wildcard))
	require.NoError(t, err)
	defer c.Fini()

	recs := c.GetTable(table)
	require.Len(t, recs, 1)
	require.Equal(t, ecscache.ComponentID(parent), recs[0].Ids()[0])

	require.Nil(t, c.GetTable(other))
}

func TestCascadeGroupingOrdersByDepth(t *testing.T) {
	w := ecsworld.New(relChildOf)
	root := w.CreateTable([]ecscache.ComponentID{compA})
	mid := w.CreateTable([]ecscache.ComponentID{compA}, ecsworld.Pair(relChildOf, ecscache.ComponentID(root)))
	leaf := w.CreateTable([]ecscache.ComponentID{compA}, ecsworld.Pair(relChildOf, ecscache.ComponentID(mid)))
	for _, id := range []ecscache.TableID{root, mid, leaf} {
		w.SetCount(id, 1)
	}

	desc := descFor("q1", ecscache.Term{
		ID: compA, Src: ecscache.ThisRef, First: ecscache.ThisRef, Second: ecscache.ThisRef,
		Cascade: true, TraversalRel: relChildOf, CascadeDescending: true,
	})
	c, err := ecscache.New(w, desc)
	require.NoError(t, err)
	defer c.Fini()

	var order []ecscache.TableID
	it := c.NewIterator()
	for it.Next() {
		order = append(order, it.Record().Table)
	}
	require.Equal(t, []ecscache.TableID{leaf, mid, root}, order)
}

func TestFiniReleasesMonitorsAndRecords(t *testing.T) {
	w := ecsworld.New(relChildOf)
	table := w.CreateTable([]ecscache.ComponentID{compA})
	w.SetCount(table, 1)

	c, err := ecscache.New(w, descFor("q1", termAnd(compA)))
	require.NoError(t, err)
	require.Equal(t, 1, c.TableCount())
	c.Fini()

	require.Equal(t, 0, c.TableCount())
	it := c.NewIterator()
	require.False(t, it.Next())
}

func TestValidateSignatureRejectsFilterTerm(t *testing.T) {
	_, err := ecscache.New(ecsworld.New(relChildOf), descFor("q1", ecscache.Term{
		ID: compA, Src: ecscache.ThisRef, First: ecscache.ThisRef, Second: ecscache.ThisRef, InOut: ecscache.InOutFilter,
	}))
	require.Error(t, err)
	var termErr *ecscache.TermError
	require.ErrorAs(t, err, &termErr)
}

func TestSetGroupMidIterationFails(t *testing.T) {
	w := ecsworld.New(relChildOf)
	table := w.CreateTable([]ecscache.ComponentID{compA})
	w.SetCount(table, 1)
	c, err := ecscache.New(w, descFor("q1", termAnd(compA)))
	require.NoError(t, err)
	defer c.Fini()

	it := c.NewIterator()
	require.True(t, it.Next())
	require.ErrorIs(t, it.SetGroup(1), ecscache.ErrInvalidIteratorState)
}
