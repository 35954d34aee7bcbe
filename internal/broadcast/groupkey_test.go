package broadcast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/ecscache/internal/broadcast"
	"github.com/vitaliisemenov/ecscache/internal/ecscache"
)

func TestGroupKeyCacheComputesOnceThenHitsLRU(t *testing.T) {
	calls := 0
	compute := func(world ecscache.World, table ecscache.TableID, groupByID ecscache.ComponentID, ctx any) uint64 {
		calls++
		return uint64(table) * 10
	}

	gk, err := broadcast.NewGroupKeyCache(8, ecscache.ComponentID(1), nil, compute)
	require.NoError(t, err)

	cb := gk.Callback()
	require.Equal(t, uint64(50), cb(nil, ecscache.TableID(5), 1, nil))
	require.Equal(t, uint64(50), cb(nil, ecscache.TableID(5), 1, nil))
	require.Equal(t, 1, calls, "second call for the same table must hit the LRU, not recompute")

	require.Equal(t, uint64(70), cb(nil, ecscache.TableID(7), 1, nil))
	require.Equal(t, 2, calls)
}

func TestGroupKeyCacheInvalidateForcesRecompute(t *testing.T) {
	calls := 0
	compute := func(world ecscache.World, table ecscache.TableID, groupByID ecscache.ComponentID, ctx any) uint64 {
		calls++
		return uint64(table)
	}

	gk, err := broadcast.NewGroupKeyCache(8, 0, nil, compute)
	require.NoError(t, err)
	cb := gk.Callback()

	cb(nil, ecscache.TableID(3), 0, nil)
	require.Equal(t, 1, calls)

	gk.Invalidate(ecscache.TableID(3))
	cb(nil, ecscache.TableID(3), 0, nil)
	require.Equal(t, 2, calls, "invalidated entries must recompute on next access")
}
