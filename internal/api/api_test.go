package api_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/ecscache/internal/api"
	"github.com/vitaliisemenov/ecscache/internal/ecscache"
	"github.com/vitaliisemenov/ecscache/internal/ecsworld"
	"github.com/vitaliisemenov/ecscache/pkg/metrics"
)

// promauto registers against the global default registry, so every test
// in this package shares one HTTPMetrics instance rather than each
// constructing its own and colliding on duplicate collector names.
var (
	sharedMetrics     *metrics.HTTPMetrics
	sharedMetricsOnce sync.Once
)

func testMetrics() *metrics.HTTPMetrics {
	sharedMetricsOnce.Do(func() { sharedMetrics = metrics.NewHTTPMetrics() })
	return sharedMetrics
}

const (
	compPosition ecscache.ComponentID = iota + 1
	relChildOf
)

func termThis(id ecscache.ComponentID) ecscache.Term {
	return ecscache.Term{ID: id, Src: ecscache.ThisRef, First: ecscache.ThisRef, Second: ecscache.ThisRef}
}

func newTestRouter(t *testing.T) (http.Handler, *api.Registry, *ecscache.Cache) {
	t.Helper()

	world := ecsworld.New(relChildOf)
	table := world.CreateTable([]ecscache.ComponentID{compPosition})
	world.SetCount(table, 1)

	c, err := ecscache.New(world, ecscache.QueryDescriptor{ID: "positions", Terms: []ecscache.Term{termThis(compPosition)}})
	require.NoError(t, err)
	t.Cleanup(c.Fini)

	reg := api.NewRegistry()
	reg.Put(c)

	router := api.NewRouter(api.Deps{
		Caches:  reg,
		Events:  api.NewEventHub(),
		Metrics: testMetrics(),
		Logger:  slog.Default(),
	})
	return router, reg, c
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListQueriesReportsRegisteredCache(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queries", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		QueryID    string `json:"query_id"`
		Trivial    bool   `json:"trivial"`
		TableCount int    `json:"table_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "positions", entries[0].QueryID)
	require.Equal(t, 1, entries[0].TableCount)
}

func TestCacheSnapshotUnknownQueryReturns404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queries/missing/cache", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCacheSnapshotReturnsCounters(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queries/positions/cache", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var snap struct {
		QueryID    string `json:"query_id"`
		TableCount int    `json:"table_count"`
		Trivial    bool   `json:"trivial"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, "positions", snap.QueryID)
	require.Equal(t, 1, snap.TableCount)
}

func TestGroupWindowRejectsInvalidBody(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queries/positions/group", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
