package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CacheMetrics contains all query-cache-level metrics for the ECS runtime.
//
// Cache metrics track the cost and shape of query cache maintenance:
//   - Structural events (table-create/table-delete deliveries, bloom-probe rejects)
//   - Rematch (how often it runs, how many tables it touches, how long it takes)
//   - Live shape (tables cached, groups active, match_count change stamp)
//
// All metrics follow the taxonomy:
// ecscache_<subsystem>_<metric_name>_<unit>
//
// Example:
//
//	cm := NewCacheMetrics("ecscache")
//	cm.TableCount.WithLabelValues(queryID).Set(3)
//	cm.RematchTotal.WithLabelValues(queryID).Inc()
type CacheMetrics struct {
	namespace string

	// TableCount is the current number of per-table buckets, per query.
	TableCount *prometheus.GaugeVec

	// EntityCount is the current sum of matched tables' entity counts, per query.
	EntityCount *prometheus.GaugeVec

	// MatchCountTotal mirrors the cache's monotonic match_count change stamp, per query.
	MatchCountTotal *prometheus.CounterVec

	// GroupCount is the current number of live groups, per query (0 when ungrouped).
	GroupCount *prometheus.GaugeVec

	// RematchTotal counts full rematch sweeps triggered by monitor generation advances.
	RematchTotal *prometheus.CounterVec

	// RematchDurationSeconds measures how long a rematch sweep took.
	RematchDurationSeconds *prometheus.HistogramVec

	// TableCreateEventsTotal counts table-create events delivered to the cache.
	TableCreateEventsTotal *prometheus.CounterVec

	// TableDeleteEventsTotal counts table-delete events delivered to the cache.
	TableDeleteEventsTotal *prometheus.CounterVec

	// BloomRejectsTotal counts table-create events rejected by the bloom filter probe
	// before running the uncached query.
	BloomRejectsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates a new CacheMetrics instance with all series registered.
//
// Parameters:
//   - namespace: the Prometheus namespace (typically "ecscache")
func NewCacheMetrics(namespace string) *CacheMetrics {
	labels := []string{"query_id"}
	return &CacheMetrics{
		namespace: namespace,
		TableCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "table_count",
				Help:      "Number of archetype tables currently matched by a query cache.",
			},
			labels,
		),
		EntityCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "entity_count",
				Help:      "Sum of entity counts across a query cache's matched tables.",
			},
			labels,
		),
		MatchCountTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "match_count_total",
				Help:      "Monotonic count of match record inserts/removes for a query cache.",
			},
			labels,
		),
		GroupCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "group_count",
				Help:      "Number of live groups in a grouped query cache.",
			},
			labels,
		),
		RematchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "rematch_total",
				Help:      "Number of full rematch sweeps run for a query cache.",
			},
			labels,
		),
		RematchDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "rematch_duration_seconds",
				Help:      "Duration of rematch sweeps.",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
			},
			labels,
		),
		TableCreateEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "table_create_events_total",
				Help:      "Table-create events delivered to a query cache's observer.",
			},
			labels,
		),
		TableDeleteEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "table_delete_events_total",
				Help:      "Table-delete events delivered to a query cache's observer.",
			},
			labels,
		),
		BloomRejectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "bloom_rejects_total",
				Help:      "Table-create events rejected by the bloom filter probe.",
			},
			labels,
		),
	}
}
