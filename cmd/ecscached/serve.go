package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/ecscache/internal/api"
	"github.com/vitaliisemenov/ecscache/internal/broadcast"
	"github.com/vitaliisemenov/ecscache/internal/config"
	"github.com/vitaliisemenov/ecscache/internal/ecsworld"
	"github.com/vitaliisemenov/ecscache/internal/registry"
	"github.com/vitaliisemenov/ecscache/pkg/logger"
	"github.com/vitaliisemenov/ecscache/pkg/metrics"
)

var querySetPath string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP/WebSocket introspection API",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&querySetPath, "queryset", "", "path to a YAML file seeding demo tables and queries")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	world := ecsworld.New(0)
	cacheReg := api.NewRegistry()
	events := api.NewEventHub()

	if querySetPath != "" {
		spec, err := loadQuerySet(querySetPath)
		if err != nil {
			return err
		}
		if err := applyQuerySet(world, spec, cacheReg); err != nil {
			return err
		}
		log.Info("serve: loaded query set", "path", querySetPath, "queries", len(cacheReg.IDs()))
	}

	var recorder *registry.Recorder
	if pool, err := registry.Connect(ctx, registry.Config{
		DSN:            cfg.Registry.DSN,
		MaxConns:       cfg.Registry.MaxConns,
		MinConns:       cfg.Registry.MinConns,
		ConnectTimeout: cfg.Registry.ConnectTimeout,
	}, log); err != nil {
		log.Warn("serve: registry unavailable, continuing without audit trail", "error", err)
	} else {
		defer pool.Close()
		recorder = registry.NewRecorder(pool, log)
	}

	publisher := broadcast.NewPublisher(broadcast.Config{
		Addr:    cfg.Broadcast.Addr,
		DB:      cfg.Broadcast.DB,
		Channel: cfg.Broadcast.Channel,
	}, log)
	defer publisher.Close()

	watchWorldGeneration(ctx, world, publisher, "demo-world")

	cacheMetrics := metrics.NewCacheMetrics("ecscache")
	watchCacheMetrics(ctx, cacheReg, cacheMetrics)
	watchCacheEvents(ctx, cacheReg, events)

	httpMetrics := metrics.NewHTTPMetrics()
	router := api.NewRouter(api.Deps{
		Caches:   cacheReg,
		Events:   events,
		Recorder: recorder,
		Metrics:  httpMetrics,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("serve: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("serve: listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// watchWorldGeneration publishes generation advances in the background;
// it never blocks the world's own mutation path.
func watchWorldGeneration(ctx context.Context, world *ecsworld.MemWorld, publisher *broadcast.Publisher, worldID string) {
	go func() {
		var last uint64
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				gen := world.MonitorGeneration()
				if gen != last {
					last = gen
					publisher.Publish(ctx, worldID, gen)
				}
			}
		}
	}()
}

// watchCacheMetrics polls every registered cache's counters into the
// CacheMetrics gauges. Polling, not a push hook, keeps cmd/ecscached the
// only place that knows metrics exist (internal/ecscache stays
// metrics-agnostic, as it is a general-purpose cache core).
func watchCacheMetrics(ctx context.Context, caches *api.Registry, cm *metrics.CacheMetrics) {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, id := range caches.IDs() {
					c, ok := caches.Get(id)
					if !ok {
						continue
					}
					cm.TableCount.WithLabelValues(id).Set(float64(c.TableCount()))
					cm.EntityCount.WithLabelValues(id).Set(float64(c.EntityCount()))
				}
			}
		}
	}()
}

// watchCacheEvents polls every registered cache's table_count/match_count
// and turns an observed change into a CacheEvent published on the
// matching EventHub topic, since internal/ecscache's observer bus is
// internal to the cache and internal/api never reaches into it directly
// (spec.md §5's read-only API boundary).
func watchCacheEvents(ctx context.Context, caches *api.Registry, hub *api.EventHub) {
	type seenState struct {
		tableCount, matchCount int
	}
	seen := make(map[string]seenState)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, id := range caches.IDs() {
					c, ok := caches.Get(id)
					if !ok {
						continue
					}
					state := seenState{tableCount: c.TableCount(), matchCount: c.MatchCount()}
					prev, known := seen[id]
					seen[id] = state
					if !known {
						continue
					}
					if state.matchCount != prev.matchCount {
						hub.Publish(id, api.CacheEvent{Kind: "rematch", ObservedAt: time.Now()})
					}
					if state.tableCount > prev.tableCount {
						hub.Publish(id, api.CacheEvent{Kind: "table_create", ObservedAt: time.Now()})
					} else if state.tableCount < prev.tableCount {
						hub.Publish(id, api.CacheEvent{Kind: "table_delete", ObservedAt: time.Now()})
					}
				}
			}
		}
	}()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
