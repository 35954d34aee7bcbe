// Package api is the read-only HTTP/WebSocket introspection surface of
// §6: it never mutates a cache. Handlers read a cache's counters and walk
// its iteration list directly through the exported accessors; they take
// no snapshot and hold no lock on the cache.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/ecscache/internal/registry"
	"github.com/vitaliisemenov/ecscache/pkg/logger"
	"github.com/vitaliisemenov/ecscache/pkg/metrics"
)

// Deps bundles the router's collaborators.
type Deps struct {
	Caches   *Registry
	Events   *EventHub
	Recorder *registry.Recorder
	Metrics  *metrics.HTTPMetrics
	Logger   *slog.Logger
}

// NewRouter builds the API router: request-id, logging, and metrics
// middleware wrap every route, matching the teacher's router ordering.
func NewRouter(deps Deps) *mux.Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	router := mux.NewRouter()
	router.Use(logger.LoggingMiddleware(deps.Logger))
	router.Use(rateLimitMiddleware(300, 50))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}

	h := &handlers{deps: deps}

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", h.health).Methods(http.MethodGet)
	v1.HandleFunc("/queries", h.listQueries).Methods(http.MethodGet)
	v1.HandleFunc("/queries/{id}/cache", h.cacheSnapshot).Methods(http.MethodGet)
	v1.HandleFunc("/queries/{id}/group", h.groupWindow).Methods(http.MethodPost)
	v1.HandleFunc("/queries/{id}/events", h.eventStream).Methods(http.MethodGet)

	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	return router
}
