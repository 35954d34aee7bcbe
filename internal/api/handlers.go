package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/ecscache/internal/ecscache"
	"github.com/vitaliisemenov/ecscache/pkg/logger"
)

type handlers struct {
	deps Deps
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryListEntry is one row of GET /queries.
type queryListEntry struct {
	QueryID    string `json:"query_id"`
	Trivial    bool   `json:"trivial"`
	TableCount int    `json:"table_count"`
	MatchCount int    `json:"match_count"`
}

func (h *handlers) listQueries(w http.ResponseWriter, r *http.Request) {
	entries := make([]queryListEntry, 0, len(h.deps.Caches.IDs()))
	for _, id := range h.deps.Caches.IDs() {
		c, ok := h.deps.Caches.Get(id)
		if !ok {
			continue
		}
		entries = append(entries, queryListEntry{
			QueryID:    c.ID(),
			Trivial:    c.Trivial(),
			TableCount: c.TableCount(),
			MatchCount: c.MatchCount(),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

// cacheSnapshot is the body of GET /queries/{id}/cache: the counters
// spec.md §4.1 exposes, taken as a point-in-time read.
type cacheSnapshot struct {
	QueryID     string `json:"query_id"`
	TableCount  int    `json:"table_count"`
	EntityCount int    `json:"entity_count"`
	MatchCount  int    `json:"match_count"`
	Trivial     bool   `json:"trivial"`
}

func (h *handlers) cacheSnapshot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, ok := h.deps.Caches.Get(id)
	if !ok {
		logger.WithQueryID(logger.FromContext(r.Context(), h.deps.Logger), id).
			Warn("api: cache snapshot requested for unregistered query")
		writeError(w, http.StatusNotFound, "unknown query id")
		return
	}
	writeJSON(w, http.StatusOK, cacheSnapshot{
		QueryID:     c.ID(),
		TableCount:  c.TableCount(),
		EntityCount: c.EntityCount(),
		MatchCount:  c.MatchCount(),
		Trivial:     c.Trivial(),
	})
}

// groupWindowEntry describes one record within a requested group window.
type groupWindowEntry struct {
	Table   ecscache.TableID `json:"table"`
	GroupID uint64           `json:"group_id"`
}

func (h *handlers) groupWindow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, ok := h.deps.Caches.Get(id)
	if !ok {
		logger.WithQueryID(logger.FromContext(r.Context(), h.deps.Logger), id).
			Warn("api: group window requested for unregistered query")
		writeError(w, http.StatusNotFound, "unknown query id")
		return
	}

	var req groupWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.normalize()
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	it := c.NewIterator()
	if err := it.SetGroup(req.GroupID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	var out []groupWindowEntry
	for it.Next() && len(out) < req.Limit {
		rec := it.Record()
		out = append(out, groupWindowEntry{Table: rec.Table, GroupID: rec.GroupID})
	}
	writeJSON(w, http.StatusOK, out)
}

// CacheEvent is one message streamed over GET /queries/{id}/events.
type CacheEvent struct {
	Kind       string    `json:"kind"`
	Table      uint64    `json:"table,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}
