package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/vitaliisemenov/ecscache/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Introspection endpoint, not a browser-facing app: any origin may
	// open a read-only event stream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 5 * time.Second

// eventStream upgrades to a WebSocket and streams CacheEvent messages
// for one query id until the client disconnects.
func (h *handlers) eventStream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.deps.Caches.Get(id); !ok {
		writeError(w, http.StatusNotFound, "unknown query id")
		return
	}

	log := logger.WithQueryID(logger.FromContext(r.Context(), h.deps.Logger), id)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("api: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	subscriberID, events, unsubscribe := h.deps.Events.SubscribeLogged(id)
	defer unsubscribe()
	log = log.With("subscriber_id", subscriberID)
	log.Debug("api: event stream connected")
	defer log.Debug("api: event stream disconnected")

	for ev := range events {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
