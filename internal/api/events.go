package api

import (
	"sync"

	"github.com/google/uuid"
)

// EventHub fans out CacheEvent notifications to WebSocket subscribers,
// one topic per query id. cmd/ecscached publishes into it as it observes
// table-create/table-delete/rematch activity on each cache; this
// package never touches cache internals to produce these notifications
// itself (spec.md §5's read-only API boundary).
type EventHub struct {
	mu   sync.Mutex
	subs map[string]map[chan CacheEvent]struct{}
}

// NewEventHub builds an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[string]map[chan CacheEvent]struct{})}
}

// Publish delivers ev to every subscriber of queryID. Slow subscribers
// are dropped rather than blocking the publisher.
func (h *EventHub) Publish(queryID string, ev CacheEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[queryID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new listener for queryID and returns its
// channel plus an unsubscribe function.
func (h *EventHub) Subscribe(queryID string) (<-chan CacheEvent, func()) {
	ch := make(chan CacheEvent, 32)
	h.mu.Lock()
	if h.subs[queryID] == nil {
		h.subs[queryID] = make(map[chan CacheEvent]struct{})
	}
	h.subs[queryID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs[queryID], ch)
		h.mu.Unlock()
		close(ch)
	}
}

// SubscribeLogged is Subscribe plus a generated subscriber id for the
// caller to attach to its own log lines (e.g. the WebSocket handler
// logging connect/disconnect).
func (h *EventHub) SubscribeLogged(queryID string) (string, <-chan CacheEvent, func()) {
	ch, unsubscribe := h.Subscribe(queryID)
	return uuid.New().String(), ch, unsubscribe
}
