// Package notifier fans committed availability deltas out to
// in-process subscribers scoped by scope key.  It is purely an
// observer: events originate from the inventory store's committed
// writes (locally, or on another instance via the broker consumer) and
// the hub never writes back, so subscribers always see a consistent —
// if slightly delayed — view of inventory.
package notifier

import (
    "sync"

    "github.com/avereno/venue-reservation/internal/queue"
)

// subscriberBuffer bounds each subscriber channel.  A subscriber that
// stops draining loses events rather than blocking the hub; stream
// consumers are expected to re-read the snapshot endpoint after any
// gap.
const subscriberBuffer = 16

// Hub is a per-scope availability broadcaster.  The zero value is not
// usable; construct with NewHub.
type Hub struct {
    mu     sync.RWMutex
    nextID int
    subs   map[string]map[int]chan queue.AvailabilityChangedEvent
}

// NewHub returns an empty hub.
func NewHub() *Hub {
    return &Hub{subs: make(map[string]map[int]chan queue.AvailabilityChangedEvent)}
}

// Subscribe registers an observer for one scope and returns the event
// stream plus a cancel function.  Cancel is idempotent and closes the
// stream; callers must stop reading after cancelling.
func (h *Hub) Subscribe(scopeKey string) (<-chan queue.AvailabilityChangedEvent, func()) {
    ch := make(chan queue.AvailabilityChangedEvent, subscriberBuffer)

    h.mu.Lock()
    id := h.nextID
    h.nextID++
    if h.subs[scopeKey] == nil {
        h.subs[scopeKey] = make(map[int]chan queue.AvailabilityChangedEvent)
    }
    h.subs[scopeKey][id] = ch
    h.mu.Unlock()

    var once sync.Once
    cancel := func() {
        once.Do(func() {
            h.mu.Lock()
            if m, ok := h.subs[scopeKey]; ok {
                delete(m, id)
                if len(m) == 0 {
                    delete(h.subs, scopeKey)
                }
            }
            h.mu.Unlock()
            close(ch)
        })
    }
    return ch, cancel
}

// Deliver forwards an event to every subscriber of its scope.  Slow
// subscribers are skipped, never waited on.  Deliver implements
// queue.AvailabilitySink so the broker consumer can feed the hub
// directly.
func (h *Hub) Deliver(event queue.AvailabilityChangedEvent) {
    h.mu.RLock()
    defer h.mu.RUnlock()
    for _, ch := range h.subs[event.ScopeKey] {
        select {
        case ch <- event:
        default:
        }
    }
}

// SubscriberCount reports the current number of subscribers for a
// scope.  Used by tests and the health surface.
func (h *Hub) SubscriberCount(scopeKey string) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.subs[scopeKey])
}
