// Package queue defines the message payloads exchanged over the
// broker and the background consumers that process them.  Events only
// describe committed state: the notifier never originates writes, it
// observes and republishes what the inventory store already persisted.
package queue

// ResourceDelta is one resource's committed state change.
type ResourceDelta struct {
    ResourceID string `json:"resource_id"`
    Category   string `json:"category,omitempty"`
    Status     string `json:"status"`
}

// AvailabilityChangedEvent is published after any committed inventory
// mutation (claim, release, block, unblock, layout generation).  It is
// routed by scope key so observers can subscribe to a single event day
// or the stall scope.
type AvailabilityChangedEvent struct {
    ScopeKey   string          `json:"scope_key"`
    Deltas     []ResourceDelta `json:"deltas"`
    BookingID  string          `json:"booking_id,omitempty"`
    OccurredAt string          `json:"occurred_at"`
}

// BookingConfirmedEvent is published when a reservation commits.  It
// carries enough for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID        string   `json:"booking_id"`
    ScopeKey         string   `json:"scope_key"`
    CustomerRef      string   `json:"customer_ref"`
    ResourceIDs      []string `json:"resource_ids"`
    DiscountKind     string   `json:"discount_kind"`
    TotalAmountCents int64    `json:"total_amount_cents"`
    ConfirmedAt      string   `json:"confirmed_at"`
}
