// Package ports declares the narrow interfaces the services depend
// on.  The SQL repositories satisfy them in production; tests swap in
// in-memory fakes.
package ports

import (
    "context"
    "time"

    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/queue"
)

// InventoryStore is the single source of truth for resource state.
// Claim and the administrative transitions are atomic all-or-nothing
// operations; CheckAvailability and the other reads never block on
// write contention.
type InventoryStore interface {
    CreateBulk(ctx context.Context, resources []model.Resource) error
    CheckAvailability(ctx context.Context, scopeKey string, ids []string) (map[string]model.ResourceStatus, error)
    ListByScope(ctx context.Context, scopeKey string) ([]model.Resource, error)
    BasePrices(ctx context.Context, scopeKey string, ids []string) (map[string]int64, error)
    Claim(ctx context.Context, scopeKey string, ids []string, bookingID string) error
    Release(ctx context.Context, scopeKey string, ids []string, bookingID string) error
    Block(ctx context.Context, scopeKey string, ids []string, reason string) error
    Unblock(ctx context.Context, scopeKey string, ids []string) error
}

// BookingStore persists booking records.  Cancel performs the status
// flip and (unless suppressed) the resource release as one atomic
// unit, reporting whether this call performed the transition.
type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByID(ctx context.Context, id string) (*model.Booking, error)
    ListByCustomer(ctx context.Context, customerRef string) ([]model.Booking, error)
    Cancel(ctx context.Context, b *model.Booking, at time.Time, by string, release bool) (changed bool, err error)
}

// SettingsSource supplies the current discount configuration owned by
// the external settings collaborator.  It is read fresh at quote time;
// the pricing engine itself never touches configuration storage.
type SettingsSource interface {
    DiscountConfig(ctx context.Context) (model.DiscountConfig, error)
}

// EventPublisher pushes committed state changes to the broker.  Calls
// are best-effort: a publish failure never fails the write that
// already committed.
type EventPublisher interface {
    PublishAvailabilityChanged(ctx context.Context, event queue.AvailabilityChangedEvent) error
    PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}
