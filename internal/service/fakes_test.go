package service

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/queue"
    "github.com/avereno/venue-reservation/internal/repository"
)

// fakeInventory is an in-memory inventory store.  Its claim holds one
// mutex across check and mutate, giving it the same atomicity contract
// as the SQL store so the concurrency properties of the services can
// be exercised without a database.
type fakeInventory struct {
    mu        sync.Mutex
    resources map[string]map[string]*model.Resource // scope -> id -> resource

    transientFails int // claims to fail with TransientError before succeeding
    releases       int
}

func newFakeInventory() *fakeInventory {
    return &fakeInventory{resources: make(map[string]map[string]*model.Resource)}
}

func (f *fakeInventory) add(scopeKey, id string, category model.ResourceCategory, price int64) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.resources[scopeKey] == nil {
        f.resources[scopeKey] = make(map[string]*model.Resource)
    }
    f.resources[scopeKey][id] = &model.Resource{
        ID: id, ScopeKey: scopeKey, Category: category,
        BasePriceCents: price, Status: model.ResourceAvailable,
    }
}

func (f *fakeInventory) get(scopeKey, id string) model.Resource {
    f.mu.Lock()
    defer f.mu.Unlock()
    return *f.resources[scopeKey][id]
}

func (f *fakeInventory) CreateBulk(_ context.Context, resources []model.Resource) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i := range resources {
        r := resources[i]
        if f.resources[r.ScopeKey] == nil {
            f.resources[r.ScopeKey] = make(map[string]*model.Resource)
        }
        if _, exists := f.resources[r.ScopeKey][r.ID]; exists {
            return errors.New("duplicate resource")
        }
        f.resources[r.ScopeKey][r.ID] = &r
    }
    return nil
}

func (f *fakeInventory) CheckAvailability(_ context.Context, scopeKey string, ids []string) (map[string]model.ResourceStatus, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make(map[string]model.ResourceStatus)
    for _, id := range ids {
        if r, ok := f.resources[scopeKey][id]; ok {
            out[id] = r.Status
        }
    }
    return out, nil
}

func (f *fakeInventory) ListByScope(_ context.Context, scopeKey string) ([]model.Resource, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make([]model.Resource, 0, len(f.resources[scopeKey]))
    for _, r := range f.resources[scopeKey] {
        out = append(out, *r)
    }
    return out, nil
}

func (f *fakeInventory) BasePrices(_ context.Context, scopeKey string, ids []string) (map[string]int64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make(map[string]int64, len(ids))
    for _, id := range ids {
        r, ok := f.resources[scopeKey][id]
        if !ok {
            return nil, repository.ErrResourceNotFound
        }
        out[id] = r.BasePriceCents
    }
    return out, nil
}

func (f *fakeInventory) Claim(_ context.Context, scopeKey string, ids []string, bookingID string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.transientFails > 0 {
        f.transientFails--
        return &repository.TransientError{Err: errors.New("deadlock")}
    }
    var unavailable []string
    for _, id := range ids {
        r, ok := f.resources[scopeKey][id]
        if !ok {
            return repository.ErrResourceNotFound
        }
        if r.Status != model.ResourceAvailable {
            unavailable = append(unavailable, id)
        }
    }
    if len(unavailable) > 0 {
        return &repository.UnavailableError{IDs: unavailable}
    }
    for _, id := range ids {
        r := f.resources[scopeKey][id]
        r.Status = model.ResourceBooked
        owner := bookingID
        r.OwnerBookingID = &owner
    }
    return nil
}

func (f *fakeInventory) Release(_ context.Context, scopeKey string, ids []string, bookingID string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.releases++
    for _, id := range ids {
        r, ok := f.resources[scopeKey][id]
        if !ok {
            continue
        }
        if r.OwnerBookingID != nil && *r.OwnerBookingID == bookingID {
            r.Status = model.ResourceAvailable
            r.OwnerBookingID = nil
        }
    }
    return nil
}

func (f *fakeInventory) Block(_ context.Context, scopeKey string, ids []string, reason string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, id := range ids {
        r, ok := f.resources[scopeKey][id]
        if !ok {
            return repository.ErrResourceNotFound
        }
        if r.Status != model.ResourceAvailable {
            return &repository.UnavailableError{IDs: []string{id}}
        }
    }
    for _, id := range ids {
        r := f.resources[scopeKey][id]
        r.Status = model.ResourceBlocked
        reasonCopy := reason
        r.BlockReason = &reasonCopy
    }
    return nil
}

func (f *fakeInventory) Unblock(_ context.Context, scopeKey string, ids []string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, id := range ids {
        r, ok := f.resources[scopeKey][id]
        if !ok {
            return repository.ErrResourceNotFound
        }
        if r.Status != model.ResourceBlocked {
            return &repository.UnavailableError{IDs: []string{id}}
        }
    }
    for _, id := range ids {
        r := f.resources[scopeKey][id]
        r.Status = model.ResourceAvailable
        r.BlockReason = nil
    }
    return nil
}

// fakeBookings stores bookings in memory.  Cancel mirrors the SQL
// store's contract: the status flip and the resource release happen
// under one lock acquisition, and changed is false when the booking
// was already cancelled.
type fakeBookings struct {
    mu        sync.Mutex
    byID      map[string]*model.Booking
    inventory *fakeInventory

    createErr error
}

func newFakeBookings(inv *fakeInventory) *fakeBookings {
    return &fakeBookings{byID: make(map[string]*model.Booking), inventory: inv}
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.createErr != nil {
        return f.createErr
    }
    stored := *b
    f.byID[b.ID] = &stored
    return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    b, ok := f.byID[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    copied := *b
    return &copied, nil
}

func (f *fakeBookings) ListByCustomer(_ context.Context, customerRef string) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make([]model.Booking, 0)
    for _, b := range f.byID {
        if b.CustomerRef == customerRef {
            out = append(out, *b)
        }
    }
    return out, nil
}

func (f *fakeBookings) Cancel(ctx context.Context, b *model.Booking, at time.Time, by string, release bool) (bool, error) {
    f.mu.Lock()
    stored, ok := f.byID[b.ID]
    if !ok {
        f.mu.Unlock()
        return false, repository.ErrBookingNotFound
    }
    if stored.Status == model.BookingCancelled {
        f.mu.Unlock()
        return false, nil
    }
    stored.Status = model.BookingCancelled
    t := at
    stored.CancelledAt = &t
    actor := by
    stored.CancelledBy = &actor
    f.mu.Unlock()

    if release {
        return true, f.inventory.Release(ctx, b.ScopeKey, b.ResourceIDs, b.ID)
    }
    return true, nil
}

// fakeSettings returns a fixed discount configuration.
type fakeSettings struct {
    cfg model.DiscountConfig
    err error
}

func (f *fakeSettings) DiscountConfig(context.Context) (model.DiscountConfig, error) {
    return f.cfg, f.err
}

// fakePublisher records published events.
type fakePublisher struct {
    mu           sync.Mutex
    availability []queue.AvailabilityChangedEvent
    confirmed    []queue.BookingConfirmedEvent
}

func (f *fakePublisher) PublishAvailabilityChanged(_ context.Context, ev queue.AvailabilityChangedEvent) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.availability = append(f.availability, ev)
    return nil
}

func (f *fakePublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.confirmed = append(f.confirmed, ev)
    return nil
}

func (f *fakePublisher) confirmedCount() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.confirmed)
}

func (f *fakePublisher) availabilityCount() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.availability)
}
