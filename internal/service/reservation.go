package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/pricing"
    "github.com/avereno/venue-reservation/internal/queue"
    "github.com/avereno/venue-reservation/internal/repository"
    "github.com/avereno/venue-reservation/internal/service/ports"
)

// claimAttempts bounds internal retries of transient store failures.
// Conflicts are never retried: a resource someone else just booked
// will not become free within the request window, so the conflicting
// ids are surfaced for the caller to reselect.
const claimAttempts = 3

// ReservationService exposes quoting and reserving.
type ReservationService interface {
    Quote(ctx context.Context, scopeKey string, resourceIDs []string, asOf time.Time) (pricing.Breakdown, error)
    Reserve(ctx context.Context, scopeKey string, resourceIDs []string, customerRef string) (*model.Booking, error)
    GetBooking(ctx context.Context, id string) (*model.Booking, error)
    ListBookings(ctx context.Context, customerRef string) ([]model.Booking, error)
}

type reservationService struct {
    inventory ports.InventoryStore
    bookings  ports.BookingStore
    settings  ports.SettingsSource
    publisher ports.EventPublisher
    calendar  ScopeCalendar

    now       func() time.Time
    retryBase time.Duration
}

// NewReservationService wires the reservation engine.
func NewReservationService(
    inventory ports.InventoryStore,
    bookings ports.BookingStore,
    settings ports.SettingsSource,
    publisher ports.EventPublisher,
    calendar ScopeCalendar,
) ReservationService {
    return &reservationService{
        inventory: inventory,
        bookings:  bookings,
        settings:  settings,
        publisher: publisher,
        calendar:  calendar,
        now:       time.Now,
        retryBase: 50 * time.Millisecond,
    }
}

// normalizeIDs validates and deduplicates a requested resource set.
func normalizeIDs(ids []string) ([]string, error) {
    if len(ids) == 0 {
        return nil, fmt.Errorf("%w: resource list must not be empty", ErrValidation)
    }
    unique := make([]string, 0, len(ids))
    seen := make(map[string]struct{}, len(ids))
    for _, id := range ids {
        if id == "" {
            return nil, fmt.Errorf("%w: empty resource id", ErrValidation)
        }
        if _, dup := seen[id]; dup {
            continue
        }
        seen[id] = struct{}{}
        unique = append(unique, id)
    }
    return unique, nil
}

// discountConfig reads the current rule document.  An unprovisioned
// document means no discounts, not a failed quote.
func (s *reservationService) discountConfig(ctx context.Context) (model.DiscountConfig, error) {
    cfg, err := s.settings.DiscountConfig(ctx)
    if errors.Is(err, repository.ErrSettingsNotFound) {
        return model.DiscountConfig{}, nil
    }
    return cfg, err
}

// Quote prices a prospective reservation as of the given date without
// any side effects.  It reads the current discount configuration, so
// consecutive quotes may differ if the settings collaborator changes
// the rules in between — the breakdown only freezes once Reserve
// commits it onto a booking.
func (s *reservationService) Quote(ctx context.Context, scopeKey string, resourceIDs []string, asOf time.Time) (pricing.Breakdown, error) {
    ids, err := normalizeIDs(resourceIDs)
    if err != nil {
        return pricing.Breakdown{}, err
    }
    eventDate, err := s.calendar.EventDateFor(scopeKey)
    if err != nil {
        return pricing.Breakdown{}, err
    }
    priceByID, err := s.inventory.BasePrices(ctx, scopeKey, ids)
    if err != nil {
        return pricing.Breakdown{}, err
    }
    cfg, err := s.discountConfig(ctx)
    if err != nil {
        return pricing.Breakdown{}, err
    }
    prices := make([]int64, 0, len(ids))
    for _, id := range ids {
        prices = append(prices, priceByID[id])
    }
    if asOf.IsZero() {
        asOf = s.now()
    }
    return pricing.ComputeBreakdown(prices, asOf, eventDate, cfg), nil
}

// Reserve performs the all-or-nothing reservation of a resource set:
// quote with the current discount configuration, claim, persist the
// booking with the frozen price snapshot, publish.  Claims that lose a
// race report the conflicting ids via repository.UnavailableError; the
// caller decides whether to reselect.  If persisting the booking fails
// after a successful claim, the claim is compensated by releasing the
// resources before the error propagates.
func (s *reservationService) Reserve(ctx context.Context, scopeKey string, resourceIDs []string, customerRef string) (*model.Booking, error) {
    if customerRef == "" {
        return nil, fmt.Errorf("%w: customer reference required", ErrValidation)
    }
    ids, err := normalizeIDs(resourceIDs)
    if err != nil {
        return nil, err
    }

    now := s.now().UTC()
    breakdown, err := s.Quote(ctx, scopeKey, ids, now)
    if err != nil {
        return nil, err
    }

    booking := &model.Booking{
        ID:          uuid.NewString(),
        ScopeKey:    scopeKey,
        ResourceIDs: ids,
        CustomerRef: customerRef,
        Price:       breakdown.Snapshot(),
        Status:      model.BookingConfirmed,
        CreatedAt:   now,
    }

    if err := s.withRetry(ctx, func() error {
        return s.inventory.Claim(ctx, scopeKey, ids, booking.ID)
    }); err != nil {
        return nil, err
    }

    if err := s.bookings.Create(ctx, booking); err != nil {
        // The claim already committed; compensate so no resource stays
        // pinned to a booking record that was never persisted.
        if relErr := s.inventory.Release(ctx, scopeKey, ids, booking.ID); relErr != nil {
            log.Printf("reservation: compensating release failed for booking %s: %v", booking.ID, relErr)
        }
        return nil, err
    }

    go s.publishConfirmed(context.WithoutCancel(ctx), booking)
    return booking, nil
}

func (s *reservationService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
    if id == "" {
        return nil, fmt.Errorf("%w: booking id required", ErrValidation)
    }
    return s.bookings.GetByID(ctx, id)
}

func (s *reservationService) ListBookings(ctx context.Context, customerRef string) ([]model.Booking, error) {
    if customerRef == "" {
        return nil, fmt.Errorf("%w: customer reference required", ErrValidation)
    }
    return s.bookings.ListByCustomer(ctx, customerRef)
}

// withRetry retries fn only for transient store errors, with
// exponential backoff.  Every other error — conflicts included —
// propagates immediately.
func (s *reservationService) withRetry(ctx context.Context, fn func() error) error {
    backoff := s.retryBase
    var err error
    for attempt := 1; ; attempt++ {
        err = fn()
        var transient *repository.TransientError
        if err == nil || !errors.As(err, &transient) || attempt == claimAttempts {
            return err
        }
        select {
        case <-time.After(backoff):
        case <-ctx.Done():
            return ctx.Err()
        }
        backoff *= 2
    }
}

func (s *reservationService) publishConfirmed(ctx context.Context, b *model.Booking) {
    occurred := b.CreatedAt.Format(time.RFC3339)

    deltas := make([]queue.ResourceDelta, 0, len(b.ResourceIDs))
    for _, id := range b.ResourceIDs {
        deltas = append(deltas, queue.ResourceDelta{ResourceID: id, Status: string(model.ResourceBooked)})
    }
    _ = s.publisher.PublishAvailabilityChanged(ctx, queue.AvailabilityChangedEvent{
        ScopeKey:   b.ScopeKey,
        Deltas:     deltas,
        BookingID:  b.ID,
        OccurredAt: occurred,
    })
    _ = s.publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
        BookingID:        b.ID,
        ScopeKey:         b.ScopeKey,
        CustomerRef:      b.CustomerRef,
        ResourceIDs:      b.ResourceIDs,
        DiscountKind:     string(b.Price.DiscountKind),
        TotalAmountCents: b.Price.TotalAmountCents,
        ConfirmedAt:      occurred,
    })
}
