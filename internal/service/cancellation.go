package service

import (
    "context"
    "fmt"
    "time"

    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/pricing"
    "github.com/avereno/venue-reservation/internal/queue"
    "github.com/avereno/venue-reservation/internal/service/ports"
)

// DefaultMinLeadTimeDays is the cancellation policy default: a booking
// may be cancelled up to and including 15 days before the event date.
const DefaultMinLeadTimeDays = 15

// CancellationService drives the confirmed -> cancelled transition.
type CancellationService interface {
    // Cancel transitions a booking to cancelled and, unless
    // releaseResources is false, returns its resources to the pool.
    // Cancelling an already-cancelled booking is an idempotent
    // success.  releaseResources=false is the administrative
    // soft-hold mode: the resources stay booked under the cancelled
    // booking, deliberately suspending the ownership invariant until
    // an explicit release — only administrative callers may use it.
    Cancel(ctx context.Context, bookingID, actor string, releaseResources bool) (*model.Booking, error)
}

type cancellationService struct {
    bookings    ports.BookingStore
    publisher   ports.EventPublisher
    calendar    ScopeCalendar
    minLeadDays int

    now func() time.Time
}

// NewCancellationService wires the cancellation workflow.  A
// non-positive minLeadDays falls back to the policy default.
func NewCancellationService(
    bookings ports.BookingStore,
    publisher ports.EventPublisher,
    calendar ScopeCalendar,
    minLeadDays int,
) CancellationService {
    if minLeadDays <= 0 {
        minLeadDays = DefaultMinLeadTimeDays
    }
    return &cancellationService{
        bookings:    bookings,
        publisher:   publisher,
        calendar:    calendar,
        minLeadDays: minLeadDays,
        now:         time.Now,
    }
}

func (s *cancellationService) Cancel(ctx context.Context, bookingID, actor string, releaseResources bool) (*model.Booking, error) {
    if bookingID == "" {
        return nil, fmt.Errorf("%w: booking id required", ErrValidation)
    }
    if actor == "" {
        return nil, fmt.Errorf("%w: actor required", ErrValidation)
    }

    booking, err := s.bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if booking.Status == model.BookingCancelled {
        // Idempotent: the transition already happened, resource state
        // is whatever the first cancellation left behind.
        return booking, nil
    }

    now := s.now().UTC()
    eventDate, err := s.calendar.EventDateFor(booking.ScopeKey)
    if err != nil {
        return nil, err
    }
    if pricing.DaysBetween(now, eventDate) < s.minLeadDays {
        return nil, fmt.Errorf("%w: event is %d days away, minimum is %d",
            ErrLeadTimeViolation, pricing.DaysBetween(now, eventDate), s.minLeadDays)
    }

    changed, err := s.bookings.Cancel(ctx, booking, now, actor, releaseResources)
    if err != nil {
        return nil, err
    }

    booking.Status = model.BookingCancelled
    booking.CancelledAt = &now
    booking.CancelledBy = &actor

    if changed && releaseResources {
        go s.publishReleased(context.WithoutCancel(ctx), booking, now)
    }
    return booking, nil
}

func (s *cancellationService) publishReleased(ctx context.Context, b *model.Booking, at time.Time) {
    deltas := make([]queue.ResourceDelta, 0, len(b.ResourceIDs))
    for _, id := range b.ResourceIDs {
        deltas = append(deltas, queue.ResourceDelta{ResourceID: id, Status: string(model.ResourceAvailable)})
    }
    _ = s.publisher.PublishAvailabilityChanged(ctx, queue.AvailabilityChangedEvent{
        ScopeKey:   b.ScopeKey,
        Deltas:     deltas,
        BookingID:  b.ID,
        OccurredAt: at.Format(time.RFC3339),
    })
}
