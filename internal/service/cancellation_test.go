package service

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/repository"
)

type cancellationFixture struct {
    *reservationFixture
    cancel *cancellationService
}

func newCancellationFixture(t *testing.T) *cancellationFixture {
    t.Helper()
    fx := newReservationFixture(t)
    svc := NewCancellationService(fx.bookings, fx.publisher, ScopeCalendar{}, DefaultMinLeadTimeDays).(*cancellationService)
    svc.now = func() time.Time { return testNow }
    return &cancellationFixture{reservationFixture: fx, cancel: svc}
}

func (fx *cancellationFixture) reserve(t *testing.T, ids ...string) *model.Booking {
    t.Helper()
    booking, err := fx.svc.Reserve(context.Background(), testScope, ids, "cust-1")
    require.NoError(t, err)
    return booking
}

func TestCancelReleasesResources(t *testing.T) {
    fx := newCancellationFixture(t)
    booking := fx.reserve(t, "A-R1-S1", "S1")

    cancelled, err := fx.cancel.Cancel(context.Background(), booking.ID, "cust-1", true)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, cancelled.Status)
    require.NotNil(t, cancelled.CancelledAt)
    require.NotNil(t, cancelled.CancelledBy)
    assert.Equal(t, "cust-1", *cancelled.CancelledBy)

    assert.Equal(t, model.ResourceAvailable, fx.inventory.get(testScope, "A-R1-S1").Status)
    assert.Equal(t, model.ResourceAvailable, fx.inventory.get(testScope, "S1").Status)

    stored, err := fx.bookings.GetByID(context.Background(), booking.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, stored.Status)

    // One publish from the reservation, one from the release.
    waitFor(t, func() bool { return fx.publisher.availabilityCount() == 2 })
}

func TestCancelLeadTimeBoundary(t *testing.T) {
    fx := newCancellationFixture(t)
    booking := fx.reserve(t, "A-R1-S1")

    // Event date is 2026-07-01.  Exactly 15 whole days out still
    // qualifies, even late in the day.
    fx.cancel.now = func() time.Time { return time.Date(2026, 6, 16, 23, 30, 0, 0, time.UTC) }
    _, err := fx.cancel.Cancel(context.Background(), booking.ID, "cust-1", true)
    require.NoError(t, err)

    // 14 days out is past the window.
    booking2 := fx.reserve(t, "B-R1-S1")
    fx.cancel.now = func() time.Time { return time.Date(2026, 6, 17, 0, 1, 0, 0, time.UTC) }
    _, err = fx.cancel.Cancel(context.Background(), booking2.ID, "cust-1", true)
    assert.ErrorIs(t, err, ErrLeadTimeViolation)

    // The rejected booking and its resources are untouched.
    stored, getErr := fx.bookings.GetByID(context.Background(), booking2.ID)
    require.NoError(t, getErr)
    assert.Equal(t, model.BookingConfirmed, stored.Status)
    assert.Equal(t, model.ResourceBooked, fx.inventory.get(testScope, "B-R1-S1").Status)
}

func TestCancelIsIdempotent(t *testing.T) {
    fx := newCancellationFixture(t)
    booking := fx.reserve(t, "A-R1-S1")

    _, err := fx.cancel.Cancel(context.Background(), booking.ID, "cust-1", true)
    require.NoError(t, err)
    releasesAfterFirst := fx.inventory.releases

    again, err := fx.cancel.Cancel(context.Background(), booking.ID, "cust-1", true)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, again.Status)
    assert.Equal(t, releasesAfterFirst, fx.inventory.releases)
}

func TestCancelSoftHoldKeepsResourcesBooked(t *testing.T) {
    fx := newCancellationFixture(t)
    booking := fx.reserve(t, "A-R1-S1", "A-R1-S2")
    waitFor(t, func() bool { return fx.publisher.availabilityCount() == 1 })

    cancelled, err := fx.cancel.Cancel(context.Background(), booking.ID, "admin-7", false)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, cancelled.Status)

    // Soft hold: the cancelled booking keeps its resources pinned and
    // no availability change is announced.
    r := fx.inventory.get(testScope, "A-R1-S1")
    assert.Equal(t, model.ResourceBooked, r.Status)
    require.NotNil(t, r.OwnerBookingID)
    assert.Equal(t, booking.ID, *r.OwnerBookingID)
    assert.Equal(t, 1, fx.publisher.availabilityCount())
}

func TestCancelUnknownBooking(t *testing.T) {
    fx := newCancellationFixture(t)
    _, err := fx.cancel.Cancel(context.Background(), "missing", "cust-1", true)
    assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestCancelValidation(t *testing.T) {
    fx := newCancellationFixture(t)
    _, err := fx.cancel.Cancel(context.Background(), "", "cust-1", true)
    assert.ErrorIs(t, err, ErrValidation)

    _, err = fx.cancel.Cancel(context.Background(), "id", "", true)
    assert.ErrorIs(t, err, ErrValidation)
}
