package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/avereno/venue-reservation/internal/middleware"
    "github.com/avereno/venue-reservation/internal/service"
)

// ReservationHandler serves quoting, reserving and customer-initiated
// cancellation.  All methods except Quote assume BearerAuth ran and
// the caller identity is in context; the authenticated subject is used
// as the customer reference so a caller can only ever act on their own
// bookings.
type ReservationHandler struct {
    Reservations  service.ReservationService
    Cancellations service.CancellationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations service.ReservationService, cancellations service.CancellationService) *ReservationHandler {
    if reservations == nil || cancellations == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{Reservations: reservations, Cancellations: cancellations}
}

// Quote handles POST /v1/quote.  It prices a prospective reservation
// without holding anything.  The optional as_of date (YYYY-MM-DD)
// lets clients preview what a booking made on a future day would
// cost; it defaults to now.
func (h *ReservationHandler) Quote(c echo.Context) error {
    var body struct {
        ScopeKey    string   `json:"scope_key"`
        ResourceIDs []string `json:"resource_ids"`
        AsOf        string   `json:"as_of"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    var asOf time.Time
    if body.AsOf != "" {
        parsed, err := time.Parse("2006-01-02", body.AsOf)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "as_of must be YYYY-MM-DD"})
        }
        asOf = parsed.UTC()
    }

    breakdown, err := h.Reservations.Quote(c.Request().Context(), body.ScopeKey, body.ResourceIDs, asOf)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "scope_key": body.ScopeKey,
        "quote":     breakdown,
    })
}

// Reserve handles POST /v1/reservations.  On success the response
// carries the booking with its frozen price snapshot.  When any
// requested resource is taken the response is 409 with the conflicting
// ids.
func (h *ReservationHandler) Reserve(c echo.Context) error {
    var body struct {
        ScopeKey    string   `json:"scope_key"`
        ResourceIDs []string `json:"resource_ids"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    booking, err := h.Reservations.Reserve(c.Request().Context(), body.ScopeKey, body.ResourceIDs, middleware.Subject(c))
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

// Get handles GET /v1/reservations/:id.  Bookings belonging to other
// customers read as not found rather than forbidden, so booking ids
// cannot be probed for existence.
func (h *ReservationHandler) Get(c echo.Context) error {
    booking, err := h.Reservations.GetBooking(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeServiceError(c, err)
    }
    if booking.CustomerRef != middleware.Subject(c) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
    bookings, err := h.Reservations.ListBookings(c.Request().Context(), middleware.Subject(c))
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Cancel handles DELETE /v1/reservations/:id.  Customer cancellation
// always releases the resources and is gated by the lead-time policy.
// Cancelling an already-cancelled booking succeeds.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    subject := middleware.Subject(c)

    booking, err := h.Reservations.GetBooking(c.Request().Context(), c.Param("id"))
    if err != nil {
        return writeServiceError(c, err)
    }
    if booking.CustomerRef != subject {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    }

    cancelled, err := h.Cancellations.Cancel(c.Request().Context(), booking.ID, subject, true)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": cancelled})
}
