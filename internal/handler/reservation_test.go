package handler

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/avereno/venue-reservation/internal/middleware"
    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/pricing"
    "github.com/avereno/venue-reservation/internal/repository"
    "github.com/avereno/venue-reservation/internal/service"
)

// --- Mock ReservationService ---

type mockReservationService struct {
    quoteFn   func(ctx context.Context, scopeKey string, resourceIDs []string, asOf time.Time) (pricing.Breakdown, error)
    reserveFn func(ctx context.Context, scopeKey string, resourceIDs []string, customerRef string) (*model.Booking, error)
    getFn     func(ctx context.Context, id string) (*model.Booking, error)
    listFn    func(ctx context.Context, customerRef string) ([]model.Booking, error)
}

func (m *mockReservationService) Quote(ctx context.Context, scopeKey string, resourceIDs []string, asOf time.Time) (pricing.Breakdown, error) {
    return m.quoteFn(ctx, scopeKey, resourceIDs, asOf)
}
func (m *mockReservationService) Reserve(ctx context.Context, scopeKey string, resourceIDs []string, customerRef string) (*model.Booking, error) {
    return m.reserveFn(ctx, scopeKey, resourceIDs, customerRef)
}
func (m *mockReservationService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
    return m.getFn(ctx, id)
}
func (m *mockReservationService) ListBookings(ctx context.Context, customerRef string) ([]model.Booking, error) {
    return m.listFn(ctx, customerRef)
}

// --- Mock CancellationService ---

type mockCancellationService struct {
    cancelFn func(ctx context.Context, bookingID, actor string, releaseResources bool) (*model.Booking, error)
}

func (m *mockCancellationService) Cancel(ctx context.Context, bookingID, actor string, releaseResources bool) (*model.Booking, error) {
    return m.cancelFn(ctx, bookingID, actor, releaseResources)
}

func newContext(t *testing.T, method, target, body, subject string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    var reader *strings.Reader
    if body == "" {
        reader = strings.NewReader("")
    } else {
        reader = strings.NewReader(body)
    }
    req := httptest.NewRequest(method, target, reader)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if subject != "" {
        c.Set(middleware.SubjectKey, subject)
    }
    return c, rec
}

func sampleBooking(customer string) *model.Booking {
    return &model.Booking{
        ID:          "b-1",
        ScopeKey:    "2026-07-01",
        ResourceIDs: []string{"A-R1-S1"},
        CustomerRef: customer,
        Price:       model.PriceSnapshot{BaseAmountCents: 2000, DiscountKind: model.DiscountNone, TotalAmountCents: 2000},
        Status:      model.BookingConfirmed,
        CreatedAt:   time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
    }
}

func TestReserveCreated(t *testing.T) {
    h := NewReservationHandler(&mockReservationService{
        reserveFn: func(_ context.Context, scopeKey string, ids []string, customerRef string) (*model.Booking, error) {
            assert.Equal(t, "2026-07-01", scopeKey)
            assert.Equal(t, []string{"A-R1-S1"}, ids)
            assert.Equal(t, "cust-1", customerRef)
            return sampleBooking(customerRef), nil
        },
    }, &mockCancellationService{})

    c, rec := newContext(t, http.MethodPost, "/v1/reservations",
        `{"scope_key":"2026-07-01","resource_ids":["A-R1-S1"]}`, "cust-1")
    require.NoError(t, h.Reserve(c))
    assert.Equal(t, http.StatusCreated, rec.Code)

    var resp struct {
        Booking model.Booking `json:"booking"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "b-1", resp.Booking.ID)
    assert.Equal(t, int64(2000), resp.Booking.Price.TotalAmountCents)
}

func TestReserveConflictListsIDs(t *testing.T) {
    h := NewReservationHandler(&mockReservationService{
        reserveFn: func(context.Context, string, []string, string) (*model.Booking, error) {
            return nil, &repository.UnavailableError{IDs: []string{"A-R1-S1", "S3"}}
        },
    }, &mockCancellationService{})

    c, rec := newContext(t, http.MethodPost, "/v1/reservations",
        `{"scope_key":"2026-07-01","resource_ids":["A-R1-S1","S3"]}`, "cust-1")
    require.NoError(t, h.Reserve(c))
    assert.Equal(t, http.StatusConflict, rec.Code)

    var resp struct {
        Code           string   `json:"code"`
        UnavailableIDs []string `json:"unavailable_ids"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "resources_unavailable", resp.Code)
    assert.Equal(t, []string{"A-R1-S1", "S3"}, resp.UnavailableIDs)
}

func TestReserveValidationRejected(t *testing.T) {
    h := NewReservationHandler(&mockReservationService{
        reserveFn: func(context.Context, string, []string, string) (*model.Booking, error) {
            return nil, fmt.Errorf("%w: resource list must not be empty", service.ErrValidation)
        },
    }, &mockCancellationService{})

    c, rec := newContext(t, http.MethodPost, "/v1/reservations",
        `{"scope_key":"2026-07-01","resource_ids":[]}`, "cust-1")
    require.NoError(t, h.Reserve(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteRejectsBadAsOf(t *testing.T) {
    h := NewReservationHandler(&mockReservationService{}, &mockCancellationService{})

    c, rec := newContext(t, http.MethodPost, "/v1/quote",
        `{"scope_key":"2026-07-01","resource_ids":["A-R1-S1"],"as_of":"01/07/2026"}`, "")
    require.NoError(t, h.Quote(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteReturnsBreakdown(t *testing.T) {
    h := NewReservationHandler(&mockReservationService{
        quoteFn: func(_ context.Context, _ string, _ []string, asOf time.Time) (pricing.Breakdown, error) {
            assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), asOf)
            return pricing.Breakdown{
                Quantity:            1,
                BaseAmountCents:     2000,
                DiscountKind:        model.DiscountEarlyBird,
                DiscountPercent:     10,
                DiscountAmountCents: 200,
                TotalAmountCents:    1800,
            }, nil
        },
    }, &mockCancellationService{})

    c, rec := newContext(t, http.MethodPost, "/v1/quote",
        `{"scope_key":"2026-07-01","resource_ids":["A-R1-S1"],"as_of":"2026-06-01"}`, "")
    require.NoError(t, h.Quote(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var resp struct {
        Quote pricing.Breakdown `json:"quote"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, int64(1800), resp.Quote.TotalAmountCents)
    assert.Equal(t, model.DiscountEarlyBird, resp.Quote.DiscountKind)
}

func TestGetOtherCustomersBookingReadsAsNotFound(t *testing.T) {
    h := NewReservationHandler(&mockReservationService{
        getFn: func(context.Context, string) (*model.Booking, error) {
            return sampleBooking("someone-else"), nil
        },
    }, &mockCancellationService{})

    c, rec := newContext(t, http.MethodGet, "/v1/reservations/b-1", "", "cust-1")
    c.SetParamNames("id")
    c.SetParamValues("b-1")
    require.NoError(t, h.Get(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelLeadTimeViolation(t *testing.T) {
    h := NewReservationHandler(&mockReservationService{
        getFn: func(context.Context, string) (*model.Booking, error) {
            return sampleBooking("cust-1"), nil
        },
    }, &mockCancellationService{
        cancelFn: func(context.Context, string, string, bool) (*model.Booking, error) {
            return nil, fmt.Errorf("%w: event is 3 days away, minimum is 15", service.ErrLeadTimeViolation)
        },
    })

    c, rec := newContext(t, http.MethodDelete, "/v1/reservations/b-1", "", "cust-1")
    c.SetParamNames("id")
    c.SetParamValues("b-1")
    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusConflict, rec.Code)

    var resp struct {
        Code string `json:"code"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, "lead_time_violation", resp.Code)
}

func TestCustomerCancelAlwaysReleases(t *testing.T) {
    var gotRelease bool
    h := NewReservationHandler(&mockReservationService{
        getFn: func(context.Context, string) (*model.Booking, error) {
            return sampleBooking("cust-1"), nil
        },
    }, &mockCancellationService{
        cancelFn: func(_ context.Context, bookingID, actor string, release bool) (*model.Booking, error) {
            gotRelease = release
            b := sampleBooking("cust-1")
            b.Status = model.BookingCancelled
            return b, nil
        },
    })

    c, rec := newContext(t, http.MethodDelete, "/v1/reservations/b-1", "", "cust-1")
    c.SetParamNames("id")
    c.SetParamValues("b-1")
    require.NoError(t, h.Cancel(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, gotRelease)
}
