package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/avereno/venue-reservation/internal/repository"
    "github.com/avereno/venue-reservation/internal/service"
)

// writeServiceError maps service and repository errors onto HTTP
// responses.  Conflicts carry the losing resource ids so clients can
// reselect without refetching the whole scope.
func writeServiceError(c echo.Context, err error) error {
    var unavailable *repository.UnavailableError
    var transient *repository.TransientError

    switch {
    case errors.Is(err, service.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrUnknownScope):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown scope"})
    case errors.Is(err, service.ErrLeadTimeViolation):
        return c.JSON(http.StatusConflict, echo.Map{
            "error": "cancellation window closed",
            "code":  "lead_time_violation",
        })
    case errors.As(err, &unavailable):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":           "resources unavailable",
            "code":            "resources_unavailable",
            "unavailable_ids": unavailable.IDs,
        })
    case errors.Is(err, repository.ErrResourceNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
    case errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.As(err, &transient):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, retry"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
