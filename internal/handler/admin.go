package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/avereno/venue-reservation/internal/layout"
    "github.com/avereno/venue-reservation/internal/middleware"
    "github.com/avereno/venue-reservation/internal/model"
    "github.com/avereno/venue-reservation/internal/repository"
    "github.com/avereno/venue-reservation/internal/service"
)

// AdminHandler groups the operator-only surface: layout generation,
// blocking, forced cancellation and discount configuration.  Routes
// using it must be wrapped in RequireRole("admin").
type AdminHandler struct {
    Inventory     service.InventoryService
    Cancellations service.CancellationService
    Settings      *repository.SettingsRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(inventory service.InventoryService, cancellations service.CancellationService, settings *repository.SettingsRepo) *AdminHandler {
    if inventory == nil || cancellations == nil || settings == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{Inventory: inventory, Cancellations: cancellations, Settings: settings}
}

// GenerateLayout handles POST /v1/admin/scopes/:scope/layout.  The
// body describes seating sections and stalls; the whole resource set
// for the scope is generated in one shot.
func (h *AdminHandler) GenerateLayout(c echo.Context) error {
    scope := c.Param("scope")
    var spec layout.Spec
    if err := c.Bind(&spec); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    resources, err := h.Inventory.GenerateLayout(c.Request().Context(), scope, spec)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "scope_key": scope,
        "created":   len(resources),
        "resources": resources,
    })
}

// Block handles POST /v1/admin/scopes/:scope/block.  Only available
// resources can be blocked; booked ones are reported back as
// conflicts.
func (h *AdminHandler) Block(c echo.Context) error {
    scope := c.Param("scope")
    var body struct {
        ResourceIDs []string `json:"resource_ids"`
        Reason      string   `json:"reason"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    if err := h.Inventory.Block(c.Request().Context(), scope, body.ResourceIDs, strings.TrimSpace(body.Reason)); err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"blocked": body.ResourceIDs})
}

// Unblock handles POST /v1/admin/scopes/:scope/unblock.
func (h *AdminHandler) Unblock(c echo.Context) error {
    scope := c.Param("scope")
    var body struct {
        ResourceIDs []string `json:"resource_ids"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    if err := h.Inventory.Unblock(c.Request().Context(), scope, body.ResourceIDs); err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"unblocked": body.ResourceIDs})
}

// CancelBooking handles DELETE /v1/admin/reservations/:id.  Unlike
// customer cancellation it may target any booking, and ?release=false
// keeps the resources pinned to the cancelled booking (a soft hold for
// dispute handling).  The lead-time policy still applies.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
    release := c.QueryParam("release") != "false"

    booking, err := h.Cancellations.Cancel(c.Request().Context(), c.Param("id"), middleware.Subject(c), release)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// ReplaceDiscounts handles PUT /v1/admin/settings/discounts.  The new
// document replaces the old one wholesale and takes effect on the next
// quote; existing bookings keep their frozen snapshots.
func (h *AdminHandler) ReplaceDiscounts(c echo.Context) error {
    var cfg model.DiscountConfig
    if err := c.Bind(&cfg); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    for _, r := range cfg.EarlyBirdRules {
        if r.DaysBeforeEvent < 0 || r.Percent < 0 || r.Percent > 100 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid early bird rule"})
        }
    }
    for _, r := range cfg.BulkRules {
        if r.MinQuantity < 1 || r.Percent < 0 || r.Percent > 100 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bulk rule"})
        }
    }
    if cfg.TaxRatePercent < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tax rate"})
    }

    if err := h.Settings.ReplaceDiscounts(c.Request().Context(), cfg); err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"settings": cfg})
}
