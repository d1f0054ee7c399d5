package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/avereno/venue-reservation/internal/config"
    "github.com/avereno/venue-reservation/internal/handler"
    "github.com/avereno/venue-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance.  Currently it exposes only a health
// check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated availability surface.
// Snapshot and status reads sit behind the short-TTL Redis response
// cache; the SSE stream must never be cached, so it is registered
// without the middleware.
func RegisterPublic(e *echo.Echo, a *handler.AvailabilityHandler, r *handler.ReservationHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
    cached := e.Group("/v1/scopes", middleware.ResponseCache(cacheCfg, rdb))
    cached.GET("/:scope/resources", a.ListResources)
    cached.GET("/:scope/resources/status", a.Status)

    e.GET("/v1/scopes/:scope/stream", a.Stream)

    // Quoting has no side effects and needs no identity.
    e.POST("/v1/quote", r.Quote)
}

// RegisterCustomer registers the authenticated customer surface.  The
// rate limiter wraps the group so one caller cannot starve others
// during an on-sale spike.
func RegisterCustomer(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
    g := e.Group("/v1")
    g.Use(middleware.BearerAuth(jwtSecret))
    g.Use(middleware.RateLimit(rlCfg, rdb))

    g.POST("/reservations", r.Reserve)
    g.GET("/reservations/:id", r.Get)
    g.DELETE("/reservations/:id", r.Cancel)
    g.GET("/my-reservations", r.ListMine)
}

// RegisterAdmin registers the operator surface.  Every route requires
// a bearer token carrying the admin role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.BearerAuth(jwtSecret))
    g.Use(middleware.RequireRole("admin"))

    g.POST("/scopes/:scope/layout", h.GenerateLayout)
    g.POST("/scopes/:scope/block", h.Block)
    g.POST("/scopes/:scope/unblock", h.Unblock)
    g.DELETE("/reservations/:id", h.CancelBooking)
    g.PUT("/settings/discounts", h.ReplaceDiscounts)
}
