package middleware

import "github.com/labstack/echo/v4"

// Subject returns the authenticated caller identity, or "anon" on
// unauthenticated routes.  The rate limiter uses it to keep separate
// buckets per caller; handlers use it as the customer reference.
func Subject(c echo.Context) string {
    if s, ok := c.Get(SubjectKey).(string); ok && s != "" {
        return s
    }
    return "anon"
}
