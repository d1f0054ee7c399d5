package middleware // middleware provides shared request processing for handlers

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys populated by BearerAuth for downstream handlers.
const (
    SubjectKey = "subject"
    RoleKey    = "role"
)

// BearerAuth validates an HS256 bearer token and injects its subject
// and role claims into the request context.  Tokens are issued by the
// identity collaborator; this service only verifies them.  Protected
// routes read the caller identity via Subject(c) and the role via
// c.Get(RoleKey).
func BearerAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                // Only HMAC tokens are accepted; an attacker must not be
                // able to downgrade to "none" or swap in an RSA key.
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            if sub, ok := claims["sub"].(string); ok {
                c.Set(SubjectKey, sub)
            }
            if role, ok := claims["role"].(string); ok {
                c.Set(RoleKey, role)
            }
            return next(c)
        }
    }
}
