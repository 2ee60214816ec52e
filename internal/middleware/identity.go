package middleware

// identity.go holds helpers shared across middleware files. The rate
// limiter keys buckets per staff member, so it needs the authenticated
// identity that JWTAuth stored in the Echo context. When no token is
// present "anon" is returned and the limiter falls back to IP keying.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// currentUserID extracts the staff identifier stored by JWTAuth. JWT
// numeric claims decode as float64, so both string and numeric subjects
// are accepted.
func currentUserID(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "anon"
    }
    switch t := v.(type) {
    case string:
        if t != "" {
            return t
        }
    case float64:
        return fmt.Sprintf("%.0f", t)
    case int64:
        return fmt.Sprintf("%d", t)
    }
    return "anon"
}
