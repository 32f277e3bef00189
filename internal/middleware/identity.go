package middleware

// identity.go holds the helpers that move the authenticated user id between
// the JWT middleware, the rate limiter and the handlers.

import (
    "math"
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserIDKey is the echo.Context key under which JWTAuth stores the caller's id.
const UserIDKey = "user_id"

// UserID returns the authenticated user id stored by JWTAuth.  The boolean
// is false when the route is not protected or the id is missing.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(UserIDKey).(uint64)
    if !ok || id == 0 {
        return 0, false
    }
    return id, true
}

// parseUserID converts a "sub" claim into a user id.  Tokens carry it as a
// decimal string but numeric claims are accepted as well.
func parseUserID(v interface{}) (uint64, bool) {
    switch t := v.(type) {
    case string:
        n, err := strconv.ParseUint(t, 10, 64)
        if err != nil || n == 0 {
            return 0, false
        }
        return n, true
    case float64:
        if t < 1 || t >= 1<<64 || t != math.Trunc(t) {
            return 0, false
        }
        return uint64(t), true
    }
    return 0, false
}
