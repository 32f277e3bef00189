package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is implemented by the booking store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a health-check handler used by load balancers and
// monitoring systems.  It answers 200 {"status":"ok"} while the store
// responds to a ping and 503 {"status":"unhealthy"} otherwise.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.Logger().Warnf("healthz: %v", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
