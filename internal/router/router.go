package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/cinema-seat-booking/internal/handler"    // booking and health handlers
	"github.com/iliyamo/cinema-seat-booking/internal/middleware" // JWT identity and rate limiting
)

// RegisterRoutes registers routes that do not require authentication.
// /healthz pings the store so load balancers can take an instance out of
// rotation when the database is unreachable.  Seat availability and
// showtime details are public so guests can browse before logging in.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, h *handler.BookingHandler) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/v1/showtimes/:id", h.GetShowtime)
	e.GET("/v1/showtimes/:id/seats", h.GetAvailability)
}

// RegisterBooking registers the endpoints that act on behalf of a user.
// Every route requires a valid access token.  Seat locking and reservation
// creation additionally pass through the limiter, since those are the two
// calls that take row locks.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/showtimes/:id/lock-seats", h.LockSeats, limiter)
	g.POST("/reservations", h.CreateReservation, limiter)
	g.GET("/reservations", h.ListReservations)
	g.GET("/reservations/:id", h.GetReservation)
	g.DELETE("/reservations/:id", h.CancelReservation)
}
