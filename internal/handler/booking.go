package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/middleware"
	"github.com/iliyamo/cinema-seat-booking/internal/service"
)

// BookingHandler exposes seat availability, seat locking and reservations
// over HTTP.  Protected methods expect JWTAuth to have run; the caller's
// identity never comes from the request body.
type BookingHandler struct {
	svc *service.Service
}

// NewBookingHandler constructs a BookingHandler and panics if svc is nil.
func NewBookingHandler(svc *service.Service) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc}
}

// GetShowtime handles GET /v1/showtimes/:id.
func (h *BookingHandler) GetShowtime(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	st, err := h.svc.GetShowtime(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newShowtimeResponse(*st))
}

// GetAvailability handles GET /v1/showtimes/:id/seats.  Every seat of the
// showtime's theater is listed with its availability and lock flags.
func (h *BookingHandler) GetAvailability(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	a, err := h.svc.GetAvailability(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// LockSeats handles POST /v1/showtimes/:id/lock-seats with a JSON body
// {"seat_ids": [...]}.  On success it returns the held seat ids and the
// shared expiry.  Seats booked or held by someone else yield 409 with the
// offending ids in details.seat_ids.
func (h *BookingHandler) LockSeats(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	showtimeID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid showtime id")
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.svc.LockSeats(c.Request().Context(), userID, showtimeID, body.SeatIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// CreateReservation handles POST /v1/reservations with a JSON body
// {"showtime_id": N, "seat_ids": [...]}.  The caller must currently hold
// every requested seat.  Returns 201 with the confirmed reservation.
func (h *BookingHandler) CreateReservation(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	var body struct {
		ShowtimeID uint64   `json:"showtime_id"`
		SeatIDs    []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.ShowtimeID == 0 {
		return badRequest(c, "showtime_id is required")
	}
	v, err := h.svc.CreateReservation(c.Request().Context(), userID, body.ShowtimeID, body.SeatIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newReservationResponse(*v))
}

// ListReservations handles GET /v1/reservations.  Reservations for
// showtimes that already started are omitted unless include_past=true.
func (h *BookingHandler) ListReservations(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	includePast := false
	if q := c.QueryParam("include_past"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			return badRequest(c, "include_past must be a boolean")
		}
		includePast = b
	}
	views, err := h.svc.ListReservations(c.Request().Context(), userID, includePast)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]reservationResponse, 0, len(views))
	for _, v := range views {
		items = append(items, newReservationResponse(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetReservation handles GET /v1/reservations/:id.  Reservations of
// other users are reported as not found.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	v, err := h.svc.GetReservation(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationResponse(*v))
}

// CancelReservation handles DELETE /v1/reservations/:id and returns the
// reservation with status CANCELLED.  Cancelling twice or after the
// showtime started yields 422.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	v, err := h.svc.CancelReservation(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationResponse(*v))
}
