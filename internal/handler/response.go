package handler // handler defines http handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/service"
)

// errorBody is the JSON envelope of every failed booking request.
type errorBody struct {
	Success bool      `json:"success"`
	Error   errorInfo `json:"error"`
}

type errorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// statusFor maps a service error kind to its HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindBusinessLogic:
		return http.StatusUnprocessableEntity
	case service.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err in the error envelope.  Errors that are not
// typed booking errors are logged and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	if e, ok := service.AsError(err); ok {
		return c.JSON(statusFor(e.Kind), errorBody{Error: errorInfo{Code: e.Code, Message: e.Message, Details: e.Details}})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, errorBody{Error: errorInfo{Code: "INTERNAL_ERROR", Message: "internal server error"}})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: errorInfo{Code: service.CodeValidation, Message: msg}})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorBody{Error: errorInfo{Code: "UNAUTHORIZED", Message: "unauthorized"}})
}

type showtimeResponse struct {
	ID        uint64      `json:"id"`
	MovieID   uint64      `json:"movie_id"`
	TheaterID uint64      `json:"theater_id"`
	StartsAt  time.Time   `json:"starts_at"`
	EndsAt    time.Time   `json:"ends_at"`
	Price     model.Cents `json:"price"`
}

func newShowtimeResponse(st model.Showtime) showtimeResponse {
	return showtimeResponse{
		ID:        st.ID,
		MovieID:   st.MovieID,
		TheaterID: st.TheaterID,
		StartsAt:  st.StartsAt,
		EndsAt:    st.EndsAt,
		Price:     st.PriceCents,
	}
}

type reservationSeat struct {
	ID         uint64         `json:"id"`
	RowLabel   string         `json:"row_label"`
	SeatNumber uint32         `json:"seat_number"`
	SeatType   model.SeatType `json:"seat_type"`
	SeatLabel  string         `json:"seat_label"`
}

type reservationResponse struct {
	ID            uint64                  `json:"id"`
	UserID        uint64                  `json:"user_id"`
	ShowtimeID    uint64                  `json:"showtime_id"`
	Status        model.ReservationStatus `json:"status"`
	TotalPrice    model.Cents             `json:"total_price"`
	Seats         []reservationSeat       `json:"seats"`
	StartsAt      time.Time               `json:"starts_at"`
	IsCancellable bool                    `json:"is_cancellable"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

func newReservationResponse(v service.ReservationView) reservationResponse {
	seats := make([]reservationSeat, 0, len(v.Seats))
	for _, s := range v.Seats {
		seats = append(seats, reservationSeat{
			ID:         s.ID,
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			SeatType:   s.SeatType,
			SeatLabel:  s.Label(),
		})
	}
	return reservationResponse{
		ID:            v.ID,
		UserID:        v.UserID,
		ShowtimeID:    v.ShowtimeID,
		Status:        v.Status,
		TotalPrice:    v.TotalPriceCents,
		Seats:         seats,
		StartsAt:      v.Showtime.StartsAt,
		IsCancellable: v.IsCancellable,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}
