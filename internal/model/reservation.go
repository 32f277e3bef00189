package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
// CONFIRMED is the only initial state and CANCELLED is terminal.
type ReservationStatus string

const (
    ReservationConfirmed ReservationStatus = "CONFIRMED"
    ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation records a user's booking for a specific showtime.
// It aggregates one or more seats booked in a single transaction.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – user who made the reservation.
//  ShowtimeID      – showtime being reserved.
//  Status          – CONFIRMED or CANCELLED.
//  TotalPriceCents – showtime price times number of seats.
//  Seats           – seats booked under this reservation.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
    ID              uint64            // reservations.id
    UserID          uint64            // reservations.user_id
    ShowtimeID      uint64            // reservations.showtime_id
    Status          ReservationStatus // reservations.status
    TotalPriceCents Cents             // reservations.total_price_cents
    Seats           []Seat            // joined through reservation_seats
    CreatedAt       time.Time         // reservations.created_at
    UpdatedAt       time.Time         // reservations.updated_at
}

// SeatIDs returns the ids of the booked seats in order.
func (r Reservation) SeatIDs() []uint64 {
    ids := make([]uint64, 0, len(r.Seats))
    for _, s := range r.Seats {
        ids = append(ids, s.ID)
    }
    return ids
}

// ReservationSeat links a reservation to an individual seat.  A row
// under a CONFIRMED reservation is the permanent claim on that seat
// for the reservation's showtime.
type ReservationSeat struct {
    ReservationID uint64 // reservation_seats.reservation_id
    SeatID        uint64 // reservation_seats.seat_id
}
