// Package repository defines the transactional store used by the booking
// core and its MySQL implementation.  Sentinel errors declared here let
// higher layers such as the service distinguish between failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrShowtimeNotFound is returned when a showtime lookup yields no rows.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrReservationNotFound is returned when a reservation lookup yields no
// rows.  The service translates it into a NotFound error.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrDuplicateHold is returned when inserting a hold collides with an
// existing row for the same (seat, showtime).  Callers treat it as the
// seat being locked by someone else.
var ErrDuplicateHold = errors.New("duplicate seat hold")
