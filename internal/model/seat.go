package model

import (
    "strconv"
    "time"
)

// SeatType is the class of a seat within a theater.
type SeatType string

const (
    SeatRegular SeatType = "regular"
    SeatPremium SeatType = "premium"
    SeatVIP     SeatType = "vip"
)

// Seat describes a physical seat in a theater.  Seats are
// uniquely identified by their theater, row label and seat number
// and never change once created.
//
// Fields:
//  ID         – primary key identifier.
//  TheaterID  – theater to which this seat belongs.
//  RowLabel   – letter or string designating the row.
//  SeatNumber – number of the seat within the row.
//  SeatType   – class of seat (regular, premium, vip).
//  CreatedAt  – creation timestamp.
type Seat struct {
    ID         uint64    // seats.id
    TheaterID  uint64    // seats.theater_id
    RowLabel   string    // seats.row_label
    SeatNumber uint32    // seats.seat_number
    SeatType   SeatType  // seats.seat_type
    CreatedAt  time.Time // seats.created_at
}

// Label returns the human readable seat label, e.g. "A12".
func (s Seat) Label() string {
    return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
