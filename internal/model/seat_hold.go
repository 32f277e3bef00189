package model

import "time"

// SeatHold represents a temporary, exclusive hold on one seat for
// one showtime.  At most one unexpired hold exists per (seat,
// showtime).  A hold whose ExpiresAt is not after the current time
// is inert and is only kept until the reaper deletes it.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who holds the seat.
//  ShowtimeID – showtime for which the seat is held.
//  SeatID     – seat being held.
//  HoldToken  – unique token for correlation in logs and events.
//  ExpiresAt  – when the hold expires.
//  CreatedAt  – when the hold was created.
type SeatHold struct {
    ID         uint64    // seat_holds.id
    UserID     uint64    // seat_holds.user_id
    ShowtimeID uint64    // seat_holds.showtime_id
    SeatID     uint64    // seat_holds.seat_id
    HoldToken  string    // seat_holds.hold_token
    ExpiresAt  time.Time // seat_holds.expires_at
    CreatedAt  time.Time // seat_holds.created_at
}

// ActiveAt reports whether the hold is still in force at t.
func (h SeatHold) ActiveAt(t time.Time) bool {
    return h.ExpiresAt.After(t)
}
