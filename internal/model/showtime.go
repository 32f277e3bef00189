package model

import "time"

// Showtime is a scheduled screening of a movie in a theater.  The
// booking core only reads showtimes: StartsAt gates whether seats can
// still be held, reserved or cancelled, and PriceCents is the flat
// per-seat ticket price.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – movie being screened.
//  TheaterID  – theater whose seats are sold for this showtime.
//  StartsAt   – when the screening begins (UTC).
//  EndsAt     – when the screening ends (UTC).
//  PriceCents – ticket price per seat.
//  CreatedAt  – creation timestamp.
type Showtime struct {
    ID         uint64    // showtimes.id
    MovieID    uint64    // showtimes.movie_id
    TheaterID  uint64    // showtimes.theater_id
    StartsAt   time.Time // showtimes.starts_at
    EndsAt     time.Time // showtimes.ends_at
    PriceCents Cents     // showtimes.price_cents
    CreatedAt  time.Time // showtimes.created_at
}

// HasStarted reports whether the showtime start is at or before now.
func (s Showtime) HasStarted(now time.Time) bool {
    return !now.Before(s.StartsAt)
}
