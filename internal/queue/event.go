// Package queue defines message payloads exchanged over the message broker
// together with the AMQP publisher and consumer that move them.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/cinema-seat-booking/internal/model"
)

// Queue names double as event types.  Both queues are durable.
const (
    ReservationConfirmedQueue = "reservation.confirmed"
    ReservationCancelledQueue = "reservation.cancelled"
)

// BookingEvent is published after a reservation is confirmed or
// cancelled.  It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
type BookingEvent struct {
    EventID       string      `json:"event_id"`
    Type          string      `json:"type"`
    ReservationID uint64      `json:"reservation_id"`
    UserID        uint64      `json:"user_id"`
    ShowtimeID    uint64      `json:"showtime_id"`
    Status        string      `json:"status"`
    SeatIDs       []uint64    `json:"seat_ids"`
    SeatLabels    []string    `json:"seats"`
    TotalPrice    model.Cents `json:"total_price"`
    StartsAt      string      `json:"starts_at"`
    OccurredAt    string      `json:"occurred_at"`
}

// NewBookingEvent builds the event of the given type for a reservation.
func NewBookingEvent(eventType string, res model.Reservation, st model.Showtime, at time.Time) BookingEvent {
    labels := make([]string, 0, len(res.Seats))
    for _, s := range res.Seats {
        labels = append(labels, s.Label())
    }
    return BookingEvent{
        EventID:       uuid.NewString(),
        Type:          eventType,
        ReservationID: res.ID,
        UserID:        res.UserID,
        ShowtimeID:    res.ShowtimeID,
        Status:        string(res.Status),
        SeatIDs:       res.SeatIDs(),
        SeatLabels:    labels,
        TotalPrice:    res.TotalPriceCents,
        StartsAt:      st.StartsAt.UTC().Format(time.RFC3339),
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
}
