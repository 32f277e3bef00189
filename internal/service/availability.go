package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

// SeatStatus is one seat of an availability snapshot.  A seat is
// available iff it is neither booked nor held.
type SeatStatus struct {
	ID          uint64         `json:"id"`
	TheaterID   uint64         `json:"theater_id"`
	RowLabel    string         `json:"row_label"`
	SeatNumber  uint32         `json:"seat_number"`
	SeatType    model.SeatType `json:"seat_type"`
	SeatLabel   string         `json:"seat_label"`
	IsAvailable bool           `json:"is_available"`
	IsLocked    bool           `json:"is_locked"`
}

// Availability is a point-in-time view of a showtime's seats.
type Availability struct {
	ShowtimeID     uint64       `json:"showtime_id"`
	TotalSeats     int          `json:"total_seats"`
	AvailableSeats int          `json:"available_seats"`
	Seats          []SeatStatus `json:"seats"`

	// earliest expiry among the active holds, zero when none
	nextExpiry time.Time
}

// GetAvailability computes which seats of a showtime are free, held or
// booked.  All reads happen in one read-only snapshot so the result never
// reflects a partially applied lock or reservation.
func (s *Service) GetAvailability(ctx context.Context, showtimeID uint64) (*Availability, error) {
	version, cacheUsable := int64(0), false
	if s.cache != nil {
		snap, ver, err := s.cache.Load(ctx, showtimeID)
		switch {
		case err != nil:
			log.Printf("availability: cache load for showtime %d failed: %v", showtimeID, err)
		case snap != nil:
			return snap, nil
		default:
			version, cacheUsable = ver, true
		}
	}

	now := s.clock()
	var out *Availability
	err := s.store.ReadSnapshot(ctx, func(tx repository.Tx) error {
		st, err := tx.GetShowtime(ctx, showtimeID)
		if err != nil {
			return err
		}
		seats, err := tx.SeatsByTheater(ctx, st.TheaterID)
		if err != nil {
			return err
		}
		booked, err := tx.ConfirmedSeatIDs(ctx, showtimeID, nil)
		if err != nil {
			return err
		}
		holds, err := tx.ActiveHolds(ctx, showtimeID, nil, now)
		if err != nil {
			return err
		}
		out = buildAvailability(showtimeID, seats, booked, holds)
		return nil
	})
	if err != nil {
		return nil, translate(err, "get availability")
	}

	if cacheUsable {
		ttl := s.cacheTTL
		if !out.nextExpiry.IsZero() {
			if untilExpiry := out.nextExpiry.Sub(now); untilExpiry < ttl {
				ttl = untilExpiry
			}
		}
		if ttl > 0 {
			if err := s.cache.Save(ctx, showtimeID, version, out, ttl); err != nil {
				log.Printf("availability: cache save for showtime %d failed: %v", showtimeID, err)
			}
		}
	}
	return out, nil
}

func buildAvailability(showtimeID uint64, seats []model.Seat, booked []uint64, holds []model.SeatHold) *Availability {
	bookedSet := make(map[uint64]bool, len(booked))
	for _, id := range booked {
		bookedSet[id] = true
	}
	heldSet := make(map[uint64]bool, len(holds))
	var nextExpiry time.Time
	for _, h := range holds {
		heldSet[h.SeatID] = true
		if nextExpiry.IsZero() || h.ExpiresAt.Before(nextExpiry) {
			nextExpiry = h.ExpiresAt
		}
	}

	a := &Availability{
		ShowtimeID: showtimeID,
		TotalSeats: len(seats),
		Seats:      make([]SeatStatus, 0, len(seats)),
		nextExpiry: nextExpiry,
	}
	for _, seat := range seats {
		locked := heldSet[seat.ID]
		available := !locked && !bookedSet[seat.ID]
		if available {
			a.AvailableSeats++
		}
		a.Seats = append(a.Seats, SeatStatus{
			ID:          seat.ID,
			TheaterID:   seat.TheaterID,
			RowLabel:    seat.RowLabel,
			SeatNumber:  seat.SeatNumber,
			SeatType:    seat.SeatType,
			SeatLabel:   seat.Label(),
			IsAvailable: available,
			IsLocked:    locked,
		})
	}
	return a
}
