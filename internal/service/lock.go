package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

// LockResult describes holds granted by LockSeats.
type LockResult struct {
	ShowtimeID    uint64    `json:"showtime_id"`
	LockedSeatIDs []uint64  `json:"locked_seat_ids"`
	ExpiresAt     time.Time `json:"expires_at"`
	TTLMinutes    int       `json:"ttl_minutes"`
}

// LockSeats grants the user an exclusive hold on every requested seat,
// all expiring together at now+TTL.  Either every seat is held or nothing
// changes.
//
// Seat rows are locked first, in id order, so two requests overlapping on
// any seat run one after the other and the second one sees the first
// one's holds.  Expired holds on the targeted seats are removed in the
// same transaction whoever owns them, and the caller's own holds on those
// seats are replaced, which makes re-locking a refresh.
func (s *Service) LockSeats(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*LockResult, error) {
	if userID == 0 {
		return nil, validation("user identity is required")
	}
	ids, err := normalizeSeatIDs(seatIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	expiresAt := now.Add(s.holdTTL)
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		st, err := tx.GetShowtime(ctx, showtimeID)
		if err != nil {
			return err
		}
		if st.HasStarted(now) {
			return businessLogic("cannot lock seats for a showtime that has already started",
				map[string]interface{}{"showtime_id": showtimeID})
		}

		seats, err := tx.LockSeats(ctx, st.TheaterID, ids)
		if err != nil {
			return err
		}
		if missing := missingSeatIDs(ids, seats); len(missing) > 0 {
			return notFound("seats not found for this showtime",
				map[string]interface{}{"missing_seat_ids": missing})
		}

		booked, err := tx.ConfirmedSeatIDs(ctx, showtimeID, ids)
		if err != nil {
			return err
		}
		if len(booked) > 0 {
			return seatAlreadyBooked(booked)
		}

		holds, err := tx.ActiveHolds(ctx, showtimeID, ids, now)
		if err != nil {
			return err
		}
		var lockedByOthers []uint64
		for _, h := range holds {
			if h.UserID != userID {
				lockedByOthers = append(lockedByOthers, h.SeatID)
			}
		}
		if len(lockedByOthers) > 0 {
			return seatLocked(lockedByOthers)
		}

		if _, err := tx.DeleteExpiredHoldsForSeats(ctx, showtimeID, ids, now); err != nil {
			return err
		}
		if _, err := tx.DeleteUserHolds(ctx, userID, showtimeID, ids); err != nil {
			return err
		}
		err = tx.InsertHolds(ctx, repository.GenerateHolds(userID, showtimeID, ids, now, expiresAt))
		if errors.Is(err, repository.ErrDuplicateHold) {
			// only reachable if a writer bypassed the seat row locks
			return seatLocked(ids)
		}
		return err
	})
	if err != nil {
		return nil, translate(err, "lock seats")
	}

	s.afterCommit(ctx, showtimeID, nil)
	return &LockResult{
		ShowtimeID:    showtimeID,
		LockedSeatIDs: ids,
		ExpiresAt:     expiresAt,
		TTLMinutes:    ttlMinutes(s.holdTTL),
	}, nil
}

// ttlMinutes reports d in whole minutes, rounding up so a hold never
// looks shorter than it is.
func ttlMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}
