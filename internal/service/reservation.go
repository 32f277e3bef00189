package service

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

// ReservationView is a reservation together with the showtime it belongs
// to, as seen by its owner at a point in time.
type ReservationView struct {
	model.Reservation
	Showtime      model.Showtime
	IsCancellable bool
}

func newView(r model.Reservation, st model.Showtime, now time.Time) *ReservationView {
	return &ReservationView{
		Reservation:   r,
		Showtime:      st,
		IsCancellable: r.Status == model.ReservationConfirmed && !st.HasStarted(now),
	}
}

// CreateReservation converts the user's holds on seatIDs into a CONFIRMED
// reservation priced at showtime price times seat count.  The user must
// hold every requested seat with an unexpired hold.  The consumed holds
// are deleted in the same transaction.
func (s *Service) CreateReservation(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*ReservationView, error) {
	if userID == 0 {
		return nil, validation("user identity is required")
	}
	ids, err := normalizeSeatIDs(seatIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	var res model.Reservation
	var st model.Showtime
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		st, err = tx.GetShowtime(ctx, showtimeID)
		if err != nil {
			return err
		}
		if st.HasStarted(now) {
			return businessLogic("cannot reserve seats for a showtime that has already started",
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

		held, err := tx.LockUserHolds(ctx, userID, showtimeID, ids, now)
		if err != nil {
			return err
		}
		if len(held) != len(ids) {
			heldSet := make(map[uint64]bool, len(held))
			for _, h := range held {
				heldSet[h.SeatID] = true
			}
			var unheld []uint64
			for _, id := range ids {
				if !heldSet[id] {
					unheld = append(unheld, id)
				}
			}
			return businessLogic("must hold seats before reserving", map[string]interface{}{
				"required_locks": len(ids),
				"found_locks":    len(held),
				"seat_ids":       unheld,
			})
		}

		booked, err := tx.ConfirmedSeatIDs(ctx, showtimeID, ids)
		if err != nil {
			return err
		}
		if len(booked) > 0 {
			return seatAlreadyBooked(booked)
		}

		res = model.Reservation{
			UserID:          userID,
			ShowtimeID:      showtimeID,
			Status:          model.ReservationConfirmed,
			TotalPriceCents: st.PriceCents.Times(len(ids)),
			Seats:           seats,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.CreateReservation(ctx, &res); err != nil {
			return err
		}
		_, err = tx.DeleteUserHolds(ctx, userID, showtimeID, ids)
		return err
	})
	if err != nil {
		return nil, translate(err, "create reservation")
	}

	ev := queue.NewBookingEvent(queue.ReservationConfirmedQueue, res, st, now)
	s.afterCommit(ctx, showtimeID, &ev)
	return newView(res, st, now), nil
}

// CancelReservation moves the user's CONFIRMED reservation to CANCELLED as
// long as its showtime has not started.  A reservation owned by someone
// else is reported as not found.  Seats become available again because
// availability only counts CONFIRMED reservations.
func (s *Service) CancelReservation(ctx context.Context, userID, reservationID uint64) (*ReservationView, error) {
	now := s.clock()
	var res model.Reservation
	var st model.Showtime
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		res, err = tx.GetReservation(ctx, reservationID, true)
		if err != nil {
			return err
		}
		if res.UserID != userID {
			return repository.ErrReservationNotFound
		}
		st, err = tx.GetShowtime(ctx, res.ShowtimeID)
		if err != nil {
			return err
		}
		if res.Status == model.ReservationCancelled {
			return notCancellable("reservation is already cancelled")
		}
		if st.HasStarted(now) {
			return notCancellable("showtime has already started")
		}
		if err := tx.SetReservationStatus(ctx, res.ID, model.ReservationCancelled, now); err != nil {
			return err
		}
		res.Status = model.ReservationCancelled
		res.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, translate(err, "cancel reservation")
	}

	ev := queue.NewBookingEvent(queue.ReservationCancelledQueue, res, st, now)
	s.afterCommit(ctx, res.ShowtimeID, &ev)
	return newView(res, st, now), nil
}

// GetReservation returns one of the user's reservations.
func (s *Service) GetReservation(ctx context.Context, userID, reservationID uint64) (*ReservationView, error) {
	now := s.clock()
	var view *ReservationView
	err := s.store.ReadSnapshot(ctx, func(tx repository.Tx) error {
		res, err := tx.GetReservation(ctx, reservationID, false)
		if err != nil {
			return err
		}
		if res.UserID != userID {
			return repository.ErrReservationNotFound
		}
		st, err := tx.GetShowtime(ctx, res.ShowtimeID)
		if err != nil {
			return err
		}
		view = newView(res, st, now)
		return nil
	})
	if err != nil {
		return nil, translate(err, "get reservation")
	}
	return view, nil
}

// ListReservations returns the user's reservations newest first.  Unless
// includePast is set, reservations whose showtime has started are left
// out.
func (s *Service) ListReservations(ctx context.Context, userID uint64, includePast bool) ([]ReservationView, error) {
	now := s.clock()
	out := make([]ReservationView, 0)
	err := s.store.ReadSnapshot(ctx, func(tx repository.Tx) error {
		list, err := tx.ReservationsByUser(ctx, userID)
		if err != nil {
			return err
		}
		showtimes := make(map[uint64]model.Showtime)
		for _, res := range list {
			st, ok := showtimes[res.ShowtimeID]
			if !ok {
				st, err = tx.GetShowtime(ctx, res.ShowtimeID)
				if err != nil {
					return err
				}
				showtimes[res.ShowtimeID] = st
			}
			if !includePast && st.HasStarted(now) {
				continue
			}
			out = append(out, *newView(res, st, now))
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "list reservations")
	}
	return out, nil
}
