package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

type tx struct {
	st       *state
	readOnly bool
}

var _ repository.Tx = (*tx)(nil)

func idSet(ids []uint64) map[uint64]bool {
	if ids == nil {
		return nil
	}
	m := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// in reports whether id is in set; a nil set matches everything.
func in(set map[uint64]bool, id uint64) bool {
	return set == nil || set[id]
}

func (t *tx) GetShowtime(_ context.Context, id uint64) (model.Showtime, error) {
	st, ok := t.st.showtimes[id]
	if !ok {
		return model.Showtime{}, repository.ErrShowtimeNotFound
	}
	return st, nil
}

func (t *tx) SeatsByTheater(_ context.Context, theaterID uint64) ([]model.Seat, error) {
	var out []model.Seat
	for _, s := range t.st.seats {
		if s.TheaterID == theaterID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowLabel != out[j].RowLabel {
			return out[i].RowLabel < out[j].RowLabel
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out, nil
}

func (t *tx) LockSeats(_ context.Context, theaterID uint64, seatIDs []uint64) ([]model.Seat, error) {
	var out []model.Seat
	for id := range idSet(seatIDs) {
		if s, ok := t.st.seats[id]; ok && s.TheaterID == theaterID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) ConfirmedSeatIDs(_ context.Context, showtimeID uint64, seatIDs []uint64) ([]uint64, error) {
	want := idSet(seatIDs)
	var out []uint64
	for _, r := range t.st.reservations {
		if r.ShowtimeID != showtimeID || r.Status != model.ReservationConfirmed {
			continue
		}
		for _, s := range r.Seats {
			if in(want, s.ID) {
				out = append(out, s.ID)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (t *tx) holdsWhere(keep func(model.SeatHold) bool) []model.SeatHold {
	var out []model.SeatHold
	for _, h := range t.st.holds {
		if keep(h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out
}

func (t *tx) ActiveHolds(_ context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error) {
	want := idSet(seatIDs)
	return t.holdsWhere(func(h model.SeatHold) bool {
		return h.ShowtimeID == showtimeID && h.ActiveAt(now) && in(want, h.SeatID)
	}), nil
}

func (t *tx) LockUserHolds(_ context.Context, userID, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error) {
	want := idSet(seatIDs)
	return t.holdsWhere(func(h model.SeatHold) bool {
		return h.UserID == userID && h.ShowtimeID == showtimeID && h.ActiveAt(now) && want[h.SeatID]
	}), nil
}

func (t *tx) deleteHolds(match func(model.SeatHold) bool) (int64, error) {
	if t.readOnly {
		return 0, errReadOnly
	}
	var n int64
	for id, h := range t.st.holds {
		if match(h) {
			delete(t.st.holds, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) DeleteExpiredHoldsForSeats(_ context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) (int64, error) {
	want := idSet(seatIDs)
	return t.deleteHolds(func(h model.SeatHold) bool {
		return h.ShowtimeID == showtimeID && !h.ActiveAt(now) && want[h.SeatID]
	})
}

func (t *tx) DeleteUserHolds(_ context.Context, userID, showtimeID uint64, seatIDs []uint64) (int64, error) {
	want := idSet(seatIDs)
	return t.deleteHolds(func(h model.SeatHold) bool {
		return h.UserID == userID && h.ShowtimeID == showtimeID && want[h.SeatID]
	})
}

func (t *tx) InsertHolds(_ context.Context, holds []model.SeatHold) error {
	if t.readOnly {
		return errReadOnly
	}
	taken := make(map[[2]uint64]bool, len(t.st.holds))
	for _, h := range t.st.holds {
		taken[[2]uint64{h.SeatID, h.ShowtimeID}] = true
	}
	for _, h := range holds {
		key := [2]uint64{h.SeatID, h.ShowtimeID}
		if taken[key] {
			return repository.ErrDuplicateHold
		}
		taken[key] = true
	}
	for _, h := range holds {
		t.st.nextHold++
		h.ID = t.st.nextHold
		t.st.holds[h.ID] = h
	}
	return nil
}

func (t *tx) CreateReservation(_ context.Context, r *model.Reservation) error {
	if t.readOnly {
		return errReadOnly
	}
	t.st.nextRes++
	r.ID = t.st.nextRes
	t.st.reservations[r.ID] = copyReservation(*r)
	return nil
}

func (t *tx) GetReservation(_ context.Context, id uint64, _ bool) (model.Reservation, error) {
	r, ok := t.st.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return copyReservation(r), nil
}

func (t *tx) SetReservationStatus(_ context.Context, id uint64, status model.ReservationStatus, now time.Time) error {
	if t.readOnly {
		return errReadOnly
	}
	r, ok := t.st.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	r.Status = status
	r.UpdatedAt = now
	t.st.reservations[id] = r
	return nil
}

func (t *tx) ReservationsByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, r := range t.st.reservations {
		if r.UserID == userID {
			out = append(out, copyReservation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
