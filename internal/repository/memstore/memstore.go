// Package memstore is an in-memory repository.Store.  Write transactions
// are fully serialised and applied copy-on-write, so a failed transaction
// leaves no trace; read snapshots share a read lock.  It backs unit tests
// and local runs without MySQL.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

var errReadOnly = errors.New("memstore: write in read-only transaction")

type state struct {
	showtimes    map[uint64]model.Showtime
	seats        map[uint64]model.Seat
	holds        map[uint64]model.SeatHold
	reservations map[uint64]model.Reservation
	nextSeat     uint64
	nextShowtime uint64
	nextHold     uint64
	nextRes      uint64
}

func (s *state) clone() *state {
	c := *s
	c.showtimes = make(map[uint64]model.Showtime, len(s.showtimes))
	for k, v := range s.showtimes {
		c.showtimes[k] = v
	}
	c.seats = make(map[uint64]model.Seat, len(s.seats))
	for k, v := range s.seats {
		c.seats[k] = v
	}
	c.holds = make(map[uint64]model.SeatHold, len(s.holds))
	for k, v := range s.holds {
		c.holds[k] = v
	}
	c.reservations = make(map[uint64]model.Reservation, len(s.reservations))
	for k, v := range s.reservations {
		c.reservations[k] = copyReservation(v)
	}
	return &c
}

func copyReservation(r model.Reservation) model.Reservation {
	r.Seats = append([]model.Seat(nil), r.Seats...)
	return r
}

// Store is a repository.Store kept in process memory.
type Store struct {
	mu      sync.RWMutex
	st      *state
	pingErr error
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: &state{
		showtimes:    map[uint64]model.Showtime{},
		seats:        map[uint64]model.Seat{},
		holds:        map[uint64]model.SeatHold{},
		reservations: map[uint64]model.Reservation{},
	}}
}

// AddSeat stores a catalog seat.  A zero ID is assigned automatically.
func (s *Store) AddSeat(seat model.Seat) model.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seat.ID == 0 {
		s.st.nextSeat++
		seat.ID = s.st.nextSeat
	} else if seat.ID > s.st.nextSeat {
		s.st.nextSeat = seat.ID
	}
	if seat.SeatType == "" {
		seat.SeatType = model.SeatRegular
	}
	s.st.seats[seat.ID] = seat
	return seat
}

// AddShowtime stores a catalog showtime.  A zero ID is assigned automatically.
func (s *Store) AddShowtime(st model.Showtime) model.Showtime {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == 0 {
		s.st.nextShowtime++
		st.ID = s.st.nextShowtime
	} else if st.ID > s.st.nextShowtime {
		s.st.nextShowtime = st.ID
	}
	s.st.showtimes[st.ID] = st
	return st
}

// Holds returns every stored hold, expired or not, ordered by id.
func (s *Store) Holds() []model.SeatHold {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.SeatHold, 0, len(s.st.holds))
	for _, h := range s.st.holds {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetPingError makes Ping fail with err until it is reset with nil.
func (s *Store) SetPingError(err error) {
	s.mu.Lock()
	s.pingErr = err
	s.mu.Unlock()
}

// InTx implements repository.Store.
func (s *Store) InTx(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// ReadSnapshot implements repository.Store.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{st: s.st, readOnly: true})
}

// DeleteExpiredHolds implements repository.Store.
func (s *Store) DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, h := range s.st.holds {
		if !h.ActiveAt(now) {
			delete(s.st.holds, id)
			n++
		}
	}
	return n, nil
}

// Ping implements repository.Store.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pingErr != nil {
		return s.pingErr
	}
	return ctx.Err()
}
