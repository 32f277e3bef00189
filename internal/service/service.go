// Package service implements the booking core: the availability view, the
// lock manager that grants short-lived seat holds, and the reservation
// coordinator that turns holds into confirmed reservations.
//
// Every mutating operation runs in one store transaction that locks the
// targeted seat rows before checking for conflicts, so the store is the
// only serialisation point.  There is no in-process mutex on seats.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

// DefaultHoldTTL is how long a seat hold lasts when none is configured.
const DefaultHoldTTL = 10 * time.Minute

// EventPublisher delivers booking events after a commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// AvailabilityCache stores availability snapshots under a per-showtime
// version.  Load returns the current version and, when present, the
// snapshot stored for it.  Invalidate moves the showtime to a new version.
type AvailabilityCache interface {
	Load(ctx context.Context, showtimeID uint64) (*Availability, int64, error)
	Save(ctx context.Context, showtimeID uint64, version int64, a *Availability, ttl time.Duration) error
	Invalidate(ctx context.Context, showtimeID uint64) error
}

// Service exposes the booking operations.
type Service struct {
	store    repository.Store
	holdTTL  time.Duration
	cache    AvailabilityCache
	cacheTTL time.Duration
	events   EventPublisher
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithCache serves availability from c for at most ttl.
func WithCache(c AvailabilityCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithEvents publishes reservation events through p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service backed by store.  A non-positive holdTTL falls
// back to DefaultHoldTTL.
func New(store repository.Store, holdTTL time.Duration, opts ...Option) *Service {
	if holdTTL <= 0 {
		holdTTL = DefaultHoldTTL
	}
	s := &Service{store: store, holdTTL: holdTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HoldTTL returns the configured hold lifetime.
func (s *Service) HoldTTL() time.Duration { return s.holdTTL }

func (s *Service) clock() time.Time { return s.now().UTC() }

// GetShowtime returns the catalog facts for a showtime.
func (s *Service) GetShowtime(ctx context.Context, showtimeID uint64) (*model.Showtime, error) {
	var st model.Showtime
	err := s.store.ReadSnapshot(ctx, func(tx repository.Tx) error {
		var err error
		st, err = tx.GetShowtime(ctx, showtimeID)
		return err
	})
	if err != nil {
		return nil, translate(err, "get showtime")
	}
	return &st, nil
}

// translate converts repository sentinels into typed errors and wraps
// anything unexpected with the operation name.
func translate(err error, op string) error {
	if _, ok := AsError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return notFound("showtime not found", nil)
	case errors.Is(err, repository.ErrReservationNotFound):
		return notFound("reservation not found", nil)
	case errors.Is(err, repository.ErrSeatNotFound):
		return notFound("seat not found", nil)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// normalizeSeatIDs rejects empty or zero ids and returns the distinct ids
// in ascending order.
func normalizeSeatIDs(ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, validation("seat_ids must contain at least one seat")
	}
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, validation("seat_ids must be positive integers")
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// missingSeatIDs returns the requested ids that are absent from found.
func missingSeatIDs(requested []uint64, found []model.Seat) []uint64 {
	have := make(map[uint64]bool, len(found))
	for _, s := range found {
		have[s.ID] = true
	}
	var missing []uint64
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// afterCommitTimeout bounds the cache bump and event publish that follow
// a commit.
const afterCommitTimeout = 5 * time.Second

// afterCommit bumps the cached availability version and publishes ev.
// Neither failure is reported to the caller: the commit already happened.
// Both run detached from the request's cancellation so a client that
// hangs up after the commit cannot leave a stale snapshot behind.
func (s *Service) afterCommit(reqCtx context.Context, showtimeID uint64, ev *queue.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), afterCommitTimeout)
	defer cancel()
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, showtimeID); err != nil {
			log.Printf("availability: invalidate showtime %d failed: %v", showtimeID, err)
		}
	}
	if ev != nil && s.events != nil {
		if err := s.events.Publish(ctx, *ev); err != nil {
			log.Printf("events: publish %s for reservation %d failed: %v", ev.Type, ev.ReservationID, err)
		}
	}
}
