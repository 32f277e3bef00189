package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// Store is the shared transactional store every booking operation runs
// against.  All mutual exclusion between concurrent requests is delegated
// to its transactions and row locks.
type Store interface {
	// InTx runs fn inside a write transaction.  The transaction commits
	// when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Tx) error) error
	// ReadSnapshot runs fn inside a read-only transaction that observes a
	// single consistent snapshot of committed data.
	ReadSnapshot(ctx context.Context, fn func(Tx) error) error
	// DeleteExpiredHolds removes every hold whose expiry is at or before
	// now and reports how many rows were removed.
	DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// Tx is the set of reads and writes available inside a Store transaction.
// seatIDs arguments are never empty unless documented otherwise.
type Tx interface {
	GetShowtime(ctx context.Context, id uint64) (model.Showtime, error)
	SeatsByTheater(ctx context.Context, theaterID uint64) ([]model.Seat, error)
	// LockSeats locks the rows of the given seats that belong to the
	// theater, in ascending id order, and returns the seats it found.
	LockSeats(ctx context.Context, theaterID uint64, seatIDs []uint64) ([]model.Seat, error)
	// ConfirmedSeatIDs returns the seats claimed by a CONFIRMED
	// reservation for the showtime.  A nil seatIDs means every seat.
	ConfirmedSeatIDs(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]uint64, error)
	// ActiveHolds returns holds with expiry after now.  A nil seatIDs
	// means every seat of the showtime.
	ActiveHolds(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error)
	// LockUserHolds locks and returns the user's active holds on seatIDs.
	LockUserHolds(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error)
	DeleteExpiredHoldsForSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) (int64, error)
	DeleteUserHolds(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (int64, error)
	// InsertHolds returns ErrDuplicateHold when a (seat, showtime) slot
	// is already occupied.
	InsertHolds(ctx context.Context, holds []model.SeatHold) error
	// CreateReservation inserts r and its seats and sets r.ID.
	CreateReservation(ctx context.Context, r *model.Reservation) error
	// GetReservation loads a reservation with its seats.  forUpdate locks
	// the reservation row until the transaction ends.
	GetReservation(ctx context.Context, id uint64, forUpdate bool) (model.Reservation, error)
	SetReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus, now time.Time) error
	// ReservationsByUser lists the user's reservations newest first.
	ReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
}

// MySQLStore implements Store on top of MySQL/InnoDB.  Write transactions
// run at READ COMMITTED so that SELECT ... FOR UPDATE takes record locks
// on the targeted rows only, without gap locks, and so that every
// statement after a lock wait sees the rows committed by the previous
// lock holder.
type MySQLStore struct {
	db           *sql.DB
	seats        *SeatRepo
	showtimes    *ShowtimeRepo
	holds        *SeatHoldRepo
	reservations *ReservationRepo
}

// NewMySQLStore wires the table repositories around db.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{
		db:           db,
		seats:        NewSeatRepo(),
		showtimes:    NewShowtimeRepo(),
		holds:        NewSeatHoldRepo(db),
		reservations: NewReservationRepo(),
	}
}

// InTx implements Store.
func (s *MySQLStore) InTx(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, fn)
}

// ReadSnapshot implements Store.  REPEATABLE READ gives InnoDB a single
// consistent read view for every statement in the transaction.
func (s *MySQLStore) ReadSnapshot(ctx context.Context, fn func(Tx) error) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (s *MySQLStore) run(ctx context.Context, opts *sql.TxOptions, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&mysqlTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// DeleteExpiredHolds implements Store.
func (s *MySQLStore) DeleteExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	return s.holds.DeleteExpired(ctx, now)
}

// Ping implements Store.
func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// mysqlTx binds the table repositories to one *sql.Tx.
type mysqlTx struct {
	tx *sql.Tx
	s  *MySQLStore
}

func (t *mysqlTx) GetShowtime(ctx context.Context, id uint64) (model.Showtime, error) {
	return t.s.showtimes.GetByIDTx(ctx, t.tx, id)
}

func (t *mysqlTx) SeatsByTheater(ctx context.Context, theaterID uint64) ([]model.Seat, error) {
	return t.s.seats.ListByTheaterTx(ctx, t.tx, theaterID)
}

func (t *mysqlTx) LockSeats(ctx context.Context, theaterID uint64, seatIDs []uint64) ([]model.Seat, error) {
	return t.s.seats.LockByIDsTx(ctx, t.tx, theaterID, seatIDs)
}

func (t *mysqlTx) ConfirmedSeatIDs(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]uint64, error) {
	return t.s.reservations.ConfirmedSeatIDsTx(ctx, t.tx, showtimeID, seatIDs)
}

func (t *mysqlTx) ActiveHolds(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error) {
	return t.s.holds.ActiveByShowtimeTx(ctx, t.tx, showtimeID, seatIDs, now)
}

func (t *mysqlTx) LockUserHolds(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error) {
	return t.s.holds.LockActiveByUserTx(ctx, t.tx, userID, showtimeID, seatIDs, now)
}

func (t *mysqlTx) DeleteExpiredHoldsForSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64, now time.Time) (int64, error) {
	return t.s.holds.DeleteExpiredForSeatsTx(ctx, t.tx, showtimeID, seatIDs, now)
}

func (t *mysqlTx) DeleteUserHolds(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (int64, error) {
	return t.s.holds.DeleteByUserForSeatsTx(ctx, t.tx, userID, showtimeID, seatIDs)
}

func (t *mysqlTx) InsertHolds(ctx context.Context, holds []model.SeatHold) error {
	return t.s.holds.CreateMultipleTx(ctx, t.tx, holds)
}

func (t *mysqlTx) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return t.s.reservations.CreateTx(ctx, t.tx, r)
}

func (t *mysqlTx) GetReservation(ctx context.Context, id uint64, forUpdate bool) (model.Reservation, error) {
	return t.s.reservations.GetByIDTx(ctx, t.tx, id, forUpdate)
}

func (t *mysqlTx) SetReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus, now time.Time) error {
	return t.s.reservations.UpdateStatusTx(ctx, t.tx, id, status, now)
}

func (t *mysqlTx) ReservationsByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return t.s.reservations.ListByUserTx(ctx, t.tx, userID)
}

// inClause returns "?, ?, ?" with n placeholders and the ids as args.
func inClause(ids []uint64) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

// dbTime normalises a timestamp for DATETIME(6) columns.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
