package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

func newMockStore(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLStore(db), mock
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM showtimes WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "theater_id", "starts_at", "ends_at", "price_cents", "created_at"}).
			AddRow(7, 3, 2, start, start.Add(2*time.Hour), 1250, start.Add(-72*time.Hour)))
	mock.ExpectCommit()

	var got model.Showtime
	err := store.InTx(context.Background(), func(tx Tx) error {
		var err error
		got, err = tx.GetShowtime(context.Background(), 7)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.TheaterID)
	assert.Equal(t, model.Cents(1250), got.PriceCents)
	assert.True(t, got.StartsAt.Equal(start))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM showtimes WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Tx) error {
		_, err := tx.GetShowtime(context.Background(), 99)
		return err
	})
	assert.ErrorIs(t, err, ErrShowtimeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockSeatsLocksInIDOrder(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM seats WHERE theater_id = \? AND id IN \(\?, \?\) ORDER BY id FOR UPDATE`).
		WithArgs(uint64(2), uint64(11), uint64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "theater_id", "row_label", "seat_number", "seat_type", "created_at"}).
			AddRow(10, 2, "A", 1, "regular", now).
			AddRow(11, 2, "A", 2, "vip", now))
	mock.ExpectCommit()

	var seats []model.Seat
	err := store.InTx(context.Background(), func(tx Tx) error {
		var err error
		seats, err = tx.LockSeats(context.Background(), 2, []uint64{11, 10})
		return err
	})
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "A1", seats[0].Label())
	assert.Equal(t, model.SeatVIP, seats[1].SeatType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertHoldsMapsDuplicateKey(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	holds := GenerateHolds(5, 7, []uint64{10}, now, now.Add(10*time.Minute))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO seat_holds \(user_id, showtime_id, seat_id, hold_token, expires_at, created_at\) VALUES \(\?, \?, \?, \?, \?, \?\)`).
		WithArgs(uint64(5), uint64(7), uint64(10), holds[0].HoldToken, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '10-7' for key 'uq_hold_seat_showtime'"})
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx Tx) error {
		return tx.InsertHolds(context.Background(), holds)
	})
	assert.ErrorIs(t, err, ErrDuplicateHold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpiredHolds(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM seat_holds WHERE expires_at <= \?`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteExpiredHolds(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpiredHoldsWrapsDriverError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectExec(`DELETE FROM seat_holds`).WillReturnError(boom)

	_, err := store.DeleteExpiredHolds(context.Background(), time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestCreateReservationInsertsSeats(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	res := &model.Reservation{
		UserID:          5,
		ShowtimeID:      7,
		Status:          model.ReservationConfirmed,
		TotalPriceCents: 2500,
		Seats:           []model.Seat{{ID: 10}, {ID: 11}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(uint64(5), uint64(7), "CONFIRMED", int64(2500), now, now).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT INTO reservation_seats \(reservation_id, seat_id\) VALUES \(\?, \?\),\(\?, \?\)`).
		WithArgs(uint64(42), uint64(10), uint64(42), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx Tx) error {
		return tx.CreateReservation(context.Background(), res)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReservationForUpdate(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "showtime_id", "status", "total_price_cents", "created_at", "updated_at"}).
			AddRow(42, 5, 7, "CONFIRMED", 2500, now, now))
	mock.ExpectQuery(`SELECT rs.reservation_id, (.+) FROM reservation_seats rs JOIN seats se ON se.id = rs.seat_id WHERE rs.reservation_id IN \(\?\)`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "id", "theater_id", "row_label", "seat_number", "seat_type", "created_at"}).
			AddRow(42, 10, 2, "A", 1, "regular", now).
			AddRow(42, 11, 2, "A", 2, "regular", now))
	mock.ExpectRollback()

	var got model.Reservation
	err := store.ReadSnapshot(context.Background(), func(tx Tx) error {
		var err error
		got, err = tx.GetReservation(context.Background(), 42, true)
		if err != nil {
			return err
		}
		return errors.New("stop")
	})
	require.EqualError(t, err, "stop")
	assert.Equal(t, model.ReservationConfirmed, got.Status)
	assert.Equal(t, []uint64{10, 11}, got.SeatIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmedSeatIDsWithoutFilter(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT rs.seat_id FROM reservation_seats rs JOIN reservations r ON r.id = rs.reservation_id WHERE r.showtime_id = \? AND r.status = \? ORDER BY rs.seat_id`).
		WithArgs(uint64(7), "CONFIRMED").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(10).AddRow(12))
	mock.ExpectCommit()

	var ids []uint64
	err := store.ReadSnapshot(context.Background(), func(tx Tx) error {
		var err error
		ids, err = tx.ConfirmedSeatIDs(context.Background(), 7, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 12}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
