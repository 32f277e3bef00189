package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/cinema-seat-booking/internal/model"
)

// ReservationRepo provides persistence for reservations and their seats.
// Reservations group together one or more seats for a particular
// showtime and user.  Seats reserved under a reservation are stored in
// the reservation_seats table.  All timestamp fields are stored in UTC.
type ReservationRepo struct{}

// NewReservationRepo returns a new ReservationRepo.
func NewReservationRepo() *ReservationRepo { return &ReservationRepo{} }

const reservationColumns = `id, user_id, showtime_id, status, total_price_cents, created_at, updated_at`

// CreateTx inserts a new reservation and one reservation_seats row per
// seat within the scope of an existing transaction.  It populates the
// generated ID on res.  The caller must commit or roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (user_id, showtime_id, status, total_price_cents, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        res.UserID, res.ShowtimeID, string(res.Status), int64(res.TotalPriceCents),
        dbTime(res.CreatedAt), dbTime(res.UpdatedAt),
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    return r.createSeatsBulkTx(ctx, tx, res.ID, res.SeatIDs())
}

// createSeatsBulkTx inserts multiple reservation_seats rows in a single
// statement.  Passing an empty slice has no effect and returns nil.
func (r *ReservationRepo) createSeatsBulkTx(ctx context.Context, tx *sql.Tx, reservationID uint64, seatIDs []uint64) error {
    if len(seatIDs) == 0 {
        return nil
    }
    query := `INSERT INTO reservation_seats (reservation_id, seat_id) VALUES `
    args := make([]interface{}, 0, len(seatIDs)*2)
    for i, sid := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, reservationID, sid)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// ConfirmedSeatIDsTx returns the seats of a showtime that are claimed by
// a CONFIRMED reservation.  When seatIDs is non-nil only those seats are
// considered.
func (r *ReservationRepo) ConfirmedSeatIDsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64) ([]uint64, error) {
    q := `SELECT rs.seat_id
          FROM reservation_seats rs
          JOIN reservations r ON r.id = rs.reservation_id
          WHERE r.showtime_id = ? AND r.status = ?`
    args := []interface{}{showtimeID, string(model.ReservationConfirmed)}
    if seatIDs != nil {
        if len(seatIDs) == 0 {
            return nil, nil
        }
        in, seatArgs := inClause(seatIDs)
        q += ` AND rs.seat_id IN (` + in + `)`
        args = append(args, seatArgs...)
    }
    q += ` ORDER BY rs.seat_id`
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// GetByIDTx returns a single reservation together with its seats.  When
// forUpdate is set the reservation row stays locked until the transaction
// ends, which serialises concurrent cancellations.  A missing row yields
// ErrReservationNotFound.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64, forUpdate bool) (model.Reservation, error) {
    q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    if forUpdate {
        q += ` FOR UPDATE`
    }
    var res model.Reservation
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.UserID, &res.ShowtimeID, &res.Status, &res.TotalPriceCents,
        &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.Reservation{}, ErrReservationNotFound
        }
        return model.Reservation{}, err
    }
    seats, err := r.seatsForTx(ctx, tx, []uint64{res.ID})
    if err != nil {
        return model.Reservation{}, err
    }
    res.Seats = seats[res.ID]
    return res, nil
}

// UpdateStatusTx sets the status of a reservation and bumps updated_at.
// The caller is expected to hold the row lock from GetByIDTx.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus, now time.Time) error {
    const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, string(status), dbTime(now), id)
    return err
}

// ListByUserTx returns every reservation of the user ordered by creation
// time descending, each with its seats.  Seats for all reservations are
// loaded with a single batched query.
func (r *ReservationRepo) ListByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) ([]model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + `
               FROM reservations
               WHERE user_id = ?
               ORDER BY created_at DESC, id DESC`
    rows, err := tx.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    list := make([]model.Reservation, 0)
    ids := make([]uint64, 0)
    for rows.Next() {
        var res model.Reservation
        if err := rows.Scan(
            &res.ID, &res.UserID, &res.ShowtimeID, &res.Status, &res.TotalPriceCents,
            &res.CreatedAt, &res.UpdatedAt,
        ); err != nil {
            rows.Close()
            return nil, err
        }
        list = append(list, res)
        ids = append(ids, res.ID)
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    if len(ids) == 0 {
        return list, nil
    }
    seats, err := r.seatsForTx(ctx, tx, ids)
    if err != nil {
        return nil, err
    }
    for i := range list {
        list[i].Seats = seats[list[i].ID]
    }
    return list, nil
}

// seatsForTx loads the seats booked under each of the given reservations,
// keyed by reservation id and ordered by row and seat number.
func (r *ReservationRepo) seatsForTx(ctx context.Context, tx *sql.Tx, reservationIDs []uint64) (map[uint64][]model.Seat, error) {
    in, args := inClause(reservationIDs)
    q := `SELECT rs.reservation_id, se.id, se.theater_id, se.row_label, se.seat_number, se.seat_type, se.created_at
          FROM reservation_seats rs
          JOIN seats se ON se.id = rs.seat_id
          WHERE rs.reservation_id IN (` + in + `)
          ORDER BY rs.reservation_id, se.row_label, se.seat_number`
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64][]model.Seat, len(reservationIDs))
    for rows.Next() {
        var rid uint64
        var s model.Seat
        if err := rows.Scan(&rid, &s.ID, &s.TheaterID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.CreatedAt); err != nil {
            return nil, err
        }
        out[rid] = append(out[rid], s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
