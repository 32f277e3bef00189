package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"

    "github.com/iliyamo/cinema-seat-booking/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key
// violation (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// SeatHoldRepo provides data access to the seat_holds table.  It is
// responsible for creating, listing and deleting seat holds.  Every
// expiry comparison takes the caller's notion of "now" so that all
// components agree on which holds are still active.
type SeatHoldRepo struct {
    db *sql.DB
}

// NewSeatHoldRepo returns a new SeatHoldRepo bound to the provided database.
func NewSeatHoldRepo(db *sql.DB) *SeatHoldRepo { return &SeatHoldRepo{db: db} }

const holdColumns = `id, user_id, showtime_id, seat_id, hold_token, expires_at, created_at`

// DeleteExpired removes every hold whose expires_at is less than or equal
// to now, across all showtimes.  It runs outside any request transaction
// and is safe to execute concurrently from several processes: a second
// sweep simply finds nothing left to delete.
func (r *SeatHoldRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx, `DELETE FROM seat_holds WHERE expires_at <= ?`, dbTime(now))
    if err != nil {
        return 0, fmt.Errorf("delete expired holds: %w", err)
    }
    return res.RowsAffected()
}

// DeleteExpiredForSeatsTx removes expired holds on the given seats of a
// showtime regardless of who held them.  The lock path calls it before
// inserting so that an inert row does not occupy the (seat, showtime)
// unique slot.
func (r *SeatHoldRepo) DeleteExpiredForSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64, now time.Time) (int64, error) {
    if len(seatIDs) == 0 {
        return 0, nil
    }
    in, args := inClause(seatIDs)
    q := `DELETE FROM seat_holds WHERE showtime_id = ? AND expires_at <= ? AND seat_id IN (` + in + `)`
    res, err := tx.ExecContext(ctx, q, append([]interface{}{showtimeID, dbTime(now)}, args...)...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// DeleteByUserForSeatsTx removes the user's holds on the given seats of a
// showtime, expired or not.  It is used both to refresh a user's own
// holds and to consume holds once they become a reservation.
func (r *SeatHoldRepo) DeleteByUserForSeatsTx(ctx context.Context, tx *sql.Tx, userID, showtimeID uint64, seatIDs []uint64) (int64, error) {
    if len(seatIDs) == 0 {
        return 0, nil
    }
    in, args := inClause(seatIDs)
    q := `DELETE FROM seat_holds WHERE user_id = ? AND showtime_id = ? AND seat_id IN (` + in + `)`
    res, err := tx.ExecContext(ctx, q, append([]interface{}{userID, showtimeID}, args...)...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// CreateMultipleTx inserts multiple seat_holds within the provided
// transaction.  Each hold must specify ShowtimeID, SeatID, UserID,
// HoldToken, ExpiresAt and CreatedAt.  A unique key violation on
// (seat_id, showtime_id) is reported as ErrDuplicateHold.  Passing an
// empty slice has no effect and returns nil.
func (r *SeatHoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []model.SeatHold) error {
    if len(holds) == 0 {
        return nil
    }
    query := `INSERT INTO seat_holds (user_id, showtime_id, seat_id, hold_token, expires_at, created_at) VALUES `
    args := make([]interface{}, 0, len(holds)*6)
    for i, h := range holds {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?)"
        args = append(args, h.UserID, h.ShowtimeID, h.SeatID, h.HoldToken, dbTime(h.ExpiresAt), dbTime(h.CreatedAt))
    }
    _, err := tx.ExecContext(ctx, query, args...)
    var me *mysql.MySQLError
    if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
        return ErrDuplicateHold
    }
    return err
}

// ActiveByShowtimeTx retrieves all non-expired holds of a showtime,
// optionally restricted to seatIDs.  No rows are locked.
func (r *SeatHoldRepo) ActiveByShowtimeTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error) {
    q := `SELECT ` + holdColumns + ` FROM seat_holds WHERE showtime_id = ? AND expires_at > ?`
    args := []interface{}{showtimeID, dbTime(now)}
    if seatIDs != nil {
        if len(seatIDs) == 0 {
            return nil, nil
        }
        in, seatArgs := inClause(seatIDs)
        q += ` AND seat_id IN (` + in + `)`
        args = append(args, seatArgs...)
    }
    q += ` ORDER BY seat_id`
    rows, err := tx.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    return scanHolds(rows)
}

// LockActiveByUserTx retrieves the user's non-expired holds on the given
// seats and locks those rows until the transaction ends.  Use this when
// confirming a reservation to ensure the seats are still held.
func (r *SeatHoldRepo) LockActiveByUserTx(ctx context.Context, tx *sql.Tx, userID, showtimeID uint64, seatIDs []uint64, now time.Time) ([]model.SeatHold, error) {
    if len(seatIDs) == 0 {
        return nil, nil
    }
    in, args := inClause(seatIDs)
    q := `SELECT ` + holdColumns + `
          FROM seat_holds
          WHERE user_id = ? AND showtime_id = ? AND expires_at > ? AND seat_id IN (` + in + `)
          ORDER BY seat_id
          FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, append([]interface{}{userID, showtimeID, dbTime(now)}, args...)...)
    if err != nil {
        return nil, err
    }
    return scanHolds(rows)
}

func scanHolds(rows *sql.Rows) ([]model.SeatHold, error) {
    defer rows.Close()
    var holds []model.SeatHold
    for rows.Next() {
        var h model.SeatHold
        if err := rows.Scan(&h.ID, &h.UserID, &h.ShowtimeID, &h.SeatID, &h.HoldToken, &h.ExpiresAt, &h.CreatedAt); err != nil {
            return nil, err
        }
        holds = append(holds, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return holds, nil
}

// GenerateHolds builds hold records for the given user, showtime and
// seat IDs.  Every hold shares the same expiry and gets its own random
// token.  Callers pass the result to Tx.InsertHolds.
func GenerateHolds(userID, showtimeID uint64, seatIDs []uint64, now, expiresAt time.Time) []model.SeatHold {
    holds := make([]model.SeatHold, 0, len(seatIDs))
    for _, sid := range seatIDs {
        holds = append(holds, model.SeatHold{
            UserID:     userID,
            ShowtimeID: showtimeID,
            SeatID:     sid,
            HoldToken:  uuid.NewString(),
            ExpiresAt:  expiresAt,
            CreatedAt:  now,
        })
    }
    return holds
}
