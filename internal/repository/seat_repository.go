package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// SeatRepo reads seats of a theater.  Seats are owned by the catalog and
// never written by the booking core; the only mutation-adjacent query is
// LockByIDsTx, which takes row locks that serialise overlapping bookings.
type SeatRepo struct{}

// NewSeatRepo constructs a SeatRepo.
func NewSeatRepo() *SeatRepo {
	return &SeatRepo{}
}

const seatColumns = `id, theater_id, row_label, seat_number, seat_type, created_at`

// ListByTheaterTx retrieves all seats of a theater ordered by row_label then seat_number.
func (r *SeatRepo) ListByTheaterTx(ctx context.Context, tx *sql.Tx, theaterID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + `
	           FROM seats
	           WHERE theater_id = ?
	           ORDER BY row_label, seat_number`
	rows, err := tx.QueryContext(ctx, q, theaterID)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// LockByIDsTx selects the given seats of a theater with FOR UPDATE.  Rows
// are locked in primary key order so two transactions that overlap on any
// seat always queue behind each other instead of deadlocking.  Ids that do
// not exist or belong to another theater are simply absent from the result.
func (r *SeatRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, theaterID uint64, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	q := `SELECT ` + seatColumns + `
	      FROM seats
	      WHERE theater_id = ? AND id IN (` + in + `)
	      ORDER BY id
	      FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, append([]interface{}{theaterID}, args...)...)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.TheaterID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
