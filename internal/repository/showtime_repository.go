package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// ShowtimeRepo reads showtimes.  The booking core only consumes the
// timing, theater and price of a showtime; catalog writes happen
// elsewhere.
type ShowtimeRepo struct{}

// NewShowtimeRepo constructs a ShowtimeRepo.
func NewShowtimeRepo() *ShowtimeRepo { return &ShowtimeRepo{} }

// GetByIDTx returns the showtime with the given id or ErrShowtimeNotFound.
func (r *ShowtimeRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Showtime, error) {
	const q = `SELECT id, movie_id, theater_id, starts_at, ends_at, price_cents, created_at
	           FROM showtimes WHERE id = ?`
	var s model.Showtime
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&s.ID,
		&s.MovieID,
		&s.TheaterID,
		&s.StartsAt,
		&s.EndsAt,
		&s.PriceCents,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Showtime{}, ErrShowtimeNotFound
		}
		return model.Showtime{}, err
	}
	return s, nil
}
