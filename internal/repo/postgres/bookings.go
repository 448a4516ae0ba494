package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/tourhub/internal/domain/booking"
	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id::text, tour_id::text, user_id::text, price, paid, created_at`

type BookingsRepo struct {
	repo
	now func() time.Time
}

func NewBookingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{repo: repo{pool: pool, prom: prom}, now: time.Now}
}

func scanBooking(row rowScanner) (booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(&b.ID, &b.TourID, &b.UserID, &b.Price, &b.Paid, &b.CreatedAt)
	return b, err
}

func (r *BookingsRepo) Count(ctx context.Context, spec query.Spec) (int, error) {
	return r.count(ctx, "bookings.count", "bookings", "", spec, booking.Schema)
}

func (r *BookingsRepo) Find(ctx context.Context, spec query.Spec) ([]booking.Booking, error) {
	return find(ctx, r.repo, "bookings.find", bookingColumns, "bookings", "", spec, booking.Schema, scanBooking)
}

func (r *BookingsRepo) GetByID(ctx context.Context, id string) (booking.Booking, error) {
	if !validID(id) {
		return booking.Booking{}, booking.ErrNotFound
	}
	return getOne(ctx, r.repo, "bookings.get_by_id", booking.ErrNotFound, scanBooking,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *BookingsRepo) Create(ctx context.Context, req booking.CreateRequest) (booking.Booking, error) {
	b := booking.NewFromCreateRequest(req, r.now())
	if err := b.Validate(); err != nil {
		return booking.Booking{}, err
	}

	err := r.observe("bookings.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO bookings (id, tour_id, user_id, price, paid, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			b.ID, b.TourID, b.UserID, b.Price, b.Paid, b.CreatedAt,
		)
		return err
	})
	if err != nil {
		return booking.Booking{}, err
	}
	return b, nil
}

func (r *BookingsRepo) Update(ctx context.Context, id string, req booking.UpdateRequest) (booking.Booking, error) {
	if !validID(id) {
		return booking.Booking{}, booking.ErrNotFound
	}

	return updateTx(ctx, r.repo, "bookings.update", booking.ErrNotFound,
		func(tx pgx.Tx) (booking.Booking, error) {
			return scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
		},
		func(b *booking.Booking) error {
			booking.ApplyUpdate(b, req)
			return b.Validate()
		},
		func(tx pgx.Tx, b booking.Booking) error {
			_, err := tx.Exec(ctx, `UPDATE bookings SET price = $2, paid = $3 WHERE id = $1`, b.ID, b.Price, b.Paid)
			return err
		},
	)
}

func (r *BookingsRepo) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "bookings.delete", "bookings", id, booking.ErrNotFound)
}
