package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reviewColumns = `id::text, review, rating::float8, tour_id::text, user_id::text, created_at`

type ReviewsRepo struct {
	repo
	now func() time.Time
}

func NewReviewsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ReviewsRepo {
	return &ReviewsRepo{repo: repo{pool: pool, prom: prom}, now: time.Now}
}

func scanReview(row rowScanner) (review.Review, error) {
	var rv review.Review
	err := row.Scan(&rv.ID, &rv.Review, &rv.Rating, &rv.TourID, &rv.UserID, &rv.CreatedAt)
	return rv, err
}

func (r *ReviewsRepo) Count(ctx context.Context, spec query.Spec) (int, error) {
	return r.count(ctx, "reviews.count", "reviews", "", spec, review.Schema)
}

func (r *ReviewsRepo) Find(ctx context.Context, spec query.Spec) ([]review.Review, error) {
	return find(ctx, r.repo, "reviews.find", reviewColumns, "reviews", "", spec, review.Schema, scanReview)
}

func (r *ReviewsRepo) GetByID(ctx context.Context, id string) (review.Review, error) {
	if !validID(id) {
		return review.Review{}, review.ErrNotFound
	}
	return getOne(ctx, r.repo, "reviews.get_by_id", review.ErrNotFound, scanReview,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
}

// Create inserts the review. A second review by the same user for the same
// tour violates reviews_tour_user_key and surfaces as a duplicate.
func (r *ReviewsRepo) Create(ctx context.Context, req review.CreateRequest) (review.Review, error) {
	rv := review.NewFromCreateRequest(req, r.now())
	if err := rv.Validate(); err != nil {
		return review.Review{}, err
	}

	err := r.observe("reviews.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO reviews (id, review, rating, tour_id, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			rv.ID, rv.Review, rv.Rating, rv.TourID, rv.UserID, rv.CreatedAt,
		)
		return err
	})
	if err != nil {
		return review.Review{}, err
	}
	return rv, nil
}

func (r *ReviewsRepo) Update(ctx context.Context, id string, req review.UpdateRequest) (review.Review, error) {
	if !validID(id) {
		return review.Review{}, review.ErrNotFound
	}

	return updateTx(ctx, r.repo, "reviews.update", review.ErrNotFound,
		func(tx pgx.Tx) (review.Review, error) {
			return scanReview(tx.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, id))
		},
		func(rv *review.Review) error {
			review.ApplyUpdate(rv, req)
			return rv.Validate()
		},
		func(tx pgx.Tx, rv review.Review) error {
			_, err := tx.Exec(ctx, `UPDATE reviews SET review = $2, rating = $3 WHERE id = $1`, rv.ID, rv.Review, rv.Rating)
			return err
		},
	)
}

func (r *ReviewsRepo) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "reviews.delete", "reviews", id, review.ErrNotFound)
}

// ReviewStats aggregates the ratings of one tour.
func (r *ReviewsRepo) ReviewStats(ctx context.Context, tourID string) (int, float64, error) {
	if !validID(tourID) {
		return 0, 0, nil
	}

	var (
		n   int
		avg float64
	)
	err := r.observe("reviews.stats", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*)::int, COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE tour_id = $1`,
			tourID,
		).Scan(&n, &avg)
	})
	if err != nil {
		return 0, 0, err
	}
	return n, avg, nil
}
