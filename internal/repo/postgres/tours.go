package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tourColumns = `id::text, name, duration, max_group_size, difficulty, ratings_average::float8,
	ratings_quantity, price, price_discount, summary, description, image_cover, images,
	start_dates, start_location, locations, guides::text[], created_at`

// angular distance in radians between the tour start and ($1 lat, $2 lng)
const angularDistanceSQL = `2 * asin(least(1, sqrt(
	power(sin(radians(((start_location->'coordinates'->>1)::float8 - $1) / 2)), 2) +
	cos(radians($1)) * cos(radians((start_location->'coordinates'->>1)::float8)) *
	power(sin(radians(((start_location->'coordinates'->>0)::float8 - $2) / 2)), 2)
)))`

type ToursRepo struct {
	repo
	now func() time.Time
}

func NewToursRepo(pool *pgxpool.Pool, prom *observability.Prom) *ToursRepo {
	return &ToursRepo{repo: repo{pool: pool, prom: prom}, now: time.Now}
}

func scanTour(row rowScanner) (tour.Tour, error) {
	var t tour.Tour
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Duration,
		&t.MaxGroupSize,
		&t.Difficulty,
		&t.RatingsAverage,
		&t.RatingsQuantity,
		&t.Price,
		&t.PriceDiscount,
		&t.Summary,
		&t.Description,
		&t.ImageCover,
		&t.Images,
		&t.StartDates,
		&t.StartLocation,
		&t.Locations,
		&t.Guides,
		&t.CreatedAt,
	)
	if err != nil {
		return tour.Tour{}, err
	}
	t.Derive()
	return t, nil
}

func (r *ToursRepo) Count(ctx context.Context, spec query.Spec) (int, error) {
	return r.count(ctx, "tours.count", "tours", "", spec, tour.Schema)
}

func (r *ToursRepo) Find(ctx context.Context, spec query.Spec) ([]tour.Tour, error) {
	return find(ctx, r.repo, "tours.find", tourColumns, "tours", "", spec, tour.Schema, scanTour)
}

func (r *ToursRepo) GetByID(ctx context.Context, id string) (tour.Tour, error) {
	if !validID(id) {
		return tour.Tour{}, tour.ErrNotFound
	}
	return getOne(ctx, r.repo, "tours.get_by_id", tour.ErrNotFound, scanTour,
		`SELECT `+tourColumns+` FROM tours WHERE id = $1`, id)
}

func (r *ToursRepo) Create(ctx context.Context, req tour.CreateRequest) (tour.Tour, error) {
	t := tour.NewFromCreateRequest(req, r.now())
	if err := t.Validate(); err != nil {
		return tour.Tour{}, err
	}

	err := r.observe("tours.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tours (id, name, duration, max_group_size, difficulty, ratings_average,
				ratings_quantity, price, price_discount, summary, description, image_cover, images,
				start_dates, start_location, locations, guides, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
			t.ID, t.Name, t.Duration, t.MaxGroupSize, string(t.Difficulty), t.RatingsAverage,
			t.RatingsQuantity, t.Price, t.PriceDiscount, t.Summary, t.Description, t.ImageCover, t.Images,
			t.StartDates, t.StartLocation, t.Locations, t.Guides, t.CreatedAt,
		)
		return err
	})
	if err != nil {
		return tour.Tour{}, err
	}
	return t, nil
}

func (r *ToursRepo) Update(ctx context.Context, id string, req tour.UpdateRequest) (tour.Tour, error) {
	if !validID(id) {
		return tour.Tour{}, tour.ErrNotFound
	}

	return updateTx(ctx, r.repo, "tours.update", tour.ErrNotFound,
		func(tx pgx.Tx) (tour.Tour, error) {
			return scanTour(tx.QueryRow(ctx, `SELECT `+tourColumns+` FROM tours WHERE id = $1 FOR UPDATE`, id))
		},
		func(t *tour.Tour) error {
			tour.ApplyUpdate(t, req)
			return t.Validate()
		},
		func(tx pgx.Tx, t tour.Tour) error {
			_, err := tx.Exec(ctx,
				`UPDATE tours
				SET name = $2,
					duration = $3,
					max_group_size = $4,
					difficulty = $5,
					price = $6,
					price_discount = $7,
					summary = $8,
					description = $9,
					image_cover = $10,
					images = $11,
					start_dates = $12,
					start_location = $13,
					locations = $14,
					guides = $15
				WHERE id = $1`,
				t.ID, t.Name, t.Duration, t.MaxGroupSize, string(t.Difficulty), t.Price, t.PriceDiscount,
				t.Summary, t.Description, t.ImageCover, t.Images, t.StartDates, t.StartLocation,
				t.Locations, t.Guides,
			)
			return err
		},
	)
}

func (r *ToursRepo) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "tours.delete", "tours", id, tour.ErrNotFound)
}

// SetRatings stores the review aggregate computed by the ratings reconciler.
func (r *ToursRepo) SetRatings(ctx context.Context, tourID string, avg float64, qty int) error {
	if !validID(tourID) {
		return tour.ErrNotFound
	}
	return r.observe("tours.set_ratings", func() error {
		_, err := r.pool.Exec(ctx,
			`UPDATE tours SET ratings_average = $2, ratings_quantity = $3 WHERE id = $1`,
			tourID, avg, qty,
		)
		return err
	})
}

// Reviews lists the reviews of a tour, newest first.
func (r *ToursRepo) Reviews(ctx context.Context, tourID string) ([]review.Review, error) {
	spec := query.Spec{Sort: review.QueryOptions.DefaultSort, Page: 1, Limit: 1000}
	pred, err := review.Schema.Predicate("tour", query.OpEq, tourID)
	if err != nil {
		return nil, err
	}
	return find(ctx, r.repo, "tours.reviews", reviewColumns, "reviews", "", spec.WithFilter(pred), review.Schema, scanReview)
}

// Within lists tours starting within radius radians of (lat, lng).
func (r *ToursRepo) Within(ctx context.Context, lat, lng, radius float64) ([]tour.Tour, error) {
	out := make([]tour.Tour, 0)
	err := r.observe("tours.within", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+tourColumns+` FROM tours
			WHERE start_location IS NOT NULL AND `+angularDistanceSQL+` <= $3
			ORDER BY id`,
			lat, lng, radius,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTour(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Distances lists every tour with a start location, nearest first.
func (r *ToursRepo) Distances(ctx context.Context, lat, lng float64, unit tour.Unit) ([]tour.Distance, error) {
	mult := tour.Multiplier(unit)

	out := make([]tour.Distance, 0)
	err := r.observe("tours.distances", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id::text, name, `+angularDistanceSQL+` AS d FROM tours
			WHERE start_location IS NOT NULL
			ORDER BY d ASC, id ASC`,
			lat, lng,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var d tour.Distance
			var ang float64
			if err := rows.Scan(&d.ID, &d.Name, &ang); err != nil {
				return err
			}
			d.Distance = tour.MetersFromRadians(ang) * mult
			out = append(out, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats groups well-rated tours by difficulty, cheapest group first.
func (r *ToursRepo) Stats(ctx context.Context) ([]tour.DifficultyStats, error) {
	out := make([]tour.DifficultyStats, 0)
	err := r.observe("tours.stats", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT difficulty,
				COUNT(*)::int,
				COALESCE(SUM(ratings_quantity), 0)::int,
				AVG(ratings_average)::float8,
				AVG(price)::float8,
				MIN(price)::float8,
				MAX(price)::float8
			FROM tours
			WHERE ratings_average >= $1
			GROUP BY difficulty
			ORDER BY AVG(price) ASC, difficulty ASC`,
			tour.StatsMinRating,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s tour.DifficultyStats
			if err := rows.Scan(&s.Difficulty, &s.NumTours, &s.NumRatings, &s.AvgRating, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MonthlyPlan counts tour starts per month of year, busiest month first.
func (r *ToursRepo) MonthlyPlan(ctx context.Context, year int) ([]tour.MonthPlan, error) {
	from, to := tour.YearBounds(year)

	out := make([]tour.MonthPlan, 0)
	err := r.observe("tours.monthly_plan", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT EXTRACT(MONTH FROM d AT TIME ZONE 'UTC')::int AS month,
				COUNT(*)::int AS starts,
				array_agg(t.name ORDER BY t.name)
			FROM tours t, unnest(t.start_dates) AS d
			WHERE d >= $1 AND d < $2
			GROUP BY month
			ORDER BY starts DESC, month ASC
			LIMIT 12`,
			from, to,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p tour.MonthPlan
			if err := rows.Scan(&p.Month, &p.NumTourStarts, &p.Tours); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
