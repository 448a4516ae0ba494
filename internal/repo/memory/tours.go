package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
)

type ToursRepo struct {
	*Store[tour.Tour, tour.CreateRequest, tour.UpdateRequest]
	reviews    *ReviewsRepo
	dependents dependents
}

func NewToursRepo(reviews *ReviewsRepo) *ToursRepo {
	return &ToursRepo{
		Store: NewStore(StoreConfig[tour.Tour, tour.CreateRequest, tour.UpdateRequest]{
			NotFound: tour.ErrNotFound,
			ID:       func(t tour.Tour) string { return t.ID },
			Build:    tour.NewFromCreateRequest,
			Apply:    func(t *tour.Tour, req tour.UpdateRequest, _ time.Time) { tour.ApplyUpdate(t, req) },
			Validate: tour.Tour.Validate,
			Unique: func(existing, candidate tour.Tour) (Conflict, bool) {
				if existing.Name == candidate.Name {
					return Conflict{Field: "name", Value: candidate.Name}, true
				}
				return Conflict{}, false
			},
		}),
		reviews: reviews,
	}
}

func (r *ToursRepo) SetRatings(ctx context.Context, tourID string, avg float64, qty int) error {
	return r.Mutate(tourID, func(t *tour.Tour) {
		t.RatingsAverage = avg
		t.RatingsQuantity = qty
	})
}

func (r *ToursRepo) Reviews(ctx context.Context, tourID string) ([]review.Review, error) {
	if r.reviews == nil {
		return []review.Review{}, nil
	}

	out := make([]review.Review, 0)
	for _, rv := range r.reviews.All() {
		if rv.TourID == tourID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ToursRepo) Within(ctx context.Context, lat, lng, radius float64) ([]tour.Tour, error) {
	return tour.Within(r.All(), lat, lng, radius), nil
}

func (r *ToursRepo) Distances(ctx context.Context, lat, lng float64, unit tour.Unit) ([]tour.Distance, error) {
	return tour.Distances(r.All(), lat, lng, unit), nil
}

func (r *ToursRepo) Stats(ctx context.Context) ([]tour.DifficultyStats, error) {
	return tour.Stats(r.All()), nil
}

func (r *ToursRepo) MonthlyPlan(ctx context.Context, year int) ([]tour.MonthPlan, error) {
	plan := tour.MonthlyPlan(r.All(), year)
	if len(plan) > 12 {
		plan = plan[:12]
	}
	return plan, nil
}
