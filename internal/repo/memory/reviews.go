package memory

import (
	"context"
	"time"

	"github.com/geocoder89/tourhub/internal/domain/review"
)

type ReviewsRepo struct {
	*Store[review.Review, review.CreateRequest, review.UpdateRequest]
	refs *references
}

// NewReviewsRepo builds a standalone review store. Tour and user references
// are only checked when it is part of New.
func NewReviewsRepo() *ReviewsRepo {
	r := &ReviewsRepo{}
	r.Store = NewStore(StoreConfig[review.Review, review.CreateRequest, review.UpdateRequest]{
		NotFound: review.ErrNotFound,
		ID:       func(rv review.Review) string { return rv.ID },
		Build:    review.NewFromCreateRequest,
		Apply:    func(rv *review.Review, req review.UpdateRequest, _ time.Time) { review.ApplyUpdate(rv, req) },
		Validate: review.Review.Validate,
		// one review per user and tour
		Unique: func(existing, candidate review.Review) (Conflict, bool) {
			if existing.TourID == candidate.TourID && existing.UserID == candidate.UserID {
				return Conflict{Field: "tour,user", Value: candidate.TourID + ", " + candidate.UserID}, true
			}
			return Conflict{}, false
		},
		References: func(rv review.Review) error { return r.refs.check(rv.TourID, rv.UserID) },
	})
	return r
}

func (r *ReviewsRepo) ReviewStats(ctx context.Context, tourID string) (int, float64, error) {
	n, sum := 0, 0.0
	for _, rv := range r.All() {
		if rv.TourID == tourID {
			n++
			sum += rv.Rating
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return n, sum / float64(n), nil
}
