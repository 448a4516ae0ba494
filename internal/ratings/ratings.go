// Package ratings keeps a tour's ratingsAverage and ratingsQuantity in step
// with its reviews. Every review write goes through Store, which recomputes
// the aggregate for the affected tour once the write has committed.
package ratings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/geocoder89/tourhub/internal/query"
)

// Stats aggregates the reviews of one tour.
type Stats interface {
	ReviewStats(ctx context.Context, tourID string) (count int, avg float64, err error)
}

// TourRatings persists the aggregate on the tour.
type TourRatings interface {
	SetRatings(ctx context.Context, tourID string, avg float64, qty int) error
}

type Reconciler struct {
	stats    Stats
	tours    TourRatings
	log      *slog.Logger
	onChange func()
}

// NewReconciler builds a reconciler. onChange, when set, runs after every
// successful recompute (the tour-stats cache uses it).
func NewReconciler(stats Stats, tours TourRatings, log *slog.Logger, onChange func()) *Reconciler {
	return &Reconciler{stats: stats, tours: tours, log: log, onChange: onChange}
}

// Recompute reads the review aggregate for tourID and writes it to the tour.
// A tour with no reviews goes back to the default rating.
func (r *Reconciler) Recompute(ctx context.Context, tourID string) error {
	count, avg, err := r.stats.ReviewStats(ctx, tourID)
	if err != nil {
		return fmt.Errorf("review stats for tour %s: %w", tourID, err)
	}

	if count == 0 {
		avg = tour.DefaultRatingsAverage
	} else {
		avg = review.RoundRating(avg)
	}

	if err := r.tours.SetRatings(ctx, tourID, avg, count); err != nil {
		return fmt.Errorf("set ratings for tour %s: %w", tourID, err)
	}

	if r.log != nil {
		r.log.DebugContext(ctx, "ratings.recomputed", "tour_id", tourID, "avg", avg, "qty", count)
	}
	if r.onChange != nil {
		r.onChange()
	}
	return nil
}

// ReviewStore is the review persistence the handlers use.
type ReviewStore interface {
	Count(ctx context.Context, spec query.Spec) (int, error)
	Find(ctx context.Context, spec query.Spec) ([]review.Review, error)
	GetByID(ctx context.Context, id string) (review.Review, error)
	Create(ctx context.Context, req review.CreateRequest) (review.Review, error)
	Update(ctx context.Context, id string, req review.UpdateRequest) (review.Review, error)
	Delete(ctx context.Context, id string) error
}

// Store wraps a ReviewStore and recomputes the tour aggregate after each
// write. Reads pass straight through.
type Store struct {
	ReviewStore
	rec *Reconciler
}

func NewStore(inner ReviewStore, rec *Reconciler) *Store {
	return &Store{ReviewStore: inner, rec: rec}
}

func (s *Store) Create(ctx context.Context, req review.CreateRequest) (review.Review, error) {
	rv, err := s.ReviewStore.Create(ctx, req)
	if err != nil {
		return review.Review{}, err
	}
	if err := s.rec.Recompute(ctx, rv.TourID); err != nil {
		return review.Review{}, err
	}
	return rv, nil
}

func (s *Store) Update(ctx context.Context, id string, req review.UpdateRequest) (review.Review, error) {
	rv, err := s.ReviewStore.Update(ctx, id, req)
	if err != nil {
		return review.Review{}, err
	}
	if err := s.rec.Recompute(ctx, rv.TourID); err != nil {
		return review.Review{}, err
	}
	return rv, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	// the tour id is gone once the row is
	rv, err := s.ReviewStore.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ReviewStore.Delete(ctx, id); err != nil {
		return err
	}
	return s.rec.Recompute(ctx, rv.TourID)
}
