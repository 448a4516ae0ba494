package ratings

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviews struct {
	rows map[string]review.Review
	next int
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{rows: map[string]review.Review{}}
}

func (f *fakeReviews) ReviewStats(ctx context.Context, tourID string) (int, float64, error) {
	n, sum := 0, 0.0
	for _, r := range f.rows {
		if r.TourID == tourID {
			n++
			sum += r.Rating
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return n, sum / float64(n), nil
}

func (f *fakeReviews) Count(ctx context.Context, spec query.Spec) (int, error) { return len(f.rows), nil }
func (f *fakeReviews) Find(ctx context.Context, spec query.Spec) ([]review.Review, error) {
	return nil, nil
}

func (f *fakeReviews) GetByID(ctx context.Context, id string) (review.Review, error) {
	r, ok := f.rows[id]
	if !ok {
		return review.Review{}, review.ErrNotFound
	}
	return r, nil
}

func (f *fakeReviews) Create(ctx context.Context, req review.CreateRequest) (review.Review, error) {
	f.next++
	r := review.Review{ID: string(rune('a' + f.next)), Review: req.Review, Rating: req.Rating, TourID: req.TourID, UserID: req.UserID}
	f.rows[r.ID] = r
	return r, nil
}

func (f *fakeReviews) Update(ctx context.Context, id string, req review.UpdateRequest) (review.Review, error) {
	r, ok := f.rows[id]
	if !ok {
		return review.Review{}, review.ErrNotFound
	}
	review.ApplyUpdate(&r, req)
	f.rows[id] = r
	return r, nil
}

func (f *fakeReviews) Delete(ctx context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return review.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type ratingsCall struct {
	avg float64
	qty int
}

type fakeTours struct {
	set map[string]ratingsCall
	err error
}

func (f *fakeTours) SetRatings(ctx context.Context, tourID string, avg float64, qty int) error {
	if f.err != nil {
		return f.err
	}
	f.set[tourID] = ratingsCall{avg: avg, qty: qty}
	return nil
}

func TestStoreRecomputesAfterEveryWrite(t *testing.T) {
	ctx := context.Background()
	reviews := newFakeReviews()
	tours := &fakeTours{set: map[string]ratingsCall{}}

	changes := 0
	s := NewStore(reviews, NewReconciler(reviews, tours, nil, func() { changes++ }))

	r1, err := s.Create(ctx, review.CreateRequest{Review: "great", Rating: 5, TourID: "t1", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, ratingsCall{avg: 5, qty: 1}, tours.set["t1"])

	_, err = s.Create(ctx, review.CreateRequest{Review: "fine", Rating: 4, TourID: "t1", UserID: "u2"})
	require.NoError(t, err)
	_, err = s.Create(ctx, review.CreateRequest{Review: "meh", Rating: 4, TourID: "t1", UserID: "u3"})
	require.NoError(t, err)
	// 13/3 = 4.333.. rounds to one decimal
	assert.Equal(t, ratingsCall{avg: 4.3, qty: 3}, tours.set["t1"])

	low := 1.0
	_, err = s.Update(ctx, r1.ID, review.UpdateRequest{Rating: &low})
	require.NoError(t, err)
	assert.Equal(t, ratingsCall{avg: 3, qty: 3}, tours.set["t1"])

	for id := range reviews.rows {
		require.NoError(t, s.Delete(ctx, id))
	}
	assert.Equal(t, ratingsCall{avg: 4.5, qty: 0}, tours.set["t1"], "no reviews resets to the default")
	assert.Equal(t, 7, changes)
}

func TestStoreDeleteMissingReview(t *testing.T) {
	tours := &fakeTours{set: map[string]ratingsCall{}}
	reviews := newFakeReviews()
	s := NewStore(reviews, NewReconciler(reviews, tours, nil, nil))

	err := s.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, review.ErrNotFound)
	assert.Empty(t, tours.set)
}

func TestRecomputeWrapsFailures(t *testing.T) {
	boom := errors.New("db down")
	reviews := newFakeReviews()
	rec := NewReconciler(reviews, &fakeTours{err: boom}, nil, nil)

	err := rec.Recompute(context.Background(), "t1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "t1")
}
