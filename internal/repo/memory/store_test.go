package memory

import (
	"context"
	"net/url"
	"testing"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/booking"
	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTour(name string, price float64) tour.CreateRequest {
	return tour.CreateRequest{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 10,
		Difficulty:   tour.Easy,
		Price:        price,
		Summary:      "A tour",
		ImageCover:   "cover.jpg",
	}
}

func TestToursFindUsesQuerySpec(t *testing.T) {
	ctx := context.Background()
	tours := NewToursRepo(NewReviewsRepo())

	for i, name := range []string{"The Forest Hiker", "The Sea Explorer", "The Snow Adventurer"} {
		_, err := tours.Create(ctx, newTour(name, float64(100*(i+1))))
		require.NoError(t, err)
	}

	spec, err := query.Parse(url.Values{"price[gte]": {"200"}, "sort": {"-price"}}, tour.QueryOptions)
	require.NoError(t, err)

	n, err := tours.Count(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := tours.Find(ctx, spec)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "The Snow Adventurer", got[0].Name)
	assert.Equal(t, "The Sea Explorer", got[1].Name)
}

func TestToursUniqueNameAndValidation(t *testing.T) {
	ctx := context.Background()
	tours := NewToursRepo(nil)

	created, err := tours.Create(ctx, newTour("The Forest Hiker", 300))
	require.NoError(t, err)

	_, err = tours.Create(ctx, newTour("The Forest Hiker", 100))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "duplicate name is a validation error, got %v", err)

	discount := 500.0
	_, err = tours.Update(ctx, created.ID, tour.UpdateRequest{PriceDiscount: &discount})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "discount above price must fail, got %v", err)

	stored, err := tours.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PriceDiscount, "a failed update must not be stored")
}

func TestMissingIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	tours := NewToursRepo(nil)

	_, err := tours.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, tour.ErrNotFound)

	name := "The Missing Tour"
	_, err = tours.Update(ctx, "nope", tour.UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, tour.ErrNotFound)

	assert.ErrorIs(t, tours.Delete(ctx, "nope"), tour.ErrNotFound)
}

func TestInactiveUsersAreInvisible(t *testing.T) {
	ctx := context.Background()
	users := NewUsersRepo()

	u, err := users.Create(ctx, user.CreateRequest{Name: "Ada", Email: "Ada@Example.com ", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	got, err := users.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got.Active = false
	require.NoError(t, users.Save(ctx, got))

	_, err = users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
	_, err = users.GetByEmail(ctx, u.Email)
	assert.ErrorIs(t, err, user.ErrNotFound)

	// the email stays taken
	_, err = users.Create(ctx, user.CreateRequest{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestReviewsOnePerUserAndTour(t *testing.T) {
	ctx := context.Background()
	reviews := NewReviewsRepo()

	req := review.CreateRequest{Review: "Great", Rating: 5, TourID: "t1", UserID: "u1"}
	_, err := reviews.Create(ctx, req)
	require.NoError(t, err)

	_, err = reviews.Create(ctx, req)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	req.UserID = "u2"
	req.Rating = 4
	_, err = reviews.Create(ctx, req)
	require.NoError(t, err)

	n, avg, err := reviews.ReviewStats(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 4.5, avg, 1e-9)
}

func TestStoresCheckReferencesAndCascade(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.Users.Create(ctx, user.CreateRequest{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	tr, err := s.Tours.Create(ctx, newTour("The Forest Hiker", 300))
	require.NoError(t, err)

	_, err = s.Reviews.Create(ctx, review.CreateRequest{Review: "Great", Rating: 5, TourID: "missing", UserID: u.ID})
	require.Error(t, err)
	assert.Equal(t, "invalid_reference", apperr.Normalize(err).Code)
	assert.Empty(t, s.Reviews.All(), "a rejected review must not be stored")

	_, err = s.Bookings.Create(ctx, booking.CreateRequest{TourID: tr.ID, UserID: "missing", Price: 300})
	require.Error(t, err)
	assert.Equal(t, "invalid_reference", apperr.Normalize(err).Code)
	assert.Empty(t, s.Bookings.All())

	_, err = s.Reviews.Create(ctx, review.CreateRequest{Review: "Great", Rating: 5, TourID: tr.ID, UserID: u.ID})
	require.NoError(t, err)
	_, err = s.Bookings.Create(ctx, booking.CreateRequest{TourID: tr.ID, UserID: u.ID, Price: 300})
	require.NoError(t, err)

	require.NoError(t, s.Tours.Delete(ctx, tr.ID))
	assert.Empty(t, s.Reviews.All())
	assert.Empty(t, s.Bookings.All())
}

func TestDeletingUserRemovesTheirReviews(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.Users.Create(ctx, user.CreateRequest{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	tr, err := s.Tours.Create(ctx, newTour("The Sea Explorer", 400))
	require.NoError(t, err)
	_, err = s.Reviews.Create(ctx, review.CreateRequest{Review: "Fine", Rating: 4, TourID: tr.ID, UserID: u.ID})
	require.NoError(t, err)

	require.NoError(t, s.Users.Delete(ctx, u.ID))
	assert.Empty(t, s.Reviews.All())

	_, err = s.Tours.GetByID(ctx, tr.ID)
	assert.NoError(t, err, "the tour outlives its reviewers")
}
