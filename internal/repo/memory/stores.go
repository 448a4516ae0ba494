package memory

import (
	"context"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/booking"
	"github.com/geocoder89/tourhub/internal/domain/review"
)

// Stores is a full in-memory dataset. Reviews and bookings are checked
// against their tour and user on insert, and deleting a tour or a user
// removes what points at it, as the postgres foreign keys do.
type Stores struct {
	Users    *UsersRepo
	Tours    *ToursRepo
	Reviews  *ReviewsRepo
	Bookings *BookingsRepo
}

func New() *Stores {
	users := NewUsersRepo()
	reviews := NewReviewsRepo()
	bookings := NewBookingsRepo()
	tours := NewToursRepo(reviews)

	refs := &references{tours: tours, users: users}
	reviews.refs = refs
	bookings.refs = refs

	deps := dependents{reviews: reviews, bookings: bookings}
	tours.dependents = deps
	users.dependents = deps

	return &Stores{Users: users, Tours: tours, Reviews: reviews, Bookings: bookings}
}

type existence interface {
	Exists(id string) bool
}

type references struct {
	tours existence
	users existence
}

// check is a no-op on a nil receiver so standalone repos skip it.
func (r *references) check(tourID, userID string) error {
	if r == nil {
		return nil
	}
	if !r.tours.Exists(tourID) {
		return invalidReference("tour")
	}
	if !r.users.Exists(userID) {
		return invalidReference("user")
	}
	return nil
}

func invalidReference(field string) error {
	return apperr.Validation("invalid_reference", "Referenced record does not exist.", map[string]string{"field": field})
}

// dependents are the records removed along with a tour or a user.
type dependents struct {
	reviews  *ReviewsRepo
	bookings *BookingsRepo
}

func (d dependents) removeTour(id string) {
	if d.reviews != nil {
		d.reviews.DeleteWhere(func(rv review.Review) bool { return rv.TourID == id })
	}
	if d.bookings != nil {
		d.bookings.DeleteWhere(func(b booking.Booking) bool { return b.TourID == id })
	}
}

func (d dependents) removeUser(id string) {
	if d.reviews != nil {
		d.reviews.DeleteWhere(func(rv review.Review) bool { return rv.UserID == id })
	}
	if d.bookings != nil {
		d.bookings.DeleteWhere(func(b booking.Booking) bool { return b.UserID == id })
	}
}

func (r *ToursRepo) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, id); err != nil {
		return err
	}
	r.dependents.removeTour(id)
	return nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	if err := r.Store.Delete(ctx, id); err != nil {
		return err
	}
	r.dependents.removeUser(id)
	return nil
}
