package memory

import (
	"time"

	"github.com/geocoder89/tourhub/internal/domain/booking"
)

type BookingsRepo struct {
	*Store[booking.Booking, booking.CreateRequest, booking.UpdateRequest]
	refs *references
}

func NewBookingsRepo() *BookingsRepo {
	r := &BookingsRepo{}
	r.Store = NewStore(StoreConfig[booking.Booking, booking.CreateRequest, booking.UpdateRequest]{
		NotFound:   booking.ErrNotFound,
		ID:         func(b booking.Booking) string { return b.ID },
		Build:      booking.NewFromCreateRequest,
		Apply:      func(b *booking.Booking, req booking.UpdateRequest, _ time.Time) { booking.ApplyUpdate(b, req) },
		Validate:   booking.Booking.Validate,
		References: func(b booking.Booking) error { return r.refs.check(b.TourID, b.UserID) },
	})
	return r
}
