package booking

import (
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/google/uuid"
)

var ErrNotFound = apperr.NotFound("booking_not_found", "No booking found with that ID")

type Booking struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tour"`
	UserID    string    `json:"user"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRequest struct {
	TourID string  `json:"tour" binding:"required,uuid"`
	UserID string  `json:"user" binding:"required,uuid"`
	Price  float64 `json:"price" binding:"required,gt=0"`
	Paid   *bool   `json:"paid"`
}

type UpdateRequest struct {
	Price *float64 `json:"price" binding:"omitempty,gt=0"`
	Paid  *bool    `json:"paid"`
}

func NewFromCreateRequest(req CreateRequest, now time.Time) Booking {
	paid := true
	if req.Paid != nil {
		paid = *req.Paid
	}

	return Booking{
		ID:        uuid.NewString(),
		TourID:    req.TourID,
		UserID:    req.UserID,
		Price:     req.Price,
		Paid:      paid,
		CreatedAt: now.UTC(),
	}
}

func ApplyUpdate(b *Booking, req UpdateRequest) {
	if req.Price != nil {
		b.Price = *req.Price
	}
	if req.Paid != nil {
		b.Paid = *req.Paid
	}
}

func (b Booking) Validate() error {
	if b.Price <= 0 {
		return apperr.Validation("validation_error", "Booking must have a price.", nil)
	}
	return nil
}

var Schema = query.Schema{
	"id":        {Column: "id", Kind: query.KindUUID},
	"tour":      {Column: "tour_id", Kind: query.KindUUID},
	"user":      {Column: "user_id", Kind: query.KindUUID},
	"price":     {Column: "price", Kind: query.KindNumber},
	"paid":      {Column: "paid", Kind: query.KindBool},
	"createdAt": {Column: "created_at", Kind: query.KindTime},
}

var QueryOptions = query.Options{
	Schema:      Schema,
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}},
}
