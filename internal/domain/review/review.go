package review

import (
	"math"
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/google/uuid"
)

var ErrNotFound = apperr.NotFound("review_not_found", "No review found with that ID")

type Review struct {
	ID        string    `json:"id"`
	Review    string    `json:"review"`
	Rating    float64   `json:"rating"`
	TourID    string    `json:"tour"`
	UserID    string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// TourID and UserID may be omitted from the body; nested routes and the
// authenticated principal fill them in.
type CreateRequest struct {
	Review string  `json:"review" binding:"required,min=1,max=2000"`
	Rating float64 `json:"rating" binding:"required,min=1,max=5"`
	TourID string  `json:"tour" binding:"omitempty,uuid"`
	UserID string  `json:"user" binding:"omitempty,uuid"`
}

type UpdateRequest struct {
	Review *string  `json:"review" binding:"omitempty,min=1,max=2000"`
	Rating *float64 `json:"rating" binding:"omitempty,min=1,max=5"`
}

func (r CreateRequest) Validate() error {
	if r.TourID == "" {
		return apperr.Validation("validation_error", "Review must belong to a tour.", nil)
	}
	if r.UserID == "" {
		return apperr.Validation("validation_error", "Review must belong to a user.", nil)
	}
	return nil
}

// RoundRating keeps one decimal.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

func NewFromCreateRequest(req CreateRequest, now time.Time) Review {
	return Review{
		ID:        uuid.NewString(),
		Review:    strings.TrimSpace(req.Review),
		Rating:    RoundRating(req.Rating),
		TourID:    req.TourID,
		UserID:    req.UserID,
		CreatedAt: now.UTC(),
	}
}

func ApplyUpdate(r *Review, req UpdateRequest) {
	if req.Review != nil {
		r.Review = strings.TrimSpace(*req.Review)
	}
	if req.Rating != nil {
		r.Rating = RoundRating(*req.Rating)
	}
}

func (r Review) Validate() error {
	if r.Review == "" {
		return apperr.Validation("validation_error", "Please provide a review.", nil)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return apperr.Validation("validation_error", "Rating must be between 1 and 5.", nil)
	}
	return nil
}

var Schema = query.Schema{
	"id":        {Column: "id", Kind: query.KindUUID},
	"review":    {Column: "review", Kind: query.KindOpaque},
	"rating":    {Column: "rating", Kind: query.KindNumber},
	"tour":      {Column: "tour_id", Kind: query.KindUUID},
	"user":      {Column: "user_id", Kind: query.KindUUID},
	"createdAt": {Column: "created_at", Kind: query.KindTime},
}

var QueryOptions = query.Options{
	Schema:      Schema,
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}},
}
