package tour

import (
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/google/uuid"
)

type Difficulty string

const (
	Easy      Difficulty = "easy"
	Medium    Difficulty = "medium"
	Difficult Difficulty = "difficult"
)

func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Difficult:
		return true
	default:
		return false
	}
}

const (
	DefaultRatingsAverage = 4.5
	nameMin               = 10
	nameMax               = 40
)

var ErrNotFound = apperr.NotFound("tour_not_found", "No tour found with that ID")

// Point is a GeoJSON point; Coordinates are [lng, lat].
type Point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates" binding:"len=2"`
	Address     string    `json:"address,omitempty"`
	Description string    `json:"description,omitempty"`
	Day         int       `json:"day,omitempty"`
}

func (p Point) LngLat() (float64, float64, bool) {
	if len(p.Coordinates) != 2 {
		return 0, 0, false
	}
	return p.Coordinates[0], p.Coordinates[1], true
}

type Tour struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      Difficulty  `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images"`
	StartDates      []time.Time `json:"startDates"`
	StartLocation   *Point      `json:"startLocation,omitempty"`
	Locations       []Point     `json:"locations"`
	Guides          []string    `json:"guides"`
	DurationWeeks   float64     `json:"durationWeeks"`
	CreatedAt       time.Time   `json:"createdAt"`

	Reviews []review.Review `json:"reviews,omitempty"`
}

// Derive fills computed fields after a load or a write.
func (t *Tour) Derive() {
	t.DurationWeeks = float64(t.Duration) / 7
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Locations == nil {
		t.Locations = []Point{}
	}
	if t.Guides == nil {
		t.Guides = []string{}
	}
}

type CreateRequest struct {
	Name          string      `json:"name" binding:"required,min=10,max=40"`
	Duration      int         `json:"duration" binding:"required,min=1"`
	MaxGroupSize  int         `json:"maxGroupSize" binding:"required,min=1"`
	Difficulty    Difficulty  `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	Price         float64     `json:"price" binding:"required,gt=0"`
	PriceDiscount *float64    `json:"priceDiscount" binding:"omitempty,gte=0"`
	Summary       string      `json:"summary" binding:"required,max=500"`
	Description   string      `json:"description" binding:"omitempty,max=5000"`
	ImageCover    string      `json:"imageCover" binding:"required,max=255"`
	Images        []string    `json:"images" binding:"omitempty,dive,max=255"`
	StartDates    []time.Time `json:"startDates"`
	StartLocation *Point      `json:"startLocation"`
	Locations     []Point     `json:"locations" binding:"omitempty,dive"`
	Guides        []string    `json:"guides" binding:"omitempty,dive,uuid"`
}

func (r CreateRequest) Validate() error {
	return validateDiscount(r.Price, r.PriceDiscount)
}

type UpdateRequest struct {
	Name          *string      `json:"name" binding:"omitempty,min=10,max=40"`
	Duration      *int         `json:"duration" binding:"omitempty,min=1"`
	MaxGroupSize  *int         `json:"maxGroupSize" binding:"omitempty,min=1"`
	Difficulty    *Difficulty  `json:"difficulty" binding:"omitempty,oneof=easy medium difficult"`
	Price         *float64     `json:"price" binding:"omitempty,gt=0"`
	PriceDiscount *float64     `json:"priceDiscount" binding:"omitempty,gte=0"`
	Summary       *string      `json:"summary" binding:"omitempty,max=500"`
	Description   *string      `json:"description" binding:"omitempty,max=5000"`
	ImageCover    *string      `json:"imageCover" binding:"omitempty,max=255"`
	Images        *[]string    `json:"images"`
	StartDates    *[]time.Time `json:"startDates"`
	StartLocation *Point       `json:"startLocation"`
	Locations     *[]Point     `json:"locations"`
	Guides        *[]string    `json:"guides" binding:"omitempty,dive,uuid"`
}

func NewFromCreateRequest(req CreateRequest, now time.Time) Tour {
	t := Tour{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Duration:       req.Duration,
		MaxGroupSize:   req.MaxGroupSize,
		Difficulty:     req.Difficulty,
		RatingsAverage: DefaultRatingsAverage,
		Price:          req.Price,
		PriceDiscount:  req.PriceDiscount,
		Summary:        strings.TrimSpace(req.Summary),
		Description:    strings.TrimSpace(req.Description),
		ImageCover:     strings.TrimSpace(req.ImageCover),
		Images:         req.Images,
		StartDates:     utcDates(req.StartDates),
		StartLocation:  normalizePoint(req.StartLocation),
		Locations:      normalizePoints(req.Locations),
		Guides:         req.Guides,
		CreatedAt:      now.UTC(),
	}
	t.Derive()
	return t
}

func ApplyUpdate(t *Tour, req UpdateRequest) {
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Duration != nil {
		t.Duration = *req.Duration
	}
	if req.MaxGroupSize != nil {
		t.MaxGroupSize = *req.MaxGroupSize
	}
	if req.Difficulty != nil {
		t.Difficulty = *req.Difficulty
	}
	if req.Price != nil {
		t.Price = *req.Price
	}
	if req.PriceDiscount != nil {
		t.PriceDiscount = req.PriceDiscount
	}
	if req.Summary != nil {
		t.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.ImageCover != nil {
		t.ImageCover = strings.TrimSpace(*req.ImageCover)
	}
	if req.Images != nil {
		t.Images = *req.Images
	}
	if req.StartDates != nil {
		t.StartDates = utcDates(*req.StartDates)
	}
	if req.StartLocation != nil {
		t.StartLocation = normalizePoint(req.StartLocation)
	}
	if req.Locations != nil {
		t.Locations = normalizePoints(*req.Locations)
	}
	if req.Guides != nil {
		t.Guides = *req.Guides
	}
	t.Derive()
}

// Validate re-checks the merged record; partial updates can break rules that
// span fields.
func (t Tour) Validate() error {
	if n := len([]rune(t.Name)); n < nameMin || n > nameMax {
		return apperr.Validation("validation_error", "A tour name must have between 10 and 40 characters.", nil)
	}
	if !t.Difficulty.Valid() {
		return apperr.Validation("validation_error", "Difficulty is either: easy, medium, difficult.", nil)
	}
	if t.RatingsAverage < 1 || t.RatingsAverage > 5 {
		return apperr.Validation("validation_error", "Rating must be between 1 and 5.", nil)
	}
	return validateDiscount(t.Price, t.PriceDiscount)
}

func validateDiscount(price float64, discount *float64) error {
	if discount != nil && *discount >= price {
		return apperr.Validation("validation_error", "Discount price should be below regular price.", map[string]interface{}{
			"priceDiscount": *discount,
			"price":         price,
		})
	}
	return nil
}

func normalizePoint(p *Point) *Point {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Type = "Point"
	return &cp
}

func normalizePoints(in []Point) []Point {
	out := make([]Point, 0, len(in))
	for _, p := range in {
		p.Type = "Point"
		out = append(out, p)
	}
	return out
}

func utcDates(in []time.Time) []time.Time {
	out := make([]time.Time, 0, len(in))
	for _, d := range in {
		out = append(out, d.UTC())
	}
	return out
}

var Schema = query.Schema{
	"id":              {Column: "id", Kind: query.KindUUID},
	"name":            {Column: "name", Kind: query.KindText},
	"duration":        {Column: "duration", Kind: query.KindInt},
	"maxGroupSize":    {Column: "max_group_size", Kind: query.KindInt},
	"difficulty":      {Column: "difficulty", Kind: query.KindText},
	"ratingsAverage":  {Column: "ratings_average", Kind: query.KindNumber},
	"ratingsQuantity": {Column: "ratings_quantity", Kind: query.KindInt},
	"price":           {Column: "price", Kind: query.KindNumber},
	"priceDiscount":   {Column: "price_discount", Kind: query.KindNumber},
	"createdAt":       {Column: "created_at", Kind: query.KindTime},
	"summary":         {Column: "summary", Kind: query.KindOpaque},
	"description":     {Column: "description", Kind: query.KindOpaque},
	"imageCover":      {Column: "image_cover", Kind: query.KindOpaque},
	"images":          {Column: "images", Kind: query.KindOpaque},
	"startDates":      {Column: "start_dates", Kind: query.KindOpaque},
	"startLocation":   {Column: "start_location", Kind: query.KindOpaque},
	"locations":       {Column: "locations", Kind: query.KindOpaque},
	"guides":          {Column: "guides", Kind: query.KindOpaque},
	"durationWeeks":   {Column: "duration", Kind: query.KindOpaque},
}

var QueryOptions = query.Options{
	Schema:      Schema,
	DefaultSort: []query.SortKey{{Field: "createdAt", Desc: true}},
}
