package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/cache"
	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/gin-gonic/gin"
)

// TourQueries are the read models beyond plain CRUD.
type TourQueries interface {
	Reviews(ctx context.Context, tourID string) ([]review.Review, error)
	Within(ctx context.Context, lat, lng, radius float64) ([]tour.Tour, error)
	Distances(ctx context.Context, lat, lng float64, unit tour.Unit) ([]tour.Distance, error)
	Stats(ctx context.Context) ([]tour.DifficultyStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]tour.MonthPlan, error)
}

const (
	statsCacheKey      = "tours:stats"
	monthlyCachePrefix = "tours:monthly:"
)

type ToursHandler struct {
	tours TourQueries
	cache *cache.Cache
}

func NewToursHandler(tours TourQueries, c *cache.Cache) *ToursHandler {
	return &ToursHandler{tours: tours, cache: c}
}

// InvalidateCache drops every cached aggregate. Tour and review writes call it.
func (h *ToursHandler) InvalidateCache() {
	if h.cache != nil {
		h.cache.Clear()
	}
}

// AliasTopCheap rewrites the query to the five best rated, cheapest tours
// and hands over to the list handler.
func AliasTopCheap() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		q := ctx.Request.URL.Query()
		q.Set("limit", "5")
		q.Set("sort", "-ratingsAverage,price")
		q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
		ctx.Request.URL.RawQuery = q.Encode()
		ctx.Next()
	}
}

// ExpandReviews attaches a tour's reviews for single-tour reads.
func (h *ToursHandler) ExpandReviews(ctx context.Context, t *tour.Tour) error {
	reviews, err := h.tours.Reviews(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Reviews = reviews
	return nil
}

func (h *ToursHandler) Stats(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := cache.Remember(h.cache, statsCacheKey, func() ([]tour.DifficultyStats, error) {
		return h.tours.Stats(cctx)
	})
	if err != nil {
		Fail(ctx, err)
		return
	}
	RespondSuccessWithETag(ctx, http.StatusOK, gin.H{"stats": stats})
}

func (h *ToursHandler) MonthlyPlan(ctx *gin.Context) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil || year < 1970 || year > 9999 {
		Fail(ctx, apperr.Validation("invalid_year", "Year must be a four digit number.", nil))
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	plan, err := cache.Remember(h.cache, monthlyCachePrefix+strconv.Itoa(year), func() ([]tour.MonthPlan, error) {
		return h.tours.MonthlyPlan(cctx, year)
	})
	if err != nil {
		Fail(ctx, err)
		return
	}
	RespondSuccessWithETag(ctx, http.StatusOK, gin.H{"plan": plan})
}

// Within serves /tours-within/:distance/center/:latlng/unit/:unit.
func (h *ToursHandler) Within(ctx *gin.Context) {
	distance, err := strconv.ParseFloat(ctx.Param("distance"), 64)
	if err != nil || distance <= 0 {
		Fail(ctx, apperr.Validation("invalid_distance", "Distance must be a positive number.", nil))
		return
	}
	lat, lng, err := tour.ParseLatLng(ctx.Param("latlng"))
	if err != nil {
		Fail(ctx, err)
		return
	}
	unit, err := tour.ParseUnit(ctx.Param("unit"))
	if err != nil {
		Fail(ctx, err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	tours, err := h.tours.Within(cctx, lat, lng, tour.RadiusRadians(distance, unit))
	if err != nil {
		Fail(ctx, err)
		return
	}
	RespondList(ctx, len(tours), tours)
}

// Distances serves /distances/:latlng/unit/:unit.
func (h *ToursHandler) Distances(ctx *gin.Context) {
	lat, lng, err := tour.ParseLatLng(ctx.Param("latlng"))
	if err != nil {
		Fail(ctx, err)
		return
	}
	unit, err := tour.ParseUnit(ctx.Param("unit"))
	if err != nil {
		Fail(ctx, err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	distances, err := h.tours.Distances(cctx, lat, lng, unit)
	if err != nil {
		Fail(ctx, err)
		return
	}
	RespondSuccess(ctx, http.StatusOK, distances)
}
