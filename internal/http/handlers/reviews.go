package handlers

import (
	"context"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/gin-gonic/gin"
)

// tourParam is the tour id on the nested /tours/:id/reviews routes. It has
// to share the name of the /tours/:id wildcard.
const tourParam = "id"

// ReviewScope narrows a list to one tour on the nested route and does
// nothing on /reviews.
func ReviewScope(ctx *gin.Context) ([]query.Predicate, error) {
	tourID := ctx.Param(tourParam)
	if tourID == "" {
		return nil, nil
	}
	p, err := review.Schema.Predicate("tour", query.OpEq, tourID)
	if err != nil {
		// a malformed id names no tour
		return nil, tour.ErrNotFound
	}
	return []query.Predicate{p}, nil
}

// PrepareReview takes the tour from the nested route and the author from the
// principal. Only admins may post on someone else's behalf.
func PrepareReview(ctx *gin.Context, req *review.CreateRequest) error {
	if req.TourID == "" {
		req.TourID = ctx.Param(tourParam)
	}

	principal, ok := middlewares.CurrentUser(ctx)
	if !ok {
		return errNotLoggedIn
	}
	if req.UserID == "" || principal.Role != user.RoleAdmin {
		req.UserID = principal.ID
	}
	return nil
}

type ReviewGetter interface {
	GetByID(ctx context.Context, id string) (review.Review, error)
}

var errNotAuthor = apperr.Forbidden("You can only change your own reviews")

// RequireReviewAuthor lets a user change only reviews they wrote. Admins
// pass regardless.
func RequireReviewAuthor(reviews ReviewGetter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, ok := middlewares.CurrentUser(ctx)
		if !ok {
			Fail(ctx, errNotLoggedIn)
			return
		}
		if principal.Role == user.RoleAdmin {
			ctx.Next()
			return
		}

		rv, err := reviews.GetByID(ctx.Request.Context(), ctx.Param("id"))
		if err != nil {
			Fail(ctx, err)
			return
		}
		if rv.UserID != principal.ID {
			Fail(ctx, errNotAuthor)
			return
		}
		ctx.Next()
	}
}
