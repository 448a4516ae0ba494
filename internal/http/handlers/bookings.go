package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/geocoder89/tourhub/internal/payments"
	"github.com/gin-gonic/gin"
)

type TourGetter interface {
	GetByID(ctx context.Context, id string) (tour.Tour, error)
}

const paymentsUnavailable = "Payments are not available right now."

type BookingsHandler struct {
	tours   TourGetter
	gateway payments.Gateway
	appURL  string
}

func NewBookingsHandler(tours TourGetter, gateway payments.Gateway, appURL string) *BookingsHandler {
	return &BookingsHandler{tours: tours, gateway: gateway, appURL: appURL}
}

// CheckoutSession opens a hosted payment page for one tour and returns the
// gateway session as is.
func (h *BookingsHandler) CheckoutSession(ctx *gin.Context) {
	principal, ok := middlewares.CurrentUser(ctx)
	if !ok {
		Fail(ctx, errNotLoggedIn)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	t, err := h.tours.GetByID(cctx, ctx.Param("tourId"))
	if err != nil {
		Fail(ctx, err)
		return
	}

	success := url.Values{}
	success.Set("tour", t.ID)
	success.Set("user", principal.ID)
	success.Set("price", strconv.FormatFloat(t.Price, 'f', -1, 64))

	sess, err := h.gateway.CreateCheckoutSession(cctx, payments.CheckoutRequest{
		TourID:        t.ID,
		TourName:      t.Name,
		Summary:       t.Summary,
		ImageURL:      fmt.Sprintf("%s/img/tours/%s", h.appURL, t.ImageCover),
		Price:         t.Price,
		CustomerEmail: principal.Email,
		SuccessURL:    h.appURL + "/my-tours?" + success.Encode(),
		CancelURL:     h.appURL + "/tours/" + t.ID,
	})
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			Fail(ctx, apperr.Failed("payments_unavailable", paymentsUnavailable, err))
			return
		}
		Fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "session": sess})
}
