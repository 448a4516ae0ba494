// Package payments creates hosted checkout sessions for tour bookings.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrNotConfigured = errors.New("payment gateway not configured")

// CheckoutRequest is what the booking handler knows about a purchase.
type CheckoutRequest struct {
	TourID        string
	TourName      string
	Summary       string
	ImageURL      string
	Price         float64 // dollars
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Gateway returns an opaque session the handler passes through unchanged.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (any, error)
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (any, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(req.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(Cents(req.Price)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.TourName + " Tour"),
						Description: stripe.String(req.Summary),
						Images:      stripe.StringSlice(imagesOf(req.ImageURL)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return sess, nil
}

// Cents converts a dollar price to the smallest currency unit.
func Cents(price float64) int64 {
	return int64(math.Round(price * 100))
}

func imagesOf(url string) []string {
	if url == "" {
		return []string{}
	}
	return []string{url}
}

// Disabled is used when no secret key is configured.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (any, error) {
	return nil, ErrNotConfigured
}
