package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/geocoder89/tourhub/internal/auth"
	"github.com/geocoder89/tourhub/internal/cache"
	"github.com/geocoder89/tourhub/internal/config"
	"github.com/geocoder89/tourhub/internal/domain/booking"
	"github.com/geocoder89/tourhub/internal/domain/review"
	"github.com/geocoder89/tourhub/internal/domain/tour"
	"github.com/geocoder89/tourhub/internal/domain/user"
	"github.com/geocoder89/tourhub/internal/http/handlers"
	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/geocoder89/tourhub/internal/media"
	"github.com/geocoder89/tourhub/internal/notifications"
	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/geocoder89/tourhub/internal/payments"
	"github.com/geocoder89/tourhub/internal/query"
	"github.com/geocoder89/tourhub/internal/ratings"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "tourhub-api"

type UserStore interface {
	handlers.Store[user.User, user.CreateRequest, user.UpdateRequest]
	handlers.AuthStore
	handlers.ProfileStore
}

type TourStore interface {
	handlers.Store[tour.Tour, tour.CreateRequest, tour.UpdateRequest]
	handlers.TourQueries
	ratings.TourRatings
}

type ReviewStore interface {
	ratings.ReviewStore
	ratings.Stats
}

type BookingStore = handlers.Store[booking.Booking, booking.CreateRequest, booking.UpdateRequest]

// Deps is everything the router wires together. The postgres repositories
// and the in-memory stores both satisfy the store interfaces.
type Deps struct {
	Config config.Config
	Log    *slog.Logger
	Prom   *observability.Prom
	// Metrics serves /metrics when set.
	Metrics nethttp.Handler
	Checks  map[string]handlers.Pinger

	Users    UserStore
	Tours    TourStore
	Reviews  ReviewStore
	Bookings BookingStore

	JWT    *auth.Manager
	Hasher handlers.PasswordHasher
	Mailer notifications.Mailer
	// Queue takes the welcome and password-changed emails. Nil drops them.
	Queue          handlers.Enqueuer
	QueueInspector handlers.QueueInspector
	Photos         media.Store
	Payments       payments.Gateway
	RateCounter    middlewares.Counter
	Cache          *cache.Cache
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.RateCounter == nil {
		d.RateCounter = middlewares.NewMemoryCounter()
	}
	if d.Payments == nil {
		d.Payments = payments.Disabled{}
	}
	if d.Mailer == nil {
		d.Mailer = notifications.NewLogMailer(d.Log)
	}

	r := gin.New()

	// middleware
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.ErrorHandler(d.Log, cfg.IsProd()))
	r.Use(middlewares.Recovery())
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	limiter := middlewares.NewRateLimiter(d.RateCounter, cfg.RateLimitMax, cfg.RateLimitWindow, d.Log)
	api := r.Group("/api/v1",
		limiter.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.MaxBodyBytes(cfg.MaxBodyBytes, cfg.MaxUploadBytes),
		middlewares.RequireJSON("multipart/form-data"),
	)

	authMW := middlewares.NewAuthMiddleware(d.JWT, d.Users, d.Log, d.Prom)
	protect := authMW.RequireAuth()

	toursHandler := handlers.NewToursHandler(d.Tours, d.Cache)
	reconciler := ratings.NewReconciler(d.Reviews, d.Tours, d.Log, toursHandler.InvalidateCache)

	tourRes := handlers.NewResource[tour.Tour, tour.CreateRequest, tour.UpdateRequest](d.Tours, handlers.ResourceConfig[tour.Tour, tour.CreateRequest]{
		Name:       "tour",
		Query:      withLimits(tour.QueryOptions, cfg),
		Expand:     toursHandler.ExpandReviews,
		AfterWrite: toursHandler.InvalidateCache,
	})
	reviewRes := handlers.NewResource[review.Review, review.CreateRequest, review.UpdateRequest](ratings.NewStore(d.Reviews, reconciler), handlers.ResourceConfig[review.Review, review.CreateRequest]{
		Name:    "review",
		Query:   withLimits(review.QueryOptions, cfg),
		Scope:   handlers.ReviewScope,
		Prepare: handlers.PrepareReview,
	})
	userRes := handlers.NewResource[user.User, user.CreateRequest, user.UpdateRequest](d.Users, handlers.ResourceConfig[user.User, user.CreateRequest]{
		Name:    "user",
		Query:   withLimits(user.QueryOptions, cfg),
		Prepare: handlers.HashOnCreate(d.Hasher),
	})
	bookingRes := handlers.NewResource[booking.Booking, booking.CreateRequest, booking.UpdateRequest](d.Bookings, handlers.ResourceConfig[booking.Booking, booking.CreateRequest]{
		Name:  "booking",
		Query: withLimits(booking.QueryOptions, cfg),
	})

	staff := middlewares.RequireRoles(user.RoleAdmin, user.RoleLeadGuide)
	admin := middlewares.RequireRoles(user.RoleAdmin)

	// tours
	tours := api.Group("/tours")
	tours.GET("/top-5-cheap", handlers.AliasTopCheap(), tourRes.List)
	tours.GET("/tour-stats", toursHandler.Stats)
	tours.GET("/monthly-plan/:year", protect, middlewares.RequireRoles(user.RoleAdmin, user.RoleLeadGuide, user.RoleGuide), toursHandler.MonthlyPlan)
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", toursHandler.Within)
	tours.GET("/distances/:latlng/unit/:unit", toursHandler.Distances)
	tours.GET("", tourRes.List)
	tours.POST("", protect, staff, tourRes.Create)
	tours.GET("/:id", tourRes.Get)
	tours.PATCH("/:id", protect, staff, tourRes.Update)
	tours.DELETE("/:id", protect, staff, tourRes.Delete)
	tours.GET("/:id/reviews", protect, reviewRes.List)
	tours.POST("/:id/reviews", protect, middlewares.RequireRoles(user.RoleUser), reviewRes.Create)

	// users
	authHandler := handlers.NewAuthHandler(d.Users, d.JWT, d.Hasher, d.Mailer, d.Queue, cfg, d.Log)
	usersHandler := handlers.NewUsersHandler(d.Users, d.Photos, cfg.MaxUploadBytes, d.Log)

	users := api.Group("/users")
	users.POST("/signup", authHandler.SignUp)
	users.POST("/login", authHandler.Login)
	users.GET("/logout", authHandler.Logout)
	users.POST("/forgotPassword", authHandler.ForgotPassword)
	users.PATCH("/resetPassword/:token", authHandler.ResetPassword)

	users.PATCH("/updatePassword", protect, authHandler.UpdatePassword)
	users.GET("/me", protect, usersHandler.Me)
	users.PATCH("/updateMe", protect, usersHandler.UpdateMe)
	users.DELETE("/deleteMe", protect, usersHandler.DeleteMe)

	users.GET("", protect, admin, userRes.List)
	users.POST("", protect, admin, userRes.Create)
	users.GET("/:id", protect, admin, userRes.Get)
	users.PATCH("/:id", protect, admin, userRes.Update)
	users.DELETE("/:id", protect, admin, userRes.Delete)

	// reviews
	reviews := api.Group("/reviews", protect)
	reviews.GET("", reviewRes.List)
	reviews.POST("", middlewares.RequireRoles(user.RoleUser), reviewRes.Create)
	reviews.GET("/:id", reviewRes.Get)
	reviewAuthor := handlers.RequireReviewAuthor(d.Reviews)
	reviews.PATCH("/:id", middlewares.RequireRoles(user.RoleUser, user.RoleAdmin), reviewAuthor, reviewRes.Update)
	reviews.DELETE("/:id", middlewares.RequireRoles(user.RoleUser, user.RoleAdmin), reviewAuthor, reviewRes.Delete)

	// bookings
	bookingsHandler := handlers.NewBookingsHandler(d.Tours, d.Payments, cfg.AppURL)

	bookings := api.Group("/bookings", protect)
	bookings.GET("/checkout-session/:tourId", bookingsHandler.CheckoutSession)
	bookings.GET("", staff, bookingRes.List)
	bookings.POST("", staff, bookingRes.Create)
	bookings.GET("/:id", staff, bookingRes.Get)
	bookings.PATCH("/:id", staff, bookingRes.Update)
	bookings.DELETE("/:id", staff, bookingRes.Delete)

	if d.QueueInspector != nil {
		api.GET("/admin/queue", protect, admin, handlers.NewAdminQueueHandler(d.QueueInspector).Depth)
	}

	return r
}

func withLimits(opts query.Options, cfg config.Config) query.Options {
	opts.DefaultLimit = cfg.DefaultPageLimit
	opts.MaxLimit = cfg.MaxPageLimit
	return opts
}
