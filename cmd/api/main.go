package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/tourhub/internal/auth"
	"github.com/geocoder89/tourhub/internal/cache"
	"github.com/geocoder89/tourhub/internal/config"
	"github.com/geocoder89/tourhub/internal/db"
	httpx "github.com/geocoder89/tourhub/internal/http"
	"github.com/geocoder89/tourhub/internal/http/handlers"
	"github.com/geocoder89/tourhub/internal/http/middlewares"
	"github.com/geocoder89/tourhub/internal/media"
	"github.com/geocoder89/tourhub/internal/notifications"
	"github.com/geocoder89/tourhub/internal/observability"
	"github.com/geocoder89/tourhub/internal/payments"
	"github.com/geocoder89/tourhub/internal/queue"
	"github.com/geocoder89/tourhub/internal/queue/redisclient"
	"github.com/geocoder89/tourhub/internal/queue/worker"
	"github.com/geocoder89/tourhub/internal/repo/memory"
	"github.com/geocoder89/tourhub/internal/repo/postgres"
	"github.com/geocoder89/tourhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, "tourhub-api", cfg.Env, cfg.OTELEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	hasher := security.NewHasher(cfg.BcryptCost)

	deps := httpx.Deps{
		Config:  cfg,
		Log:     log,
		Prom:    prom,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Checks:  map[string]handlers.Pinger{},
		JWT:     auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.ResetTokenTTL),
		Hasher:  hasher,
		Cache:   cache.New(cfg.TourStatsTTL),
	}

	closeStores := wireStores(ctx, cfg, log, prom, hasher, &deps)
	defer closeStores()

	deps.Mailer = newMailer(cfg, log, prom)

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()

		q := queue.New(rdb, cfg.QueueName)
		deps.Queue = q
		deps.QueueInspector = q
		deps.RateCounter = middlewares.NewRedisCounter(rdb.Raw())
		deps.Checks["redis"] = rdb.Ping
	} else {
		log.Warn("REDIS_ADDR not set; emails go out inline and rate limits are per process")
		deps.Queue = worker.NewInline(deps.Mailer, cfg.AppURL)
	}

	photos, err := newPhotoStore(ctx, cfg)
	if err != nil {
		log.Error("photo store init failed", "err", err)
		os.Exit(1)
	}
	deps.Photos = photos

	if cfg.StripeSecretKey != "" {
		deps.Payments = payments.NewStripeGateway(cfg.StripeSecretKey)
	}

	// set up routers with the log
	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// wireStores picks postgres when a database is configured, otherwise the
// in-memory stores. Either way the admin from ADMIN_EMAIL and ADMIN_PASSWORD
// is seeded, since signups only ever create plain users.
func wireStores(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom, hasher *security.Hasher, deps *httpx.Deps) func() {
	var (
		admins  db.AdminStore
		closeFn = func() {}
	)

	if cfg.DBConfigured {
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}

		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		users := postgres.NewUsersRepo(pool, prom)
		deps.Users = users
		deps.Tours = postgres.NewToursRepo(pool, prom)
		deps.Reviews = postgres.NewReviewsRepo(pool, prom)
		deps.Bookings = postgres.NewBookingsRepo(pool, prom)
		deps.Checks["postgres"] = pool.Ping

		admins = users
		closeFn = pool.Close
	} else {
		log.Warn("no database configured; using in-memory stores")
		stores := memory.New()
		deps.Users = stores.Users
		deps.Tours = stores.Tours
		deps.Reviews = stores.Reviews
		deps.Bookings = stores.Bookings

		admins = stores.Users
	}

	created, err := db.EnsureAdminUser(ctx, admins, hasher, db.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
	})
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	} else if cfg.AdminEmail == "" && !cfg.DBConfigured {
		log.Warn("ADMIN_EMAIL not set; in-memory stores start without an admin")
	}

	return closeFn
}

func newMailer(cfg config.Config, log *slog.Logger, prom *observability.Prom) notifications.Mailer {
	var inner notifications.Mailer = notifications.NewLogMailer(log)
	if cfg.SMTPHost != "" {
		inner = notifications.NewSMTPMailer(notifications.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  cfg.SMTPPassword,
			From:      cfg.EmailFrom,
			PerSecond: cfg.MailPerSec,
		})
	}

	return notifications.NewProtectedMailer(inner, notifications.ProtectedMailerConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
	}, prom)
}

func newPhotoStore(ctx context.Context, cfg config.Config) (media.Store, error) {
	if cfg.S3Bucket != "" {
		return media.NewS3Store(ctx, media.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
	}
	return media.NewLocalStore(cfg.UploadDir)
}
