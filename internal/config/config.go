package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret-change-me"

type Config struct {
	Env    string
	Port   int
	DBURL  string
	AppURL string

	// DBConfigured is false when neither DATABASE_URL nor DB_HOST is set;
	// the API then runs on in-memory stores.
	DBConfigured bool

	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration
	ResetTokenTTL      time.Duration
	BcryptCost         int

	DefaultPageLimit int
	MaxPageLimit     int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitMax    int
	RateLimitWindow time.Duration
	MaxBodyBytes    int64
	CORSOrigins     []string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	MailPerSec   float64

	StripeSecretKey string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	UploadDir      string

	OTELEndpoint string
	TourStatsTTL time.Duration

	QueueName         string
	WorkerConcurrency int
	WorkerHealthPort  int
	WorkerRetryBase   time.Duration
	WorkerRetryMax    time.Duration
	MaxUploadBytes    int64

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	// a missing .env is fine; the process environment wins either way
	_ = godotenv.Load()

	return Config{
		Env:          getEnv("APP_ENV", "dev"),
		Port:         getEnvInt("PORT", 8080),
		DBURL:        buildDBURL(),
		DBConfigured: os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "",
		AppURL:       strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),

		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiresIn:       getEnvDuration("JWT_EXPIRES_IN", 90*24*time.Hour),
		JWTCookieExpiresIn: time.Duration(getEnvInt("JWT_COOKIE_EXPIRES_IN_DAYS", 90)) * 24 * time.Hour,
		ResetTokenTTL:      getEnvDuration("RESET_TOKEN_TTL", 10*time.Minute),
		BcryptCost:         getEnvInt("BCRYPT_COST", 12),

		DefaultPageLimit: getEnvInt("PAGE_LIMIT_DEFAULT", 100),
		MaxPageLimit:     getEnvInt("PAGE_LIMIT_MAX", 1000),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		MaxBodyBytes:    int64(getEnvInt("MAX_BODY_BYTES", 10*1024)),
		CORSOrigins:     getEnvList("CORS_ORIGINS"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "Tourhub <hello@tourhub.local>"),
		MailPerSec:   getEnvFloat("MAIL_RATE_PER_SEC", 2),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),

		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3BaseEndpoint: getEnv("S3_BASE_ENDPOINT", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		UploadDir:      getEnv("UPLOAD_DIR", "public/img/users"),

		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TourStatsTTL: getEnvDuration("TOUR_STATS_TTL", 30*time.Second),

		QueueName:         getEnv("QUEUE_NAME", "tourhub:emails"),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerHealthPort:  getEnvInt("WORKER_HEALTH_PORT", 8081),
		WorkerRetryBase:   getEnvDuration("WORKER_RETRY_BASE", 2*time.Second),
		WorkerRetryMax:    getEnvDuration("WORKER_RETRY_MAX", 5*time.Minute),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_BYTES", 5*1024*1024)),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),
	}
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate rejects settings that are only acceptable outside production.
func (c Config) Validate() error {
	if c.IsProd() && (c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32) {
		return errors.New("JWT_SECRET must be set to at least 32 characters in production")
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	return nil
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "tourhub")
	pass := getEnv("DB_PASSWORD", "tourhub")
	name := getEnv("DB_NAME", "tourhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return num
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", v)
		return fallback
	}
	return f
}

// getEnvDuration accepts Go durations ("90m") and a day suffix ("90d").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
