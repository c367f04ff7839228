package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	// StorageDriver selects the persistence backend: "postgres" or "memory".
	// The memory driver keeps everything in-process and is meant for local demos.
	StorageDriver string

	Auth AuthConfig

	// AllowedOrigins is the CORS allowlist for the single-page front end. Example:
	//   https://rentals.example.com,http://localhost:5173
	AllowedOrigins []string

	Redis RedisConfig

	Booking BookingConfig

	LogLevel slog.Level
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	// TokenSecret signs and verifies HS256 session tokens.
	TokenSecret string
	// TokenAudience is checked against the token "aud" claim when set.
	TokenAudience string
	// DevHeaders accepts X-User-ID / X-User-Role in place of a bearer token.
	// Off unless AUTH_DEV_HEADERS=true, and never honored in prod.
	DevHeaders bool
}

type RedisConfig struct {
	// URL is a redis:// URL. Empty disables publishing of request changes.
	URL     string
	Channel string
}

type BookingConfig struct {
	// ForbidSelfBooking rejects requests where the requester owns the property.
	ForbidSelfBooking bool
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "rentals"),
			User:     env("DB_USER", "rentals"),
			Password: env("DB_PASSWORD", "rentals"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		StorageDriver: strings.ToLower(env("STORAGE_DRIVER", StorageDriverPostgres)),
		Auth: AuthConfig{
			TokenSecret:   os.Getenv("AUTH_TOKEN_SECRET"),
			TokenAudience: os.Getenv("AUTH_TOKEN_AUDIENCE"),
			DevHeaders:    envBool("AUTH_DEV_HEADERS", false),
		},
		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080"),
		Redis: RedisConfig{
			URL:     os.Getenv("REDIS_URL"),
			Channel: env("REDIS_CHANNEL", "booking-requests"),
		},
		Booking: BookingConfig{
			ForbidSelfBooking: envBool("BOOKING_FORBID_SELF", false),
		},
		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// IsProd reports whether dev conveniences (header sessions, text logs) must be off.
func (c Config) IsProd() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "prod", "production", "release":
		return true
	}
	return false
}

// DevHeaderSessions reports whether SessionAuth may trust identity headers.
func (c Config) DevHeaderSessions() bool {
	return c.Auth.DevHeaders && !c.IsProd()
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
