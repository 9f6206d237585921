package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string
	// Store selects the credential store backend: "postgres" or "memory".
	Store       string
	AutoMigrate bool

	JWTSecret   string
	JWTTTL      time.Duration
	ServiceName string

	AdminUsername string
	AdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthRateLimit  int
	AuthRateWindow time.Duration

	CORSOrigins  []string
	MaxBodyBytes int64

	OTelEnabled  bool
	OTelEndpoint string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside dev/test")

func Load() Config {
	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:         env,
		Port:        getEnvInt("PORT", 8080),
		DBURL:       getEnv("DATABASE_URL", buildDBURL()),
		Store:       strings.ToLower(getEnv("STORE", "postgres")),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", env == "dev"),

		JWTSecret:   getEnv("JWT_SECRET", devSecret(env)),
		JWTTTL:      time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		ServiceName: getEnv("SERVICE_NAME", "bankly-api"),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow: time.Duration(getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,

		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "")),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// Validate reports configuration that must stop the process at startup.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	if c.Store != "postgres" && c.Store != "memory" {
		return fmt.Errorf("unsupported STORE %q", c.Store)
	}

	return nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "bankly")
	pass := getEnv("DB_PASSWORD", "bankly")
	name := getEnv("DB_NAME", "bankly")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// only dev and test get a baked-in signing key
func devSecret(env string) string {
	if env == "dev" || env == "test" {
		return "bankly-dev-secret"
	}
	return ""
}

// WithTimeout bounds a store call by the request's own context.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
