package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightform/userhub/internal/domain"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	DatabaseURL string

	// Identity provider settings. An empty IdentityBaseURL in development
	// switches the service to the in-process static provider.
	IdentityBaseURL    string
	IdentityServiceKey string
	IdentityTimeout    time.Duration

	// SignupDefaultRole is the role forced onto every self-registration,
	// regardless of the role requested in the payload.
	SignupDefaultRole domain.Role

	SeedAdminEmail    string
	SeedAdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWKSCacheTTL  time.Duration

	RateLimitRPM int

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		ServiceName:          getEnv("SERVICE_NAME", "userhub"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		IdentityBaseURL:      strings.TrimSpace(os.Getenv("IDENTITY_BASE_URL")),
		IdentityServiceKey:   os.Getenv("IDENTITY_SERVICE_KEY"),
		IdentityTimeout:      getDuration("IDENTITY_TIMEOUT", 10*time.Second),
		SeedAdminEmail:       strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")),
		SeedAdminPassword:    os.Getenv("SEED_ADMIN_PASSWORD"),
		RedisAddr:            getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		JWKSCacheTTL:         getDuration("JWKS_CACHE_TTL", 10*time.Minute),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.IdentityBaseURL == "" && cfg.Environment != "development" {
		return Config{}, fmt.Errorf("IDENTITY_BASE_URL is required outside development")
	}

	role, ok := domain.ParseRole(getEnv("SIGNUP_DEFAULT_ROLE", string(domain.RoleAdmin)))
	if !ok {
		return Config{}, fmt.Errorf("SIGNUP_DEFAULT_ROLE must be ADMIN or USER")
	}
	cfg.SignupDefaultRole = role

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
