package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every environment-derived setting. It is built once in main and
// passed by injection; no package reads the environment after startup.
type Config struct {
	PostgresURI string
	MongoURI    string
	RedisURI    string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Port           string
	Environment    string // ENV: production, development, etc.
	AllowedOrigins []string

	CacheEnabled bool
	CacheTTL     time.Duration // aggregate response cache, clamped to 2-5 minutes

	TrialDays int // premium trial window, fixed from first use
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		PostgresURI: getEnv("POSTGRES_URI", "postgres://localhost:5432/mindnotes?sslmode=disable"),
		MongoURI:    getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/mindnotes")),
		RedisURI:    getEnv("REDIS_URI", "redis://localhost:6379/0"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		AllowedOrigins: allowedOrigins,

		CacheEnabled: getBool("CACHE_ENABLED", true),
		CacheTTL:     getDuration("CACHE_TTL", 3*time.Minute),

		TrialDays: getInt("PREMIUM_TRIAL_DAYS", 7),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
