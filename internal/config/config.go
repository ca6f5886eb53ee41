package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// postgres | memory
	StoreBackend string
	// redis | memory
	SessionBackend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	SessionTTLHours int
	RememberTTLDays int

	SeedPassword      string
	ModeratorEmail    string
	ModeratorPassword string
	ModeratorFirst    string
	ModeratorLast     string

	OTLPEndpoint string
	CORSOrigins  []string
	// proxies whose X-Forwarded-For is honored; empty means the socket peer
	TrustedProxies []string

	AuthRateLimit       int
	AuthRateLimitWindow time.Duration

	// background notifications
	NotifyEnabled   bool
	NotifyWorkers   int
	NotifyQueueSize int
}

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		StoreBackend:   getEnv("STORE_BACKEND", "postgres"),
		SessionBackend: getEnv("SESSION_BACKEND", "redis"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24),
		RememberTTLDays: getEnvInt("REMEMBER_TTL_DAYS", 30),

		SeedPassword:      getEnv("SEED_PASSWORD", "projecthub-demo"),
		ModeratorEmail:    getEnv("MODERATOR_EMAIL", ""),
		ModeratorPassword: getEnv("MODERATOR_PASSWORD", ""),
		ModeratorFirst:    getEnv("MODERATOR_FIRST_NAME", "Site"),
		ModeratorLast:     getEnv("MODERATOR_LAST_NAME", "Moderator"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),

		AuthRateLimit:       getEnvInt("RATE_LIMIT_AUTH", 20),
		AuthRateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		NotifyEnabled:   getEnvBool("NOTIFY_ENABLED", true),
		NotifyWorkers:   getEnvInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize: getEnvInt("NOTIFY_QUEUE_SIZE", 256),
	}
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c Config) RememberTTL() time.Duration {
	return time.Duration(c.RememberTTLDays) * 24 * time.Hour
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "projecthub")
	pass := getEnv("DB_PASSWORD", "projecthub")
	name := getEnv("DB_NAME", "projecthub")
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
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not an int, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %s=%q is not a bool, using %t\n", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
