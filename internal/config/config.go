package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Push credentials (VAPID keypair + contact subject). Both keys
	// empty means the push channel is unavailable.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// Email provider (HTTP API credential + verified from address).
	EmailAPIURL string
	EmailAPIKey string
	EmailFrom   string

	// Shared secret for the dispatch trigger endpoint. Empty disables
	// the auth check.
	DispatchSecret string

	// Base URL prefixed onto deep links in notifications.
	AppBaseURL string

	// Dispatch tuning
	DispatchWindow      time.Duration
	DispatchCron        string
	DispatchConcurrency int
	DispatchTimeout     time.Duration

	// Digest trigger window (UTC)
	DigestWeekday time.Weekday
	DigestHour    int

	// Rate limiting: maximum sends per second per channel
	RateLimit int

	// Outbound HTTP timeout for push/email providers
	ProviderTimeout time.Duration
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:ops@subwatch.io"),

		EmailAPIURL: getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
		EmailAPIKey: os.Getenv("EMAIL_API_KEY"),
		EmailFrom:   os.Getenv("EMAIL_FROM"),

		DispatchSecret: os.Getenv("DISPATCH_SECRET"),
		AppBaseURL:     getEnv("APP_BASE_URL", "https://app.subwatch.io"),

		DispatchWindow:      getDuration("DISPATCH_WINDOW", 30*time.Minute),
		DispatchCron:        getEnv("DISPATCH_CRON", "*/15 * * * *"),
		DispatchConcurrency: getInt("DISPATCH_CONCURRENCY", 4),
		DispatchTimeout:     getDuration("DISPATCH_TIMEOUT", 5*time.Minute),

		DigestWeekday: time.Weekday(getInt("DIGEST_WEEKDAY", int(time.Sunday))),
		DigestHour:    getInt("DIGEST_HOUR_UTC", 9),

		RateLimit: getInt("RATE_LIMIT_PER_CHANNEL", 50),

		ProviderTimeout: getDuration("PROVIDER_TIMEOUT", 10*time.Second),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
