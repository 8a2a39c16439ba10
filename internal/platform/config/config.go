package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean and deployments stay twelve-factor.
type Config struct {
	Addr string

	// PostgresDSN selects the postgres-backed directory and admin stores.
	// Empty means in-memory stores (development, tests).
	PostgresDSN string

	// Redis selects the redis-backed code registry. Empty URL means the
	// in-memory registry.
	Redis RedisConfig

	// Telegram bot credentials for the notification channel and the
	// code-entry conversation loop. Empty token disables the bot.
	TelegramToken   string
	TelegramTimeout time.Duration

	// CodeTTL bounds how long an issued auth code stays redeemable.
	CodeTTL time.Duration

	// VerifyMaxFailures caps wrong-code submissions per subject inside
	// VerifyWindow before the flow locks and must restart from issuance.
	VerifyMaxFailures int
	VerifyWindow      time.Duration

	JWTSigningKey   string
	SessionTTL      time.Duration
	AdminSessionTTL time.Duration
}

// RedisConfig holds connection settings for the optional redis registry.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables, applying defaults
// suitable for local development.
func FromEnv() Config {
	jwtKey := os.Getenv("KIOSK_JWT_SIGNING_KEY")
	if jwtKey == "" {
		// Development fallback; override in production.
		jwtKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:        envString("KIOSK_ADDR", ":8080"),
		PostgresDSN: os.Getenv("KIOSK_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("KIOSK_REDIS_URL"),
			PoolSize:     envInt("KIOSK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("KIOSK_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("KIOSK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("KIOSK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("KIOSK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		TelegramTimeout:   envDuration("TELEGRAM_HTTP_TIMEOUT", 35*time.Second),
		CodeTTL:           envDuration("KIOSK_CODE_TTL", 5*time.Minute),
		VerifyMaxFailures: envInt("KIOSK_VERIFY_MAX_FAILURES", 5),
		VerifyWindow:      envDuration("KIOSK_VERIFY_WINDOW", 15*time.Minute),
		JWTSigningKey:     jwtKey,
		SessionTTL:        envDuration("KIOSK_SESSION_TTL", 12*time.Hour),
		AdminSessionTTL:   envDuration("KIOSK_ADMIN_SESSION_TTL", 8*time.Hour),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
