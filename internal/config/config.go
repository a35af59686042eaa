// Package config loads runtime settings from the environment
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTelemetryBaseURL is the allertameteo API serving Emilia-Romagna stations.
const DefaultTelemetryBaseURL = "https://allertameteo.regione.emilia-romagna.it/o/api/allerta"

// Config holds every setting shared by the bot and the fetcher
type Config struct {
	AppEnv   string
	LogLevel slog.Level

	TelegramBotToken string

	// SQLitePath is used unless DatabaseURL selects PostgreSQL.
	SQLitePath  string
	DatabaseURL string

	// RedisAddr switches the throttle store to Redis when set.
	RedisAddr     string
	RedisPassword string

	OpenAIAPIKey string

	TelemetryBaseURL string
	HTTPTimeout      time.Duration

	// FetchSchedule is a standard five-field cron expression.
	FetchSchedule     string
	EnrichConcurrency int // 0 = one goroutine per station
	StoreConcurrency  int

	ThrottleThreshold int
	ThrottleWindow    time.Duration

	// AlertsEnabled turns on the alert commands and, in the fetcher with a
	// bot token, alert delivery.
	AlertsEnabled bool
	AlertCooldown time.Duration

	// OpsAddr enables the health/metrics server when non-empty.
	OpsAddr string
}

// Load reads configuration from environment with sensible defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "reason", err)
	}

	appEnv := getenvDefault("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}

	httpTimeout, err := getenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	throttleWindow, err := getenvDuration("THROTTLE_WINDOW", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	if throttleWindow <= 0 {
		return Config{}, fmt.Errorf("invalid THROTTLE_WINDOW %q: must be positive", os.Getenv("THROTTLE_WINDOW"))
	}

	alertsEnabled, err := getenvBool("ALERTS_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	alertCooldown, err := getenvDuration("ALERT_COOLDOWN", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	if alertCooldown <= 0 {
		return Config{}, fmt.Errorf("invalid ALERT_COOLDOWN %q: must be positive", os.Getenv("ALERT_COOLDOWN"))
	}

	enrichConcurrency, err := getenvInt("ENRICH_CONCURRENCY", 0)
	if err != nil {
		return Config{}, err
	}
	storeConcurrency, err := getenvInt("STORE_CONCURRENCY", 8)
	if err != nil {
		return Config{}, err
	}
	throttleThreshold, err := getenvInt("THROTTLE_THRESHOLD", 5)
	if err != nil {
		return Config{}, err
	}
	if throttleThreshold <= 0 {
		return Config{}, fmt.Errorf("invalid THROTTLE_THRESHOLD %d: must be positive", throttleThreshold)
	}

	return Config{
		AppEnv:            appEnv,
		LogLevel:          level,
		TelegramBotToken:  strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		SQLitePath:        getenvDefault("SQLITE_PATH", "data/erfiume.db"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		TelemetryBaseURL:  strings.TrimRight(getenvDefault("TELEMETRY_BASE_URL", DefaultTelemetryBaseURL), "/"),
		HTTPTimeout:       httpTimeout,
		FetchSchedule:     getenvDefault("FETCH_SCHEDULE", "*/15 * * * *"),
		EnrichConcurrency: enrichConcurrency,
		StoreConcurrency:  storeConcurrency,
		ThrottleThreshold: throttleThreshold,
		ThrottleWindow:    throttleWindow,
		AlertsEnabled:     alertsEnabled,
		AlertCooldown:     alertCooldown,
		OpsAddr:           strings.TrimSpace(os.Getenv("OPS_ADDR")),
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %d: must not be negative", key, n)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
