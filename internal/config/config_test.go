package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "SQLITE_PATH", "DATABASE_URL", "REDIS_ADDR",
		"TELEMETRY_BASE_URL", "HTTP_TIMEOUT", "FETCH_SCHEDULE", "ENRICH_CONCURRENCY",
		"STORE_CONCURRENCY", "THROTTLE_THRESHOLD", "THROTTLE_WINDOW", "OPS_ADDR",
		"ALERTS_ENABLED", "ALERT_COOLDOWN",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv dev, got %s", cfg.AppEnv)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info log level, got %v", cfg.LogLevel)
	}
	if cfg.TelemetryBaseURL != DefaultTelemetryBaseURL {
		t.Errorf("Expected default telemetry URL, got %s", cfg.TelemetryBaseURL)
	}
	if cfg.ThrottleThreshold != 5 || cfg.ThrottleWindow != 15*time.Minute {
		t.Errorf("Expected throttle 5/15m, got %d/%s", cfg.ThrottleThreshold, cfg.ThrottleWindow)
	}
	if cfg.FetchSchedule != "*/15 * * * *" {
		t.Errorf("Unexpected fetch schedule %q", cfg.FetchSchedule)
	}
	if cfg.EnrichConcurrency != 0 || cfg.StoreConcurrency != 8 {
		t.Errorf("Unexpected concurrency %d/%d", cfg.EnrichConcurrency, cfg.StoreConcurrency)
	}
	if !cfg.AlertsEnabled || cfg.AlertCooldown != 24*time.Hour {
		t.Errorf("Expected alerts enabled with a 24h cool-down, got %v/%s", cfg.AlertsEnabled, cfg.AlertCooldown)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TELEMETRY_BASE_URL", "http://localhost:9999/api/")
	t.Setenv("THROTTLE_THRESHOLD", "3")
	t.Setenv("THROTTLE_WINDOW", "1m")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("ALERTS_ENABLED", "false")
	t.Setenv("ALERT_COOLDOWN", "6h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.AppEnv != "prod" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Unexpected env/level %s/%v", cfg.AppEnv, cfg.LogLevel)
	}
	if cfg.TelemetryBaseURL != "http://localhost:9999/api" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.TelemetryBaseURL)
	}
	if cfg.ThrottleThreshold != 3 || cfg.ThrottleWindow != time.Minute || cfg.HTTPTimeout != 2*time.Second {
		t.Errorf("Unexpected overrides %+v", cfg)
	}
	if cfg.AlertsEnabled || cfg.AlertCooldown != 6*time.Hour {
		t.Errorf("Unexpected alert settings %v/%s", cfg.AlertsEnabled, cfg.AlertCooldown)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"APP_ENV":            "staging",
		"LOG_LEVEL":          "loud",
		"THROTTLE_THRESHOLD": "0",
		"THROTTLE_WINDOW":    "soon",
		"ENRICH_CONCURRENCY": "-1",
		"ALERTS_ENABLED":     "maybe",
		"ALERT_COOLDOWN":     "0s",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", key, value)
			}
		})
	}
}
