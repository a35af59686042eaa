// Package logging builds the process-wide slog logger
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/abelzeko/erfiume-bot/internal/config"
)

// New returns a coloured logger in dev and a JSON logger otherwise.
func New(cfg config.Config, appName string) *slog.Logger {
	if cfg.AppEnv == "dev" {
		h := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.DateTime,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"env", cfg.AppEnv,
	)
}

// Setup builds the logger and installs it as the slog default.
func Setup(cfg config.Config, appName string) *slog.Logger {
	logger := New(cfg, appName)
	slog.SetDefault(logger)
	return logger
}

// CronLogger adapts a slog.Logger to the robfig/cron Logger interface
type CronLogger struct {
	Logger *slog.Logger
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, keysAndValues...)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, append(keysAndValues, "error", err)...)
}
