package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abelzeko/erfiume-bot/internal/api"
	"github.com/abelzeko/erfiume-bot/internal/config"
	"github.com/abelzeko/erfiume-bot/internal/integration/openai"
	"github.com/abelzeko/erfiume-bot/internal/logging"
	"github.com/abelzeko/erfiume-bot/internal/repository"
	"github.com/abelzeko/erfiume-bot/internal/usecases"
)

const (
	appName = "erfiume-bot"

	throttlePurgeSchedule = "@every 5m"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg, appName)
	slog.Info("starting erfiume bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	stationRepo, err := repository.OpenStationRepository(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to initialize station repository: %w", err)
	}
	defer stationRepo.Close()

	throttleRepo, err := repository.OpenThrottleRepository(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to initialize throttle repository: %w", err)
	}
	defer throttleRepo.Close()

	// The OpenAI fallback is optional
	var openAIService openai.OpenAIService
	if cfg.OpenAIAPIKey != "" {
		openAIService, err = openai.NewOpenAIService(cfg.OpenAIAPIKey)
		if err != nil {
			return fmt.Errorf("failed to initialize OpenAI service: %w", err)
		}
	} else {
		slog.Info("OPENAI_API_KEY not set, fuzzy matching only")
	}

	useCase := usecases.NewStationUseCase(stationRepo, nil, openAIService)
	gate := usecases.NewThrottleGate(throttleRepo, cfg.ThrottleThreshold, cfg.ThrottleWindow)
	promo := usecases.NewPromoSampler(nil)

	// The bot only manages subscriptions; the fetcher delivers them
	var alerts *usecases.AlertUseCase
	if cfg.AlertsEnabled {
		alertRepo, err := repository.OpenAlertRepository(ctx, cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to initialize alert repository: %w", err)
		}
		defer alertRepo.Close()
		alerts = usecases.NewAlertUseCase(alertRepo, useCase, nil, cfg.AlertCooldown)
	}

	c, err := schedulePurge(ctx, throttleRepo)
	if err != nil {
		return err
	}
	if c != nil {
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	if cfg.OpsAddr != "" {
		go func() {
			if err := api.RunOpsServer(ctx, cfg.OpsAddr, api.NewOpsRouter(useCase, appName)); err != nil {
				slog.Error("ops server failed", "error", err)
			}
		}()
	}

	telegramBot, err := api.NewTelegramBot(cfg.TelegramBotToken, useCase, gate, promo, alerts)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	telegramBot.Start(ctx)
	return nil
}

// schedulePurge removes lapsed throttle records for stores that keep them.
// It returns a nil scheduler when the store expires records on its own.
func schedulePurge(ctx context.Context, repo repository.ThrottleRepository) (*cron.Cron, error) {
	purger, ok := repo.(repository.ThrottlePurger)
	if !ok {
		return nil, nil
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logging.CronLogger{Logger: slog.Default()}),
	))
	_, err := c.AddFunc(throttlePurgeSchedule, func() {
		if _, err := purger.PurgeExpiredThrottles(ctx, time.Now()); err != nil {
			slog.Error("throttle purge failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up throttle purge: %w", err)
	}
	return c, nil
}
