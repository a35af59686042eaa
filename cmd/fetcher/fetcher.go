package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/abelzeko/erfiume-bot/internal/api"
	"github.com/abelzeko/erfiume-bot/internal/config"
	"github.com/abelzeko/erfiume-bot/internal/integration"
	"github.com/abelzeko/erfiume-bot/internal/logging"
	"github.com/abelzeko/erfiume-bot/internal/repository"
	"github.com/abelzeko/erfiume-bot/internal/usecases"
)

const appName = "erfiume-fetcher"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg, appName)
	slog.Info("starting erfiume fetcher")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("fetcher stopped", "error", err)
		os.Exit(1)
	}
}

// run performs one ingestion pass immediately, then one per schedule tick
// until ctx is cancelled.
func run(ctx context.Context, cfg config.Config) error {
	repo, err := repository.OpenStationRepository(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	client := integration.NewTelemetryClient(cfg.TelemetryBaseURL, &http.Client{Timeout: cfg.HTTPTimeout})

	useCase := usecases.NewStationUseCase(repo, client, nil)
	useCase.SetConcurrency(cfg.EnrichConcurrency, cfg.StoreConcurrency)

	if cfg.AlertsEnabled {
		alerts, closeAlerts, err := openAlerts(ctx, cfg)
		if err != nil {
			return err
		}
		if alerts != nil {
			defer closeAlerts()
			useCase.SetAlerts(alerts)
		}
	}

	if cfg.OpsAddr != "" {
		go func() {
			if err := api.RunOpsServer(ctx, cfg.OpsAddr, api.NewOpsRouter(useCase, appName)); err != nil {
				slog.Error("ops server failed", "error", err)
			}
		}()
	}

	// Run use case immediately on startup
	refresh(ctx, useCase)

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logging.CronLogger{Logger: slog.Default()}),
	))
	if _, err := c.AddFunc(cfg.FetchSchedule, func() { refresh(ctx, useCase) }); err != nil {
		return fmt.Errorf("failed to set up cron job %q: %w", cfg.FetchSchedule, err)
	}

	slog.Info("fetcher has been scheduled", "schedule", cfg.FetchSchedule)
	c.Start()

	<-ctx.Done()
	slog.Info("shutting down fetcher")
	<-c.Stop().Done()
	return nil
}

// openAlerts prepares alert delivery. Without a bot token alerts cannot be
// sent, so it returns nil and the pass only stores stations.
func openAlerts(ctx context.Context, cfg config.Config) (*usecases.AlertUseCase, func() error, error) {
	if cfg.TelegramBotToken == "" {
		slog.Warn("TELEGRAM_BOT_TOKEN not set, alerts will not be delivered")
		return nil, nil, nil
	}

	notifier, err := api.NewTelegramNotifier(cfg.TelegramBotToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize alert notifier: %w", err)
	}

	alertRepo, err := repository.OpenAlertRepository(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize alert repository: %w", err)
	}
	return usecases.NewAlertUseCase(alertRepo, nil, notifier, cfg.AlertCooldown), alertRepo.Close, nil
}

func refresh(ctx context.Context, useCase *usecases.StationUseCase) {
	if ctx.Err() != nil {
		return
	}
	result, err := useCase.RefreshStationData(ctx)
	if err != nil {
		slog.Error("station data refresh failed", "run_id", result.RunID, "error", err)
	}
}
