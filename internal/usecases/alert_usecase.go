package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/erfiume-bot/internal/entities"
	"github.com/abelzeko/erfiume-bot/internal/metrics"
	"github.com/abelzeko/erfiume-bot/internal/repository"
)

var (
	ErrAlertStationNotFound = errors.New("no stored station matches the query")
	ErrAlertLimitReached    = fmt.Errorf("a chat can keep at most %d active alerts", entities.MaxAlertsPerChat)
	ErrAlertIndexOutOfRange = errors.New("alert index out of range")
)

// StationLookuper resolves a free-text query to a stored station
type StationLookuper interface {
	LookupStation(ctx context.Context, query string) (StationLookup, error)
}

// AlertNotifier delivers a fired alert to its chat
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert entities.Alert, st entities.Station) error
}

// AlertUseCase manages threshold subscriptions and fires them during ingestion
type AlertUseCase struct {
	repo     repository.AlertRepository
	stations StationLookuper
	notifier AlertNotifier
	cooldown time.Duration
	now      func() time.Time
}

// NewAlertUseCase creates an alert use case. notifier may be nil in processes
// that only manage subscriptions; stations may be nil in processes that only
// fire them.
func NewAlertUseCase(repo repository.AlertRepository, stations StationLookuper, notifier AlertNotifier, cooldown time.Duration) *AlertUseCase {
	if cooldown <= 0 {
		cooldown = entities.DefaultAlertCooldown
	}
	return &AlertUseCase{
		repo:     repo,
		stations: stations,
		notifier: notifier,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// ParseAlertArgs splits "<station> <threshold>" and accepts a comma as decimal
// separator, e.g. "S. Carlo 2,5".
func ParseAlertArgs(args string) (station string, threshold float64, ok bool) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return "", 0, false
	}
	threshold, err := strconv.ParseFloat(strings.ReplaceAll(parts[len(parts)-1], ",", "."), 64)
	if err != nil || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return "", 0, false
	}
	return strings.Join(parts[:len(parts)-1], " "), threshold, true
}

// Subscribe creates or replaces the chat's alert on the station matching query.
// Replacing an existing alert is allowed even when the chat is at the limit.
func (uc *AlertUseCase) Subscribe(ctx context.Context, chatID int64, query string, threshold float64) (entities.Alert, error) {
	st, err := uc.resolve(ctx, query)
	if err != nil {
		return entities.Alert{}, err
	}

	exists, err := uc.repo.AlertExists(ctx, st.Name, chatID)
	if err != nil {
		return entities.Alert{}, err
	}
	if !exists {
		count, err := uc.repo.CountActiveAlertsForChat(ctx, chatID)
		if err != nil {
			return entities.Alert{}, err
		}
		if count >= entities.MaxAlertsPerChat {
			return entities.Alert{}, ErrAlertLimitReached
		}
	}

	alert := entities.Alert{
		StationName: st.Name,
		ChatID:      chatID,
		Threshold:   threshold,
		CreatedAt:   uc.now().Unix(),
		Active:      true,
	}
	if err := uc.repo.UpsertAlert(ctx, alert); err != nil {
		return entities.Alert{}, err
	}

	slog.Info("alert saved", "station", st.Name, "chat_id", chatID, "threshold", threshold)
	return alert, nil
}

// List returns the chat's alerts in display order
func (uc *AlertUseCase) List(ctx context.Context, chatID int64) ([]entities.Alert, error) {
	return uc.repo.ListAlertsForChat(ctx, chatID)
}

// Unsubscribe removes an alert named either by its 1-based position in List
// or by a station query. It returns the station name it targeted.
func (uc *AlertUseCase) Unsubscribe(ctx context.Context, chatID int64, arg string) (string, bool, error) {
	arg = strings.TrimSpace(arg)

	var station string
	if index, err := strconv.Atoi(arg); err == nil {
		alerts, err := uc.repo.ListAlertsForChat(ctx, chatID)
		if err != nil {
			return "", false, err
		}
		if index < 1 || index > len(alerts) {
			return "", false, ErrAlertIndexOutOfRange
		}
		station = alerts[index-1].StationName
	} else {
		st, err := uc.resolve(ctx, arg)
		if err != nil {
			return "", false, err
		}
		station = st.Name
	}

	removed, err := uc.repo.DeleteAlert(ctx, station, chatID)
	if err != nil {
		return station, false, err
	}
	return station, removed, nil
}

// ProcessStation re-arms alerts whose cool-down lapsed, then notifies every
// pending alert the fresh reading reaches and pauses it. A failed delivery
// leaves the alert pending for the next reading. It returns the number sent.
func (uc *AlertUseCase) ProcessStation(ctx context.Context, st entities.Station) (int, error) {
	if uc.notifier == nil || !st.HasValue() {
		return 0, nil
	}

	now := uc.now().UnixMilli()
	if _, err := uc.repo.ReactivateAlerts(ctx, st.Name, now-uc.cooldown.Milliseconds()); err != nil {
		slog.Warn("failed to re-arm alerts", "station", st.Name, "error", err)
	}

	pending, err := uc.repo.ListPendingAlertsForStation(ctx, st.Name)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, alert := range pending {
		if !alert.Reached(st) {
			continue
		}

		if err := uc.notifier.NotifyAlert(ctx, alert, st); err != nil {
			metrics.AlertNotifications.WithLabelValues("failed").Inc()
			slog.Error("failed to send alert", "station", st.Name, "chat_id", alert.ChatID, "error", err)
			continue
		}
		metrics.AlertNotifications.WithLabelValues("sent").Inc()
		sent++

		triggeredAt := st.Timestamp
		if triggeredAt <= 0 {
			triggeredAt = now
		}
		if err := uc.repo.MarkAlertTriggered(ctx, st.Name, alert.ChatID, triggeredAt, st.Value); err != nil {
			slog.Error("failed to mark alert as triggered", "station", st.Name, "chat_id", alert.ChatID, "error", err)
			continue
		}

		slog.Info("alert triggered",
			"station", st.Name,
			"chat_id", alert.ChatID,
			"threshold", alert.Threshold,
			"value", st.Value)
	}
	return sent, nil
}

func (uc *AlertUseCase) resolve(ctx context.Context, query string) (entities.Station, error) {
	if uc.stations == nil {
		return entities.Station{}, errors.New("no station lookup configured")
	}
	lookup, err := uc.stations.LookupStation(ctx, query)
	if err != nil {
		return entities.Station{}, err
	}
	if !lookup.Found {
		return entities.Station{}, ErrAlertStationNotFound
	}
	return lookup.Station, nil
}

// Cooldown is how long a fired alert stays paused
func (uc *AlertUseCase) Cooldown() time.Duration {
	return uc.cooldown
}
