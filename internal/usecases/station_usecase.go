// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abelzeko/erfiume-bot/internal/entities"
	"github.com/abelzeko/erfiume-bot/internal/integration/openai"
	"github.com/abelzeko/erfiume-bot/internal/metrics"
	"github.com/abelzeko/erfiume-bot/internal/repository"
)

const defaultStoreConcurrency = 8

// TelemetrySource is the upstream the ingestion pass reads from
type TelemetrySource interface {
	FetchLatestTime(ctx context.Context) (int64, error)
	FetchStations(ctx context.Context, at int64) ([]entities.Station, error)
	SeriesFetcher
}

// StationUseCase handles business logic related to station data
type StationUseCase struct {
	repo          repository.StationRepository
	telemetry     TelemetrySource
	openAIService openai.OpenAIService
	resolver      *StationResolver
	alerts        *AlertUseCase

	enrichLimit int
	storeLimit  int
}

// NewStationUseCase creates a new station use case. telemetry may be nil for
// read-only processes and openAIService may be nil to disable the fallback.
func NewStationUseCase(repo repository.StationRepository, telemetry TelemetrySource, openAIService openai.OpenAIService) *StationUseCase {
	return &StationUseCase{
		repo:          repo,
		telemetry:     telemetry,
		openAIService: openAIService,
		resolver:      NewStationResolver(entities.KnownStations),
		storeLimit:    defaultStoreConcurrency,
	}
}

// SetConcurrency bounds the enrichment and store fan-outs. 0 for enrichment
// means one goroutine per station; non-positive store limits keep the default.
func (uc *StationUseCase) SetConcurrency(enrichLimit, storeLimit int) {
	uc.enrichLimit = enrichLimit
	if storeLimit > 0 {
		uc.storeLimit = storeLimit
	}
}

// SetAlerts makes every ingestion pass check freshly stored stations
// against pending threshold alerts.
func (uc *StationUseCase) SetAlerts(alerts *AlertUseCase) {
	uc.alerts = alerts
}

// RefreshResult summarizes one ingestion pass
type RefreshResult struct {
	RunID         string
	LatestTime    int64
	Found         int
	Enrichment    EnrichReport
	Updated       int
	Unchanged     int
	StoreFailures int
	AlertsSent    int
	Duration      time.Duration
}

// RefreshStationData runs one ingestion pass: latest time, station list,
// enrichment, then one conditional upsert per station. Failing to read the
// latest time or the station list aborts the pass. Store failures do not stop
// other stations; they are joined into the returned error.
func (uc *StationUseCase) RefreshStationData(ctx context.Context) (RefreshResult, error) {
	start := time.Now()
	result := RefreshResult{RunID: uuid.NewString()}
	logger := slog.With("run_id", result.RunID)
	logger.Info("starting station data refresh")

	if uc.telemetry == nil {
		return result, errors.New("no telemetry source configured")
	}

	latest, err := uc.telemetry.FetchLatestTime(ctx)
	if err != nil {
		metrics.IngestionRuns.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("failed to fetch latest time: %w", err)
	}
	result.LatestTime = latest

	stations, err := uc.telemetry.FetchStations(ctx, latest)
	if err != nil {
		metrics.IngestionRuns.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("failed to fetch stations: %w", err)
	}
	result.Found = len(stations)
	metrics.StationsFound.Set(float64(len(stations)))
	logger.Info("fetched station snapshots", "count", len(stations), "time", latest)

	stations, result.Enrichment = EnrichStations(ctx, uc.telemetry, stations, uc.enrichLimit)

	var updated, alertsSent atomic.Int64
	storeErrs := make([]error, len(stations))

	var g errgroup.Group
	g.SetLimit(uc.storeLimit)
	for i, st := range stations {
		g.Go(func() error {
			written, err := uc.repo.UpsertIfNewer(ctx, st)
			if err != nil {
				logger.Error("failed to store station", "station", st.Name, "error", err)
				metrics.StoreFailures.Inc()
				storeErrs[i] = err
				return nil
			}
			if !written {
				return nil
			}
			updated.Add(1)
			metrics.StationsUpdated.Inc()

			// Only a reading that advanced the store can fire alerts
			if uc.alerts != nil {
				sent, err := uc.alerts.ProcessStation(ctx, st)
				if err != nil {
					logger.Error("failed to process alerts", "station", st.Name, "error", err)
				}
				alertsSent.Add(int64(sent))
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range storeErrs {
		if err != nil {
			result.StoreFailures++
		}
	}
	result.Updated = int(updated.Load())
	result.AlertsSent = int(alertsSent.Load())
	result.Unchanged = len(stations) - result.Updated - result.StoreFailures
	result.Duration = time.Since(start)

	outcome := "ok"
	if result.StoreFailures > 0 {
		outcome = "partial"
	}
	metrics.IngestionRuns.WithLabelValues(outcome).Inc()

	logger.Info("station data refresh finished",
		"found", result.Found,
		"enriched", result.Enrichment.Enriched,
		"enrich_failures", result.Enrichment.Failed,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"store_failures", result.StoreFailures,
		"alerts_sent", result.AlertsSent,
		"duration", result.Duration,
	)

	return result, errors.Join(storeErrs...)
}

// GetStation retrieves the stored record of an exact station name
func (uc *StationUseCase) GetStation(ctx context.Context, name string) (entities.Station, bool, error) {
	slog.Debug("retrieving station", "name", name)
	return uc.repo.GetStationByName(ctx, name)
}

// KnownStations returns the names the bot can resolve
func (uc *StationUseCase) KnownStations() []string {
	return entities.KnownStations
}

// StationLookup is the outcome of answering a free-text station query
type StationLookup struct {
	Query       string
	Match       Match
	Interpreted bool // resolved by the OpenAI fallback rather than fuzzy matching
	Found       bool // a station was resolved and has stored data
	Station     entities.Station
}

// LookupStation resolves query to a known station and reads its latest data.
// An unresolved query or a station without stored data is not an error.
func (uc *StationUseCase) LookupStation(ctx context.Context, query string) (StationLookup, error) {
	lookup := StationLookup{Query: query}

	match, ok := uc.resolver.Resolve(query)
	if ok {
		slog.Debug("resolved station query", "query", query, "station", match.Name, "score", match.Score)
	} else {
		match, ok = uc.interpret(ctx, query)
		lookup.Interpreted = ok
	}
	if !ok {
		metrics.ResolverMisses.Inc()
		slog.Info("no station matches query", "query", query)
		return lookup, nil
	}
	lookup.Match = match

	st, found, err := uc.repo.GetStationByName(ctx, match.Name)
	if err != nil {
		return lookup, fmt.Errorf("failed to read station %q: %w", match.Name, err)
	}
	if !found {
		slog.Info("station has no stored data yet", "station", match.Name)
		return lookup, nil
	}

	lookup.Found = true
	lookup.Station = st
	return lookup, nil
}

// interpret asks the OpenAI agent for a station name and only accepts names
// from the known list.
func (uc *StationUseCase) interpret(ctx context.Context, query string) (Match, bool) {
	if uc.openAIService == nil {
		return Match{}, false
	}

	agentResp, err := uc.openAIService.InterpretStationQuery(ctx, query, entities.KnownStations)
	if err != nil {
		slog.Warn("openai interpretation failed", "query", query, "error", err)
		return Match{}, false
	}

	slog.Info("agent response", "query", query, "station", agentResp.StationName, "message", agentResp.UserMessage)
	if !entities.IsKnownStation(agentResp.StationName) {
		return Match{}, false
	}
	return Match{Name: agentResp.StationName}, true
}
