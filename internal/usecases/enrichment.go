package usecases

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/abelzeko/erfiume-bot/internal/entities"
	"github.com/abelzeko/erfiume-bot/internal/metrics"
)

// SeriesFetcher returns the reading history of one station
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, stationID string) ([]entities.Reading, error)
}

// EnrichReport summarizes one enrichment fan-out
type EnrichReport struct {
	Enriched  int // stations whose reading was replaced by the series maximum
	Unchanged int // empty series, snapshot kept
	Failed    int // fetch failed or was cancelled, snapshot kept
}

// LatestReading returns the reading with the greatest timestamp. On ties the
// first one wins. ok is false for an empty series.
func LatestReading(readings []entities.Reading) (latest entities.Reading, ok bool) {
	for i, r := range readings {
		if i == 0 || r.Timestamp > latest.Timestamp {
			latest = r
		}
	}
	return latest, len(readings) > 0
}

// EnrichStations fetches every station's series concurrently and replaces the
// snapshot reading with the most recent point. limit bounds the number of
// in-flight fetches; 0 means one goroutine per station. A failed fetch
// leaves that station's snapshot untouched and never affects the others.
func EnrichStations(ctx context.Context, fetcher SeriesFetcher, stations []entities.Station, limit int) ([]entities.Station, EnrichReport) {
	out := make([]entities.Station, len(stations))
	copy(out, stations)

	var enriched, unchanged, failed atomic.Int64

	// Plain Group: a failed task must not cancel its siblings.
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := range out {
		g.Go(func() error {
			st := out[i]
			if err := ctx.Err(); err != nil {
				failed.Add(1)
				metrics.EnrichmentFailures.Inc()
				return nil
			}

			readings, err := fetcher.FetchSeries(ctx, st.ID)
			if err != nil {
				slog.Warn("failed to fetch time series, keeping snapshot", "station", st.Name, "id", st.ID, "error", err)
				failed.Add(1)
				metrics.EnrichmentFailures.Inc()
				return nil
			}

			latest, ok := LatestReading(readings)
			if !ok {
				unchanged.Add(1)
				return nil
			}
			out[i] = st.WithReading(latest)
			enriched.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := EnrichReport{
		Enriched:  int(enriched.Load()),
		Unchanged: int(unchanged.Load()),
		Failed:    int(failed.Load()),
	}
	slog.Info("enrichment finished", "stations", len(out), "enriched", report.Enriched, "unchanged", report.Unchanged, "failed", report.Failed)
	return out, report
}
