// Package integration handles external service interactions
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

const (
	defaultBaseURL = "https://allertameteo.regione.emilia-romagna.it/o/api/allerta"

	// sensorVariable selects the hydrometric level sensor on the allertameteo API.
	sensorVariable = "254,0,0/1,-,-,-/B13215"

	// watermarkProbeTime is any past time; the API answers with the latest
	// available watermark regardless.
	watermarkProbeTime int64 = 1726667100000

	maxBodyBytes = 8 << 20
)

// TelemetryClient fetches station snapshots and time series from the allertameteo API
type TelemetryClient struct {
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewTelemetryClient creates a new client for the telemetry API
func NewTelemetryClient(baseURL string, httpClient *http.Client) *TelemetryClient {
	if baseURL == "" {
		// Default source URL
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telemetry",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 10
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &TelemetryClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		circuit:    cb,
	}
}

// FetchLatestTime returns the most recent update watermark known upstream
func (c *TelemetryClient) FetchLatestTime(ctx context.Context) (int64, error) {
	u := c.sensorValuesURL(watermarkProbeTime)
	slog.Debug("fetching latest update time", "url", u)

	body, err := c.get(ctx, "latest time", u)
	if err != nil {
		return 0, err
	}

	markers, _, err := splitEntries(body)
	if err != nil {
		return 0, &UpstreamError{Op: "latest time", URL: u, Err: fmt.Errorf("decode payload: %w", err)}
	}
	if len(markers) == 0 {
		return 0, &UpstreamError{Op: "latest time", URL: u, Err: errNoTimeEntry}
	}

	latest, ok := markers[0].int64()
	if !ok {
		return 0, &UpstreamError{Op: "latest time", URL: u, Err: errInvalidTime}
	}

	slog.Info("fetched latest update time", "time", latest)
	return latest, nil
}

// FetchStations returns one snapshot per station as of the given watermark.
// Watermark marker entries are skipped and missing numbers become UnknownValue.
func (c *TelemetryClient) FetchStations(ctx context.Context, at int64) ([]entities.Station, error) {
	u := c.sensorValuesURL(at)
	slog.Debug("fetching stations", "url", u)

	body, err := c.get(ctx, "stations", u)
	if err != nil {
		return nil, err
	}

	_, rawStations, err := splitEntries(body)
	if err != nil {
		return nil, &UpstreamError{Op: "stations", URL: u, Err: fmt.Errorf("decode payload: %w", err)}
	}

	stations := make([]entities.Station, 0, len(rawStations))
	skipped := 0
	for _, raw := range rawStations {
		var entry stationEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			skipped++
			continue
		}

		st, err := entities.NewStation(entities.RawStation{
			Name:            string(entry.NomeStaz),
			ID:              string(entry.IDStazione),
			Ordering:        entry.Ordinamento.intPtr(),
			Lon:             string(entry.Lon),
			Lat:             string(entry.Lat),
			ThresholdYellow: entry.Soglia1.floatPtr(),
			ThresholdOrange: entry.Soglia2.floatPtr(),
			ThresholdRed:    entry.Soglia3.floatPtr(),
			Value:           entry.Value.floatPtr(),
		}, at)
		if err != nil {
			skipped++
			continue
		}
		stations = append(stations, st)
	}

	slog.Info("fetched stations", "time", at, "stations", len(stations), "skipped", skipped)
	return stations, nil
}

// FetchSeries returns the full available reading history for one station.
// Points without a usable timestamp are dropped. Series requests bypass the
// circuit breaker, so a run of failing stations cannot short-circuit the rest.
func (c *TelemetryClient) FetchSeries(ctx context.Context, stationID string) ([]entities.Reading, error) {
	values := url.Values{}
	values.Set("stazione", stationID)
	values.Set("variabile", sensorVariable)
	u := fmt.Sprintf("%s/get-time-series/?%s", c.baseURL, values.Encode())

	body, err := c.getDirect(ctx, "series", u)
	if err != nil {
		return nil, err
	}

	var entries []seriesEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &UpstreamError{Op: "series", URL: u, Err: fmt.Errorf("decode payload: %w", err)}
	}

	readings := make([]entities.Reading, 0, len(entries))
	for _, e := range entries {
		t, ok := e.T.int64()
		if !ok {
			continue
		}
		v := entities.UnknownValue
		if p := e.V.floatPtr(); p != nil {
			v = *p
		}
		readings = append(readings, entities.Reading{Timestamp: t, Value: v})
	}

	slog.Debug("fetched time series", "station", stationID, "points", len(readings), "dropped", len(entries)-len(readings))
	return readings, nil
}

func (c *TelemetryClient) sensorValuesURL(at int64) string {
	values := url.Values{}
	values.Set("variabile", sensorVariable)
	values.Set("time", fmt.Sprintf("%d", at))
	return fmt.Sprintf("%s/get-sensor-values-no-time?%s", c.baseURL, values.Encode())
}

// get performs one GET through the circuit breaker and returns the body.
// Only the watermark and station list requests use it: a pass cannot proceed
// without them, while series failures stay confined to their own station.
func (c *TelemetryClient) get(ctx context.Context, op, u string) ([]byte, error) {
	statusCode := 0
	result, err := c.circuit.Execute(func() (interface{}, error) {
		body, code, err := c.do(ctx, u)
		statusCode = code
		return body, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.Warn("telemetry circuit open, skipping request", "op", op)
		}
		return nil, &UpstreamError{Op: op, URL: u, StatusCode: statusCode, Err: err}
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, &UpstreamError{Op: op, URL: u, Err: fmt.Errorf("unexpected result type %T", result)}
	}
	return body, nil
}

// getDirect performs one GET without the circuit breaker.
func (c *TelemetryClient) getDirect(ctx context.Context, op, u string) ([]byte, error) {
	body, statusCode, err := c.do(ctx, u)
	if err != nil {
		return nil, &UpstreamError{Op: op, URL: u, StatusCode: statusCode, Err: err}
	}
	return body, nil
}

// do sends the request and reads the body. Non-2xx responses are errors.
func (c *TelemetryClient) do(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, res.StatusCode, fmt.Errorf("%w: %s", errUnexpectedStatus, res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, res.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, res.StatusCode, nil
}
