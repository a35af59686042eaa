package integration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

// mockAPIServer serves fixed JSON bodies keyed by request path
func mockAPIServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, body)
	}))
}

// TestFetchLatestTime checks the watermark is read from the "time" entry
func TestFetchLatestTime(t *testing.T) {
	server := mockAPIServer(t, map[string]string{
		"/get-sensor-values-no-time": `[{"time":"1726667100000"},{"idstazione":"-/1","nomestaz":"Cesena","value":1.2}]`,
	})
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	got, err := client.FetchLatestTime(context.Background())
	if err != nil {
		t.Fatalf("FetchLatestTime failed: %v", err)
	}
	if got != 1726667100000 {
		t.Errorf("Expected 1726667100000, got %d", got)
	}
}

// TestFetchLatestTimeMissingEntry checks a payload without a watermark is an upstream error
func TestFetchLatestTimeMissingEntry(t *testing.T) {
	server := mockAPIServer(t, map[string]string{
		"/get-sensor-values-no-time": `[{"idstazione":"-/1","nomestaz":"Cesena"}]`,
	})
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	_, err := client.FetchLatestTime(context.Background())

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if !errors.Is(err, errNoTimeEntry) {
		t.Errorf("Expected errNoTimeEntry, got %v", err)
	}
}

// TestFetchLatestTimeNonInteger checks a non-numeric watermark is rejected
func TestFetchLatestTimeNonInteger(t *testing.T) {
	server := mockAPIServer(t, map[string]string{
		"/get-sensor-values-no-time": `[{"time":"yesterday"}]`,
	})
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	if _, err := client.FetchLatestTime(context.Background()); !errors.Is(err, errInvalidTime) {
		t.Errorf("Expected errInvalidTime, got %v", err)
	}
}

// TestFetchStations checks decoding, marker skipping and missing value handling
func TestFetchStations(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("time")
		io.WriteString(w, `[
			{"time":"1000"},
			{"idstazione":"-/1","ordinamento":1,"nomestaz":"Cesena","lon":"12.2","lat":"44.1","soglia1":2.0,"soglia2":3.0,"soglia3":4.0,"value":1.5},
			{"idstazione":"-/2","ordinamento":"2","nomestaz":"  S. Carlo ","lon":"11.3","lat":"44.5","soglia1":null,"soglia2":0,"soglia3":0,"value":null},
			{"idstazione":"-/3","nomestaz":"","value":3},
			"garbage"
		]`)
	}))
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	stations, err := client.FetchStations(context.Background(), 1000)
	if err != nil {
		t.Fatalf("FetchStations failed: %v", err)
	}
	if gotQuery != "1000" {
		t.Errorf("Expected time=1000 query, got %q", gotQuery)
	}
	if len(stations) != 2 {
		t.Fatalf("Expected 2 stations, got %d", len(stations))
	}

	cesena := stations[0]
	if cesena.Name != "Cesena" || cesena.ID != "-/1" || cesena.Ordering != 1 {
		t.Errorf("Unexpected station identity: %+v", cesena)
	}
	if cesena.Value != 1.5 || cesena.ThresholdRed != 4.0 {
		t.Errorf("Unexpected station values: %+v", cesena)
	}
	if cesena.Timestamp != 1000 {
		t.Errorf("Expected timestamp 1000, got %d", cesena.Timestamp)
	}

	sanCarlo := stations[1]
	if sanCarlo.Name != "S. Carlo" {
		t.Errorf("Expected trimmed name, got %q", sanCarlo.Name)
	}
	if sanCarlo.Ordering != 2 {
		t.Errorf("Expected ordering from numeric string, got %d", sanCarlo.Ordering)
	}
	if sanCarlo.Value != entities.UnknownValue || sanCarlo.ThresholdYellow != entities.UnknownValue {
		t.Errorf("Expected unknown value markers, got %+v", sanCarlo)
	}
}

// TestFetchStationsStatusError checks non-2xx responses carry the status code
func TestFetchStationsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	_, err := client.FetchStations(context.Background(), 1000)

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected *UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", upstreamErr.StatusCode)
	}
	if upstreamErr.Op != "stations" {
		t.Errorf("Expected op stations, got %q", upstreamErr.Op)
	}
}

// TestFetchStationsNotAnArray checks a malformed body is a decode error
func TestFetchStationsNotAnArray(t *testing.T) {
	server := mockAPIServer(t, map[string]string{
		"/get-sensor-values-no-time": `{"error":"maintenance"}`,
	})
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	if _, err := client.FetchStations(context.Background(), 1000); err == nil {
		t.Fatal("Expected an error for a non-array payload")
	}
}

// TestFetchSeries checks readings are decoded and unusable points dropped
func TestFetchSeries(t *testing.T) {
	var gotStation string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get-time-series/" {
			http.NotFound(w, r)
			return
		}
		gotStation = r.URL.Query().Get("stazione")
		io.WriteString(w, `[{"t":1000,"v":1.1},{"t":"2000","v":"1.4"},{"t":"not-a-time","v":9},{"t":3000,"v":null}]`)
	}))
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	readings, err := client.FetchSeries(context.Background(), "-/1")
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}
	if gotStation != "-/1" {
		t.Errorf("Expected stazione=-/1, got %q", gotStation)
	}

	want := []entities.Reading{
		{Timestamp: 1000, Value: 1.1},
		{Timestamp: 2000, Value: 1.4},
		{Timestamp: 3000, Value: entities.UnknownValue},
	}
	if len(readings) != len(want) {
		t.Fatalf("Expected %d readings, got %d: %+v", len(want), len(readings), readings)
	}
	for i := range want {
		if readings[i] != want[i] {
			t.Errorf("Reading %d: expected %+v, got %+v", i, want[i], readings[i])
		}
	}
}

// TestFetchSeriesEmpty checks an empty history is not an error
func TestFetchSeriesEmpty(t *testing.T) {
	server := mockAPIServer(t, map[string]string{"/get-time-series/": `[]`})
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	readings, err := client.FetchSeries(context.Background(), "-/1")
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}
	if len(readings) != 0 {
		t.Errorf("Expected no readings, got %d", len(readings))
	}
}

// TestFetchSeriesCancelled checks a cancelled context surfaces as an upstream error
func TestFetchSeriesCancelled(t *testing.T) {
	server := mockAPIServer(t, map[string]string{"/get-time-series/": `[]`})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewTelemetryClient(server.URL, server.Client())
	_, err := client.FetchSeries(ctx, "-/1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestFetchSeriesFailuresDoNotOpenCircuit checks a run of failing stations
// leaves later stations and the snapshot requests unaffected
func TestFetchSeriesFailuresDoNotOpenCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get-time-series/":
			if strings.HasPrefix(r.URL.Query().Get("stazione"), "bad") {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			io.WriteString(w, `[{"t":2000,"v":3.5}]`)
		case "/get-sensor-values-no-time":
			io.WriteString(w, `[{"time":"2000"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewTelemetryClient(server.URL, server.Client())
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		_, err := client.FetchSeries(ctx, fmt.Sprintf("bad-%d", i))
		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) || upstreamErr.StatusCode != http.StatusInternalServerError {
			t.Fatalf("Station bad-%d: expected a 500 upstream error, got %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		readings, err := client.FetchSeries(ctx, fmt.Sprintf("ok-%d", i))
		if err != nil {
			t.Fatalf("Station ok-%d: expected success after sibling failures, got %v", i, err)
		}
		if len(readings) != 1 || readings[0].Value != 3.5 {
			t.Errorf("Station ok-%d: unexpected readings %+v", i, readings)
		}
	}

	if _, err := client.FetchLatestTime(ctx); err != nil {
		t.Errorf("Expected the watermark request to go through, got %v", err)
	}
}
