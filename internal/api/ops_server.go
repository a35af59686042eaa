package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abelzeko/erfiume-bot/internal/entities"
	"github.com/abelzeko/erfiume-bot/internal/metrics"
)

// StationReader is the read side the ops server exposes
type StationReader interface {
	GetStation(ctx context.Context, name string) (entities.Station, bool, error)
}

// StationResponse is the JSON form of a stored station
type StationResponse struct {
	Name            string   `json:"name"`
	ID              string   `json:"idstazione"`
	Ordering        int      `json:"ordinamento"`
	Lon             string   `json:"lon"`
	Lat             string   `json:"lat"`
	ThresholdYellow *float64 `json:"soglia1"`
	ThresholdOrange *float64 `json:"soglia2"`
	ThresholdRed    *float64 `json:"soglia3"`
	Value           *float64 `json:"value"`
	Timestamp       int64    `json:"timestamp"`
	Alarm           string   `json:"alarm,omitempty"`
}

func knownOrNil(v float64) *float64 {
	if v == entities.UnknownValue {
		return nil
	}
	return &v
}

func newStationResponse(st entities.Station) StationResponse {
	return StationResponse{
		Name:            st.Name,
		ID:              st.ID,
		Ordering:        st.Ordering,
		Lon:             st.Lon,
		Lat:             st.Lat,
		ThresholdYellow: knownOrNil(st.ThresholdYellow),
		ThresholdOrange: knownOrNil(st.ThresholdOrange),
		ThresholdRed:    knownOrNil(st.ThresholdRed),
		Value:           knownOrNil(st.Value),
		Timestamp:       st.Timestamp,
		Alarm:           st.Alarm().Emoji(),
	}
}

// NewOpsRouter builds the health, metrics and station lookup routes
func NewOpsRouter(stations StationReader, appName string) *mux.Router {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "OK",
			"app":       appName,
			"timestamp": time.Now(),
		})
	}).Methods(http.MethodGet)

	if stations != nil {
		r.HandleFunc("/stations/{name}", func(w http.ResponseWriter, r *http.Request) {
			name := mux.Vars(r)["name"]
			st, found, err := stations.GetStation(r.Context(), name)
			if err != nil {
				slog.Error("ops station lookup failed", "station", name, "error", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
				return
			}
			if !found {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "station not found"})
				return
			}
			writeJSON(w, http.StatusOK, newStationResponse(st))
		}).Methods(http.MethodGet)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.OpsRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.OpsRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RunOpsServer serves handler on addr until ctx is cancelled
func RunOpsServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Handler:      handler,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ops server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("ops server stopped")
	return nil
}
