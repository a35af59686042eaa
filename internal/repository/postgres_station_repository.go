package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

const createStationsPostgresSQL = `
CREATE TABLE IF NOT EXISTS stations (
    name TEXT PRIMARY KEY,
    idstazione TEXT NOT NULL,
    ordinamento INTEGER NOT NULL,
    lon TEXT NOT NULL,
    lat TEXT NOT NULL,
    soglia1 DOUBLE PRECISION NOT NULL,
    soglia2 DOUBLE PRECISION NOT NULL,
    soglia3 DOUBLE PRECISION NOT NULL,
    value DOUBLE PRECISION NOT NULL,
    timestamp BIGINT NOT NULL
)`

const upsertStationPostgresSQL = `
INSERT INTO stations (name, idstazione, ordinamento, lon, lat, soglia1, soglia2, soglia3, value, timestamp)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (name) DO UPDATE
SET idstazione = EXCLUDED.idstazione,
    ordinamento = EXCLUDED.ordinamento,
    lon = EXCLUDED.lon,
    lat = EXCLUDED.lat,
    soglia1 = EXCLUDED.soglia1,
    soglia2 = EXCLUDED.soglia2,
    soglia3 = EXCLUDED.soglia3,
    value = EXCLUDED.value,
    timestamp = EXCLUDED.timestamp
WHERE EXCLUDED.timestamp > stations.timestamp`

const getStationPostgresSQL = `
SELECT name, idstazione, ordinamento, lon, lat, soglia1, soglia2, soglia3, value, timestamp
FROM stations
WHERE name = $1`

// PostgresStationRepository implements StationRepository on a pgx pool
type PostgresStationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStationRepository connects to databaseURL and ensures the schema exists.
func NewPostgresStationRepository(ctx context.Context, databaseURL string) (*PostgresStationRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createStationsPostgresSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("connected to postgres station store")
	return &PostgresStationRepository{pool: pool}, nil
}

// Close releases the pool resources.
func (r *PostgresStationRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// UpsertIfNewer applies the same conditional upsert as the SQLite backend.
func (r *PostgresStationRepository) UpsertIfNewer(ctx context.Context, st entities.Station) (bool, error) {
	if st.Name == "" {
		return false, &StoreError{Op: "upsert", Err: entities.ErrMissingStationName}
	}

	tag, err := r.pool.Exec(ctx, upsertStationPostgresSQL,
		st.Name, st.ID, st.Ordering, st.Lon, st.Lat,
		st.ThresholdYellow, st.ThresholdOrange, st.ThresholdRed,
		st.Value, st.Timestamp,
	)
	if err != nil {
		return false, &StoreError{Op: "upsert", Station: st.Name, Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// GetStationByName retrieves the latest record of one station
func (r *PostgresStationRepository) GetStationByName(ctx context.Context, name string) (entities.Station, bool, error) {
	var st entities.Station
	err := r.pool.QueryRow(ctx, getStationPostgresSQL, name).Scan(
		&st.Name, &st.ID, &st.Ordering, &st.Lon, &st.Lat,
		&st.ThresholdYellow, &st.ThresholdOrange, &st.ThresholdRed,
		&st.Value, &st.Timestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Station{}, false, nil
	}
	if err != nil {
		return entities.Station{}, false, &StoreError{Op: "get", Station: name, Err: err}
	}
	return st, true, nil
}
