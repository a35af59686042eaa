// Package repository provides data access implementations
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

// StationRepository defines the interface for station persistence operations
type StationRepository interface {
	// UpsertIfNewer stores st when its name is unknown or its timestamp is
	// strictly newer than the stored one. It reports whether a write happened.
	UpsertIfNewer(ctx context.Context, st entities.Station) (bool, error)
	// GetStationByName returns the stored station; found is false when absent.
	GetStationByName(ctx context.Context, name string) (entities.Station, bool, error)
	Close() error
}

// StoreError wraps every backend failure of a repository operation
type StoreError struct {
	Op      string
	Station string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Station != "" {
		return fmt.Sprintf("store %s %q: %v", e.Op, e.Station, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

const defaultSQLitePath = "data/erfiume.db"

// SQLiteStationRepository implements StationRepository using SQLite
type SQLiteStationRepository struct {
	db     *sql.DB
	DBPath string
}

// openSQLite opens the database file with WAL and a busy timeout so that the
// bot and the fetcher can share it.
func openSQLite(dbPath string) (*sql.DB, string, error) {
	if dbPath == "" {
		dbPath = defaultSQLitePath
	}
	if dir := filepath.Dir(dbPath); dir != "." && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	params := "_busy_timeout=5000&_journal_mode=WAL"
	dsn := fmt.Sprintf("file:%s?%s", dbPath, params)
	if strings.HasPrefix(dbPath, "file:") {
		sep := "?"
		if strings.Contains(dbPath, "?") {
			sep = "&"
		}
		dsn = dbPath + sep + params
	}

	slog.Info("opening database", "path", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return db, dbPath, nil
}

// NewSQLiteStationRepository creates and initializes a new SQLite repository
func NewSQLiteStationRepository(dbPath string) (*SQLiteStationRepository, error) {
	db, dbPath, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS stations (
		name TEXT PRIMARY KEY,
		idstazione TEXT NOT NULL,
		ordinamento INTEGER NOT NULL,
		lon TEXT NOT NULL,
		lat TEXT NOT NULL,
		soglia1 REAL NOT NULL,
		soglia2 REAL NOT NULL,
		soglia3 REAL NOT NULL,
		value REAL NOT NULL,
		timestamp INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStationRepository{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (r *SQLiteStationRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertIfNewer writes the whole record in one conditional statement, so the
// timestamp check and the write cannot interleave with another writer.
func (r *SQLiteStationRepository) UpsertIfNewer(ctx context.Context, st entities.Station) (bool, error) {
	if st.Name == "" {
		return false, &StoreError{Op: "upsert", Err: entities.ErrMissingStationName}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO stations(name, idstazione, ordinamento, lon, lat, soglia1, soglia2, soglia3, value, timestamp)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			idstazione=excluded.idstazione,
			ordinamento=excluded.ordinamento,
			lon=excluded.lon,
			lat=excluded.lat,
			soglia1=excluded.soglia1,
			soglia2=excluded.soglia2,
			soglia3=excluded.soglia3,
			value=excluded.value,
			timestamp=excluded.timestamp
		WHERE excluded.timestamp > stations.timestamp`,
		st.Name,
		st.ID,
		st.Ordering,
		st.Lon,
		st.Lat,
		st.ThresholdYellow,
		st.ThresholdOrange,
		st.ThresholdRed,
		st.Value,
		st.Timestamp,
	)
	if err != nil {
		return false, &StoreError{Op: "upsert", Station: st.Name, Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, &StoreError{Op: "upsert", Station: st.Name, Err: err}
	}
	return n > 0, nil
}

// GetStationByName retrieves the latest record of one station
func (r *SQLiteStationRepository) GetStationByName(ctx context.Context, name string) (entities.Station, bool, error) {
	var st entities.Station
	err := r.db.QueryRowContext(ctx, `
		SELECT name, idstazione, ordinamento, lon, lat, soglia1, soglia2, soglia3, value, timestamp
		FROM stations
		WHERE name = ?`, name).Scan(
		&st.Name,
		&st.ID,
		&st.Ordering,
		&st.Lon,
		&st.Lat,
		&st.ThresholdYellow,
		&st.ThresholdOrange,
		&st.ThresholdRed,
		&st.Value,
		&st.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Station{}, false, nil
	}
	if err != nil {
		return entities.Station{}, false, &StoreError{Op: "get", Station: name, Err: err}
	}
	return st, true, nil
}
